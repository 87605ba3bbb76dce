package presenter

import (
	"github.com/johnquangdev/focus-group-bot/internal/adapter/dto/session"
	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

// ToStartBotResponse converts a freshly queued session
func ToStartBotResponse(s *entities.FocusGroupSession) *session.StartBotResponse {
	return &session.StartBotResponse{
		SessionID: s.ID.String(),
		Status:    string(s.Status),
	}
}

// ToSessionResponse converts a FocusGroupSession entity to its DTO
func ToSessionResponse(s *entities.FocusGroupSession) *session.SessionResponse {
	if s == nil {
		return nil
	}

	participants := make([]session.SessionParticipant, 0, len(s.Participants))
	for _, p := range s.Participants {
		participants = append(participants, session.SessionParticipant{
			Email:         p.Email,
			Name:          p.Name,
			JoinedAt:      p.JoinedAt,
			SpeakingTime:  p.SpeakingTime,
			ResponseCount: p.ResponseCount,
		})
	}

	questions := make([]session.QuestionResponseResponse, 0, len(s.QuestionResponses))
	for _, q := range s.QuestionResponses {
		answers := make([]session.AnswerResponse, 0, len(q.Responses))
		for _, r := range q.Responses {
			answers = append(answers, session.AnswerResponse{
				ParticipantEmail: r.ParticipantEmail,
				ParticipantName:  r.ParticipantName,
				Text:             r.Text,
				Timestamp:        r.Timestamp,
				Duration:         r.Duration,
			})
		}
		questions = append(questions, session.QuestionResponseResponse{
			QuestionID:   q.QuestionID,
			QuestionText: q.QuestionText,
			AskedAt:      q.AskedAt,
			Responses:    answers,
			Summary:      q.Summary,
		})
	}

	logs := make([]session.ErrorLogResponse, 0, len(s.ErrorLogs))
	for _, l := range s.ErrorLogs {
		logs = append(logs, session.ErrorLogResponse{
			Timestamp: l.Timestamp,
			Error:     l.Error,
			Context:   l.Context,
		})
	}

	return &session.SessionResponse{
		ID:                s.ID.String(),
		FocusGroupID:      s.FocusGroupID.String(),
		Status:            string(s.Status),
		BotStatus:         string(s.BotStatus),
		StartedAt:         s.StartedAt,
		EndedAt:           s.EndedAt,
		Participants:      participants,
		QuestionResponses: questions,
		FullTranscript:    s.FullTranscript,
		ErrorLogs:         logs,
		CreatedAt:         s.CreatedAt,
		UpdatedAt:         s.UpdatedAt,
	}
}
