package presenter

import (
	"github.com/johnquangdev/focus-group-bot/internal/adapter/dto/focusgroup"
	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
)

// ToFocusGroupResponse converts a FocusGroup entity to its DTO
func ToFocusGroupResponse(fg *entities.FocusGroup) *focusgroup.FocusGroupResponse {
	if fg == nil {
		return nil
	}

	settings := fg.Settings.Data()
	participants := make([]focusgroup.ParticipantResponse, 0, len(fg.Participants))
	for _, p := range fg.Participants {
		participants = append(participants, focusgroup.ParticipantResponse{
			Email:  p.Email,
			Name:   p.Name,
			Status: string(p.Status),
		})
	}

	questionCount := 0
	if fg.Questionnaire != nil {
		questionCount = len(fg.Questionnaire.OrderedQuestions())
	}

	return &focusgroup.FocusGroupResponse{
		ID:              fg.ID.String(),
		Title:           fg.Title,
		Description:     fg.Description,
		CreatedBy:       fg.CreatedBy.String(),
		QuestionnaireID: fg.QuestionnaireID.String(),
		QuestionCount:   questionCount,
		Participants:    participants,
		ScheduledAt:     fg.ScheduledAt,
		Duration:        fg.Duration,
		Status:          string(fg.Status),
		MeetingLink:     fg.MeetingLink,
		MeetingID:       fg.MeetingID,
		CalendarEventID: fg.CalendarEventID,
		Settings: focusgroup.SettingsResponse{
			MaxParticipants:     settings.MaxParticipants,
			TimePerQuestion:     settings.TimePerQuestion,
			EnableSummarization: settings.EnableSummarization,
		},
		CreatedAt: fg.CreatedAt,
		UpdatedAt: fg.UpdatedAt,
	}
}

// ToListFocusGroupsResponse converts a list of focus groups
func ToListFocusGroupsResponse(groups []*entities.FocusGroup) *focusgroup.ListFocusGroupsResponse {
	items := make([]*focusgroup.FocusGroupResponse, 0, len(groups))
	for _, fg := range groups {
		items = append(items, ToFocusGroupResponse(fg))
	}
	return &focusgroup.ListFocusGroupsResponse{
		FocusGroups: items,
		Total:       len(items),
	}
}
