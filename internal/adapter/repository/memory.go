package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/focus-group-bot/internal/domain/entities"
	"github.com/johnquangdev/focus-group-bot/internal/domain/repositories"
)

// In-memory repositories back the local mode and tests. Every read and write
// deep-copies so callers never share state with the store.

// MemorySessionRepository stores sessions in memory
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*entities.FocusGroupSession
	order    map[uuid.UUID]int
	seq      int
}

var _ repositories.SessionRepository = (*MemorySessionRepository)(nil)

// NewMemorySessionRepository creates an empty in-memory session store
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[uuid.UUID]*entities.FocusGroupSession),
		order:    make(map[uuid.UUID]int),
	}
}

// Create creates a new waiting session
func (r *MemorySessionRepository) Create(ctx context.Context, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error) {
	session := entities.NewFocusGroupSession(focusGroupID)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.order[session.ID] = r.seq
	r.sessions[session.ID] = session.Clone()
	return session, nil
}

// Save replaces the stored session, with the same checks as the GORM store
func (r *MemorySessionRepository) Save(ctx context.Context, session *entities.FocusGroupSession) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.sessions[session.ID]; ok {
		write, err := session.Supersede(stored)
		if err != nil || !write {
			return err
		}
	}
	r.put(session)
	return nil
}

// SaveIfUnclaimed writes session only while the stored copy is waiting and idle
func (r *MemorySessionRepository) SaveIfUnclaimed(ctx context.Context, session *entities.FocusGroupSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[session.ID]
	if !ok {
		return entities.ErrSessionNotFound
	}
	if !stored.IsUnclaimed() {
		return fmt.Errorf("%w: session is %s/%s", entities.ErrSessionConflict, stored.Status, stored.BotStatus)
	}
	r.put(session)
	return nil
}

// MarkStopRequested records a stop on a session that has not ended
func (r *MemorySessionRepository) MarkStopRequested(ctx context.Context, id uuid.UUID, at time.Time) (*entities.FocusGroupSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.sessions[id]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	if !stored.IsTerminal() {
		stored.RequestStop(at)
		stored.UpdatedAt = at
	}
	return stored.Clone(), nil
}

func (r *MemorySessionRepository) put(session *entities.FocusGroupSession) {
	if _, ok := r.order[session.ID]; !ok {
		r.seq++
		r.order[session.ID] = r.seq
	}
	stored := session.Clone()
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now()
	}
	r.sessions[session.ID] = stored
}

// FindByID finds a session by ID
func (r *MemorySessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.FocusGroupSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, entities.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// FindLatestByFocusGroup finds the most recently created session of a focus group
func (r *MemorySessionRepository) FindLatestByFocusGroup(ctx context.Context, focusGroupID uuid.UUID) (*entities.FocusGroupSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *entities.FocusGroupSession
	for id, s := range r.sessions {
		if s.FocusGroupID != focusGroupID {
			continue
		}
		if latest == nil || r.order[id] > r.order[latest.ID] {
			latest = s
		}
	}
	if latest == nil {
		return nil, entities.ErrSessionNotFound
	}
	return latest.Clone(), nil
}

// FindStale finds waiting or in-progress sessions not updated since before
func (r *MemorySessionRepository) FindStale(ctx context.Context, before time.Time) ([]*entities.FocusGroupSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stale []*entities.FocusGroupSession
	for _, s := range r.sessions {
		if !s.IsTerminal() && s.UpdatedAt.Before(before) {
			stale = append(stale, s.Clone())
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].UpdatedAt.Before(stale[j].UpdatedAt) })
	return stale, nil
}

// MemoryQuestionnaireRepository stores questionnaires in memory. Questionnaire
// CRUD belongs to another service, so Put is only used for seeding.
type MemoryQuestionnaireRepository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*entities.Questionnaire
}

var _ repositories.QuestionnaireRepository = (*MemoryQuestionnaireRepository)(nil)

// NewMemoryQuestionnaireRepository creates an empty questionnaire store
func NewMemoryQuestionnaireRepository() *MemoryQuestionnaireRepository {
	return &MemoryQuestionnaireRepository{items: make(map[uuid.UUID]*entities.Questionnaire)}
}

// Put stores a questionnaire
func (r *MemoryQuestionnaireRepository) Put(q *entities.Questionnaire) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[q.ID] = cloneQuestionnaire(q)
}

// FindByID finds a questionnaire by ID
func (r *MemoryQuestionnaireRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Questionnaire, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.items[id]
	if !ok {
		return nil, entities.ErrQuestionnaireNotFound
	}
	return cloneQuestionnaire(q), nil
}

// MemoryFocusGroupRepository stores focus groups in memory
type MemoryFocusGroupRepository struct {
	mu             sync.RWMutex
	groups         map[uuid.UUID]*entities.FocusGroup
	questionnaires repositories.QuestionnaireRepository
}

var _ repositories.FocusGroupRepository = (*MemoryFocusGroupRepository)(nil)

// NewMemoryFocusGroupRepository creates an empty focus group store that loads
// questionnaires from questionnaires.
func NewMemoryFocusGroupRepository(questionnaires repositories.QuestionnaireRepository) *MemoryFocusGroupRepository {
	return &MemoryFocusGroupRepository{
		groups:         make(map[uuid.UUID]*entities.FocusGroup),
		questionnaires: questionnaires,
	}
}

// Create stores a new focus group
func (r *MemoryFocusGroupRepository) Create(ctx context.Context, fg *entities.FocusGroup) error {
	return r.Save(ctx, fg)
}

// Update applies fn to a copy of the stored focus group under the store lock
func (r *MemoryFocusGroupRepository) Update(ctx context.Context, id uuid.UUID, fn func(fg *entities.FocusGroup) error) (*entities.FocusGroup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.groups[id]
	if !ok {
		return nil, entities.ErrFocusGroupNotFound
	}
	fg := cloneFocusGroup(stored)
	if err := fn(fg); err != nil {
		return nil, err
	}
	fg.UpdatedAt = time.Now()
	r.groups[id] = cloneFocusGroup(fg)
	return fg, nil
}

// Save replaces the stored focus group. Seeding only; use cases go through Update.
func (r *MemoryFocusGroupRepository) Save(ctx context.Context, fg *entities.FocusGroup) error {
	stored := cloneFocusGroup(fg)
	stored.Questionnaire = nil

	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[fg.ID] = stored
	return nil
}

// FindByID finds a focus group with its questionnaire loaded
func (r *MemoryFocusGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.FocusGroup, error) {
	r.mu.RLock()
	stored, ok := r.groups[id]
	r.mu.RUnlock()
	if !ok {
		return nil, entities.ErrFocusGroupNotFound
	}

	fg := cloneFocusGroup(stored)
	if r.questionnaires != nil {
		if q, err := r.questionnaires.FindByID(ctx, fg.QuestionnaireID); err == nil {
			fg.Questionnaire = q
		}
	}
	return fg, nil
}

// FindByMeetingID finds the focus group bound to a meeting room
func (r *MemoryFocusGroupRepository) FindByMeetingID(ctx context.Context, meetingID string) (*entities.FocusGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fg := range r.groups {
		if fg.MeetingID == meetingID {
			return cloneFocusGroup(fg), nil
		}
	}
	return nil, entities.ErrFocusGroupNotFound
}

// ListByOwner lists focus groups of a user, latest scheduled first
func (r *MemoryFocusGroupRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*entities.FocusGroup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*entities.FocusGroup
	for _, fg := range r.groups {
		if fg.CreatedBy == ownerID {
			out = append(out, cloneFocusGroup(fg))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	return out, nil
}

func cloneFocusGroup(fg *entities.FocusGroup) *entities.FocusGroup {
	out := *fg
	out.Participants = append([]entities.FocusGroupParticipant(nil), fg.Participants...)
	out.Questionnaire = cloneQuestionnaire(fg.Questionnaire)
	return &out
}

func cloneQuestionnaire(q *entities.Questionnaire) *entities.Questionnaire {
	if q == nil {
		return nil
	}
	out := *q
	out.Questions = append([]entities.Question(nil), q.Questions...)
	return &out
}
