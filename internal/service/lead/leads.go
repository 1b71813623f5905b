// internal/service/lead/leads.go
package lead

import (
	"context"
	"strings"
	"time"

	"crm-service/internal/domain/lead"
	"crm-service/internal/domain/user"
	"crm-service/internal/events"
	xerrors "crm-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Repository is the persistence surface the service needs. Implemented by
// postgres.LeadRepository; faked in tests.
type Repository interface {
	Insert(ctx context.Context, l *lead.Lead) error
	FindByID(ctx context.Context, id string) (*lead.Lead, error)
	List(ctx context.Context, q lead.ListQuery) ([]lead.Lead, int64, error)
	Update(ctx context.Context, l *lead.Lead) error
	Delete(ctx context.Context, id string) error

	InsertNote(ctx context.Context, leadID string, n *lead.Note) error
	ListNotes(ctx context.Context, leadID string) ([]lead.Note, error)
	DeleteNote(ctx context.Context, leadID, noteID string, now time.Time) error

	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	CountByStatus(ctx context.Context) (map[lead.Status]int64, error)
	CountBySource(ctx context.Context) (map[lead.Source]int64, error)
}

// UserResolver resolves identity references for attribution. Implemented by
// postgres.UserRepository.
type UserResolver interface {
	FindRefsByIDs(ctx context.Context, ids []string) (map[string]user.Ref, error)
}

// Publisher receives lead lifecycle events for the dashboard feed.
type Publisher interface {
	Publish(event events.Event)
}

type Service struct {
	repo   Repository
	users  UserResolver
	events Publisher
	logger *zap.Logger
}

func NewService(repo Repository, users UserResolver, publisher Publisher, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		events: publisher,
		logger: logger,
	}
}

// parseLeadID rejects syntactically invalid identifiers. A malformed id and
// a missing lead are deliberately the same outcome for callers.
func parseLeadID(id string) error {
	if _, err := ulid.Parse(id); err != nil {
		return xerrors.ErrNotFound
	}
	return nil
}

// Create validates and persists a new lead on behalf of actorID.
func (s *Service) Create(ctx context.Context, req *lead.CreateLeadRequest, actorID string) (*lead.Lead, error) {
	l, err := s.buildLead(req)
	if err != nil {
		return nil, err
	}

	if actorID != "" {
		l.CreatedByID = &actorID
	}

	if err := s.repo.Insert(ctx, l); err != nil {
		s.logger.Error("failed to create lead", zap.Error(err))
		return nil, err
	}

	s.logger.Info("lead created",
		zap.String("lead_id", l.ID),
		zap.String("status", string(l.Status)),
		zap.String("source", string(l.Source)),
	)

	if err := s.resolveRefs(ctx, []*lead.Lead{l}); err != nil {
		return nil, err
	}

	s.publish(events.EventLeadCreated, l)
	return l, nil
}

// CreatePublic handles the unauthenticated intake form. The status is
// forced to new regardless of input and no creator is recorded.
func (s *Service) CreatePublic(ctx context.Context, req *lead.CreateLeadRequest) (*lead.Lead, error) {
	intake := &lead.CreateLeadRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Company: req.Company,
		Message: req.Message,
		Source:  req.Source,
	}

	l, err := s.buildLead(intake)
	if err != nil {
		return nil, err
	}
	l.Status = lead.StatusNew
	l.ConvertedAt = nil

	if err := s.repo.Insert(ctx, l); err != nil {
		s.logger.Error("failed to create public lead", zap.Error(err))
		return nil, err
	}

	s.logger.Info("public lead created", zap.String("lead_id", l.ID), zap.String("source", string(l.Source)))

	s.publish(events.EventLeadCreated, l)
	return l, nil
}

// Get retrieves one lead with notes and every reference resolved.
func (s *Service) Get(ctx context.Context, id string) (*lead.Lead, error) {
	if err := parseLeadID(id); err != nil {
		return nil, err
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.ListNotes(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Notes = notes

	if err := s.resolveRefs(ctx, []*lead.Lead{l}); err != nil {
		return nil, err
	}

	return l, nil
}

// List returns one page of leads matching the filter, with assignee and
// creator references resolved, plus pagination metadata computed over the
// full match count.
func (s *Service) List(ctx context.Context, q lead.ListQuery) (*lead.ListResponse, error) {
	q = q.Normalized()

	leads, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*lead.Lead, len(leads))
	for i := range leads {
		ptrs[i] = &leads[i]
	}
	if err := s.resolveRefs(ctx, ptrs); err != nil {
		return nil, err
	}

	pages := 0
	if total > 0 {
		pages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}

	return &lead.ListResponse{
		Leads: leads,
		Pagination: lead.Pagination{
			Current: q.Page,
			Pages:   pages,
			Total:   total,
			Limit:   q.Limit,
		},
	}, nil
}

// Update merge-updates the supplied fields, re-validating the result and
// re-evaluating the converted_at rule when status is among them.
func (s *Service) Update(ctx context.Context, id string, req *lead.UpdateLeadRequest) (*lead.Lead, error) {
	if err := parseLeadID(id); err != nil {
		return nil, err
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	prevStatus := l.Status

	if req.Name != nil {
		l.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		l.Email = normalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		l.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Company != nil {
		l.Company = strings.TrimSpace(*req.Company)
	}
	if req.Message != nil {
		l.Message = strings.TrimSpace(*req.Message)
	}
	if req.Value != nil {
		l.Value = *req.Value
	}
	if req.Source != nil {
		l.Source = lead.Source(*req.Source)
	}
	if req.Status != nil {
		l.Status = lead.Status(*req.Status)
	}
	if req.FollowUpDate != nil {
		l.FollowUpDate = req.FollowUpDate
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			l.AssignedToID = nil
		} else {
			l.AssignedToID = req.AssignedTo
		}
	}

	if err := validateLead(l); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	applyConversion(l, now)
	l.UpdatedAt = now

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	if err := s.resolveRefs(ctx, []*lead.Lead{l}); err != nil {
		return nil, err
	}

	if l.Status != prevStatus {
		s.publish(events.EventLeadStatusChanged, l)
	}

	return l, nil
}

// UpdateStatus moves a lead through the pipeline. An unknown status is
// rejected before anything is read or written.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*lead.Lead, error) {
	if !lead.Status(status).Valid() {
		return nil, xerrors.NewValidation("status", "invalid status")
	}

	if err := parseLeadID(id); err != nil {
		return nil, err
	}

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	l.Status = lead.Status(status)

	now := time.Now().UTC()
	applyConversion(l, now)
	l.UpdatedAt = now

	if err := s.repo.Update(ctx, l); err != nil {
		return nil, err
	}

	s.logger.Info("lead status updated", zap.String("lead_id", l.ID), zap.String("status", status))

	if err := s.resolveRefs(ctx, []*lead.Lead{l}); err != nil {
		return nil, err
	}

	s.publish(events.EventLeadStatusChanged, l)
	return l, nil
}

// AddNote prepends a note to the lead's history.
func (s *Service) AddNote(ctx context.Context, leadID, content, actorID string) (*lead.Lead, error) {
	if err := parseLeadID(leadID); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, xerrors.NewValidation("content", "note content is required")
	}

	if _, err := s.repo.FindByID(ctx, leadID); err != nil {
		return nil, err
	}

	note := &lead.Note{
		ID:          ulid.Make().String(),
		Content:     content,
		CreatedByID: actorID,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.InsertNote(ctx, leadID, note); err != nil {
		return nil, err
	}

	return s.Get(ctx, leadID)
}

// DeleteNote removes one note. A missing lead and a missing note are
// distinct outcomes.
func (s *Service) DeleteNote(ctx context.Context, leadID, noteID string) error {
	if err := parseLeadID(leadID); err != nil {
		return err
	}

	if _, err := s.repo.FindByID(ctx, leadID); err != nil {
		return err
	}

	if _, err := ulid.Parse(noteID); err != nil {
		return xerrors.ErrNoteNotFound
	}

	return s.repo.DeleteNote(ctx, leadID, noteID, time.Now().UTC())
}

// Delete removes a lead and everything it owns.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := parseLeadID(id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("lead deleted", zap.String("lead_id", id))

	s.publish(events.EventLeadDeleted, &lead.Lead{ID: id})
	return nil
}

// buildLead turns a creation request into a validated entity with defaults
// applied and identifiers/timestamps assigned.
func (s *Service) buildLead(req *lead.CreateLeadRequest) (*lead.Lead, error) {
	now := time.Now().UTC()

	l := &lead.Lead{
		ID:           ulid.Make().String(),
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		Phone:        strings.TrimSpace(req.Phone),
		Company:      strings.TrimSpace(req.Company),
		Message:      strings.TrimSpace(req.Message),
		Source:       lead.SourceWebsite,
		Status:       lead.StatusNew,
		FollowUpDate: req.FollowUpDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.Value != nil {
		l.Value = *req.Value
	}
	if req.Source != "" {
		l.Source = lead.Source(req.Source)
	}
	if req.Status != "" {
		l.Status = lead.Status(req.Status)
	}
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		l.AssignedToID = req.AssignedTo
	}

	if err := validateLead(l); err != nil {
		return nil, err
	}

	applyConversion(l, now)
	return l, nil
}

// applyConversion sets converted_at the first time a lead reaches the
// converted status. Once set it is never changed.
func applyConversion(l *lead.Lead, now time.Time) {
	if l.Status == lead.StatusConverted && l.ConvertedAt == nil {
		t := now
		l.ConvertedAt = &t
	}
}

func (s *Service) publish(eventType string, l *lead.Lead) {
	if s.events == nil {
		return
	}
	s.events.Publish(events.Event{
		Type:   eventType,
		LeadID: l.ID,
		Lead:   l,
		At:     time.Now().UTC(),
	})
}

// resolveRefs batches one user lookup for every reference held by the given
// leads and fills in the {id, name, email} projections.
func (s *Service) resolveRefs(ctx context.Context, leads []*lead.Lead) error {
	seen := map[string]bool{}
	ids := []string{}

	add := func(id *string) {
		if id != nil && *id != "" && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}

	for _, l := range leads {
		add(l.AssignedToID)
		add(l.CreatedByID)
		for i := range l.Notes {
			add(&l.Notes[i].CreatedByID)
		}
	}

	refs, err := s.users.FindRefsByIDs(ctx, ids)
	if err != nil {
		return err
	}

	for _, l := range leads {
		if l.AssignedToID != nil {
			if ref, ok := refs[*l.AssignedToID]; ok {
				l.AssignedTo = &ref
			}
		}
		if l.CreatedByID != nil {
			if ref, ok := refs[*l.CreatedByID]; ok {
				l.CreatedBy = &ref
			}
		}
		for i := range l.Notes {
			if ref, ok := refs[l.Notes[i].CreatedByID]; ok {
				l.Notes[i].CreatedBy = &ref
			}
		}
	}

	return nil
}
