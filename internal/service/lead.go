package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
	domainerrors "github.com/leadtrackapp/leadtrack-server/internal/errors"
	"github.com/leadtrackapp/leadtrack-server/internal/id"
	"github.com/leadtrackapp/leadtrack-server/internal/mail"
	"github.com/leadtrackapp/leadtrack-server/internal/store"
	"github.com/leadtrackapp/leadtrack-server/internal/validation"
)

// PageSize is the fixed number of leads per listing page.
const PageSize = 20

// User-facing flash messages.
const (
	MsgLeadCreated = "Lead criado com sucesso ✔️"
	MsgLeadUpdated = "Lead atualizado com sucesso ✔️"
	MsgLeadDeleted = "Lead removido ✔️"
)

// MsgImportDone formats the flash message for a finished import.
func MsgImportDone(count int) string {
	return fmt.Sprintf("Importação concluída: %d leads ✔️", count)
}

// LeadService handles lead CRUD, listing, and the creation notification.
type LeadService struct {
	store     *store.Store
	mailer    mail.Sender
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLeadService creates a new lead service.
func NewLeadService(s *store.Store, mailer mail.Sender, v *validation.Validator, logger *slog.Logger) *LeadService {
	return &LeadService{store: s, mailer: mailer, validator: v, logger: logger}
}

// LeadInput is the create/update payload for a lead.
// Value is the monetary amount as entered, accepting both "1234.56"
// and "1234,56".
type LeadInput struct {
	Name    string   `json:"name" validate:"required,max=120"`
	Email   string   `json:"email" validate:"omitempty,email,max=254"`
	Phone   string   `json:"phone" validate:"max=30"`
	Company string   `json:"company" validate:"max=120"`
	Status  string   `json:"status" validate:"omitempty,oneof=NEW QLF WON LST CLD"`
	Source  string   `json:"source" validate:"omitempty,oneof=WEB ADS REF EVT OTH"`
	OwnerID string   `json:"owner_id"`
	Value   string   `json:"value"`
	Tags    []string `json:"tags" validate:"dive,max=50"`
	Notes   string   `json:"notes"`
}

// ListParams narrows the lead listing. Page is 1-based.
type ListParams struct {
	Query   string
	Status  string
	Source  string
	TagID   string
	OwnerID string
	Page    int
}

// LeadPage is one page of leads plus everything the list screen needs
// to render its filter bar.
type LeadPage struct {
	Leads      []*domain.Lead  `json:"leads"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalCount int             `json:"total_count"`
	TotalPages int             `json:"total_pages"`
	Tags       []*domain.Tag   `json:"tags"`
	Owners     []*domain.User  `json:"owners"`
	Statuses   []domain.Choice `json:"statuses"`
	Sources    []domain.Choice `json:"sources"`
}

// filter converts list params to a store filter, without pagination.
func (p ListParams) filter() store.LeadFilter {
	return store.LeadFilter{
		Query:   strings.TrimSpace(p.Query),
		Status:  domain.Status(p.Status),
		Source:  domain.Source(p.Source),
		TagID:   p.TagID,
		OwnerID: p.OwnerID,
	}
}

// List returns one page of leads matching the params, newest first.
func (s *LeadService) List(ctx context.Context, params ListParams) (*LeadPage, error) {
	page := params.Page
	if page < 1 {
		page = 1
	}

	filter := params.filter()

	total, err := s.store.CountLeads(ctx, filter)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "count leads")
	}

	totalPages := (total + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	filter.Limit = PageSize
	filter.Offset = (page - 1) * PageSize

	leads, err := s.store.ListLeads(ctx, filter)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list leads")
	}

	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list tags")
	}
	owners, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list users")
	}

	return &LeadPage{
		Leads:      leads,
		Page:       page,
		PageSize:   PageSize,
		TotalCount: total,
		TotalPages: totalPages,
		Tags:       tags,
		Owners:     owners,
		Statuses:   domain.StatusChoices(),
		Sources:    domain.SourceChoices(),
	}, nil
}

// Get returns a single lead by ID.
func (s *LeadService) Get(ctx context.Context, leadID string) (*domain.Lead, error) {
	lead, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, mapLeadStoreErr(err)
	}
	return lead, nil
}

// Create validates the input, stores the lead, and notifies the actor
// by email. The notification is best-effort: delivery failures are
// logged and never fail the request.
func (s *LeadService) Create(ctx context.Context, actor *domain.User, input LeadInput) (*domain.Lead, error) {
	lead, err := s.leadFromInput(actor, input)
	if err != nil {
		return nil, err
	}
	lead.ID = id.MustGenerate("lead")
	now := time.Now().UTC()
	lead.CreatedAt = now
	lead.UpdatedAt = now

	if err := s.store.CreateLead(ctx, lead, input.Tags); err != nil {
		return nil, mapLeadStoreErr(err)
	}
	lead.OwnerUsername = s.ownerUsername(ctx, lead.OwnerID)

	s.logger.Info("lead created", "lead_id", lead.ID, "name", lead.Name, "by", actor.Username)
	s.notifyCreated(ctx, actor, lead)

	return lead, nil
}

// Update validates the input and replaces the lead's fields and tag set.
func (s *LeadService) Update(ctx context.Context, actor *domain.User, leadID string, input LeadInput) (*domain.Lead, error) {
	existing, err := s.store.GetLead(ctx, leadID)
	if err != nil {
		return nil, mapLeadStoreErr(err)
	}

	lead, err := s.leadFromInput(actor, input)
	if err != nil {
		return nil, err
	}
	lead.ID = existing.ID
	lead.CreatedAt = existing.CreatedAt
	lead.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateLead(ctx, lead, input.Tags); err != nil {
		return nil, mapLeadStoreErr(err)
	}
	lead.OwnerUsername = s.ownerUsername(ctx, lead.OwnerID)

	s.logger.Info("lead updated", "lead_id", lead.ID, "by", actor.Username)
	return lead, nil
}

// Delete removes a lead.
func (s *LeadService) Delete(ctx context.Context, actor *domain.User, leadID string) error {
	if err := s.store.DeleteLead(ctx, leadID); err != nil {
		return mapLeadStoreErr(err)
	}
	s.logger.Info("lead deleted", "lead_id", leadID, "by", actor.Username)
	return nil
}

// FormOptions is what the create/edit screens need to render their
// selects: every tag, every possible owner, and the two choice lists.
type FormOptions struct {
	Tags     []*domain.Tag   `json:"tags"`
	Owners   []*domain.User  `json:"owners"`
	Statuses []domain.Choice `json:"statuses"`
	Sources  []domain.Choice `json:"sources"`
}

// FormOptions returns the select options for the lead form.
func (s *LeadService) FormOptions(ctx context.Context) (*FormOptions, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list tags")
	}
	owners, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list users")
	}
	return &FormOptions{
		Tags:     tags,
		Owners:   owners,
		Statuses: domain.StatusChoices(),
		Sources:  domain.SourceChoices(),
	}, nil
}

// Tags returns all known tags, for the filter bar and the tag picker.
func (s *LeadService) Tags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "list tags")
	}
	return tags, nil
}

// leadFromInput validates and converts input to a lead, applying the
// NEW/OTH defaults for blank status and source.
func (s *LeadService) leadFromInput(actor *domain.User, input LeadInput) (*domain.Lead, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, err
	}

	valueCents := int64(0)
	if strings.TrimSpace(input.Value) != "" {
		var err error
		valueCents, err = domain.ParseMoneyCents(input.Value)
		if err != nil {
			return nil, domainerrors.ValidationWithDetails("validation failed",
				map[string]string{"value": "must be a monetary amount"})
		}
	}

	status := domain.Status(input.Status)
	if status == "" {
		status = domain.StatusNew
	}
	source := domain.Source(input.Source)
	if source == "" {
		source = domain.SourceOther
	}

	ownerID := input.OwnerID
	if ownerID == "" && actor != nil {
		ownerID = actor.ID
	}

	return &domain.Lead{
		Name:       strings.TrimSpace(input.Name),
		Email:      strings.TrimSpace(input.Email),
		Phone:      strings.TrimSpace(input.Phone),
		Company:    strings.TrimSpace(input.Company),
		Status:     status,
		Source:     source,
		OwnerID:    ownerID,
		ValueCents: valueCents,
		Notes:      input.Notes,
	}, nil
}

// notifyCreated mails the actor about the new lead, if they have an address.
func (s *LeadService) notifyCreated(ctx context.Context, actor *domain.User, lead *domain.Lead) {
	if actor == nil || actor.Email == "" {
		return
	}

	subject := "Novo Lead: " + lead.Name
	body := fmt.Sprintf("Lead criado por %s:\n%s - %s - %s\nStatus: %s | Fonte: %s",
		actor.Username,
		lead.Name, lead.Email, lead.Company,
		lead.Status.Label(), lead.Source.Label(),
	)

	if err := s.mailer.Send(ctx, actor.Email, subject, body); err != nil {
		s.logger.Warn("lead notification failed", "lead_id", lead.ID, "to", actor.Email, "error", err)
	}
}

// ownerUsername resolves an owner ID for denormalized display after writes.
func (s *LeadService) ownerUsername(ctx context.Context, ownerID string) string {
	if ownerID == "" {
		return ""
	}
	owner, err := s.store.GetUser(ctx, ownerID)
	if err != nil {
		return ""
	}
	return owner.Username
}

// mapLeadStoreErr converts store errors to domain errors.
func mapLeadStoreErr(err error) error {
	switch err {
	case store.ErrNotFound:
		return domainerrors.NotFound("lead not found")
	case store.ErrAlreadyExists:
		return domainerrors.AlreadyExists("a lead with this email and company already exists")
	default:
		if storeErr, ok := err.(*store.Error); ok && storeErr.Code == 409 {
			return domainerrors.AlreadyExists(storeErr.Message)
		}
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "lead storage")
	}
}
