package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
)

// leadColumns is the ordered list of columns selected in lead queries.
// Must match the scan order in scanLead. Owner username is denormalized
// via a LEFT JOIN on users.
const leadColumns = `l.id, l.name, l.email, l.phone, l.company, l.status, l.source,
	l.owner_id, l.value_cents, l.notes, l.created_at, l.updated_at, u.username`

// scanLead scans a sql.Row (or sql.Rows via its Scan method) into a domain.Lead.
// Tags are left nil; callers load them separately.
func scanLead(scanner interface{ Scan(dest ...any) error }) (*domain.Lead, error) {
	var l domain.Lead

	var (
		ownerID       sql.NullString
		ownerUsername sql.NullString
		createdAt     string
		updatedAt     string
	)

	err := scanner.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Company,
		&l.Status,
		&l.Source,
		&ownerID,
		&l.ValueCents,
		&l.Notes,
		&createdAt,
		&updatedAt,
		&ownerUsername,
	)
	if err != nil {
		return nil, err
	}

	if ownerID.Valid {
		l.OwnerID = ownerID.String
	}
	if ownerUsername.Valid {
		l.OwnerUsername = ownerUsername.String
	}

	l.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	l.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &l, nil
}

// LeadFilter narrows lead listings. Zero values mean "no filter".
// Query matches case-insensitively against name, email, company, phone,
// and notes. Limit <= 0 disables pagination.
type LeadFilter struct {
	Query   string
	Status  domain.Status
	Source  domain.Source
	TagID   string
	OwnerID string
	Limit   int
	Offset  int
}

// likeEscaper makes LIKE metacharacters in user input match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// buildLeadWhere assembles the WHERE clause and args for a filter.
// Returns the clause (without the WHERE keyword), the args, and whether
// the lead_tags join is needed.
func buildLeadWhere(filter LeadFilter) (clause string, args []any, joinTags bool) {
	var conds []string

	if filter.Query != "" {
		like := "%" + escapeLike(strings.ToLower(filter.Query)) + "%"
		conds = append(conds, `(LOWER(l.name) LIKE ? ESCAPE '\' OR LOWER(l.email) LIKE ? ESCAPE '\' OR
			LOWER(l.company) LIKE ? ESCAPE '\' OR LOWER(l.phone) LIKE ? ESCAPE '\' OR LOWER(l.notes) LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like, like, like)
	}
	if filter.Status != "" {
		conds = append(conds, `l.status = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		conds = append(conds, `l.source = ?`)
		args = append(args, string(filter.Source))
	}
	if filter.OwnerID != "" {
		conds = append(conds, `l.owner_id = ?`)
		args = append(args, filter.OwnerID)
	}
	if filter.TagID != "" {
		joinTags = true
		conds = append(conds, `lt.tag_id = ?`)
		args = append(args, filter.TagID)
	}

	return strings.Join(conds, " AND "), args, joinTags
}

// leadSelectQuery builds the full SELECT for a filter, newest first.
func leadSelectQuery(filter LeadFilter) (string, []any) {
	clause, args, joinTags := buildLeadWhere(filter)

	query := `SELECT DISTINCT ` + leadColumns + `
		FROM leads l
		LEFT JOIN users u ON u.id = l.owner_id`
	if joinTags {
		query += `
		JOIN lead_tags lt ON lt.lead_id = l.id`
	}
	if clause != "" {
		query += `
		WHERE ` + clause
	}
	query += `
		ORDER BY l.created_at DESC, l.id DESC`

	if filter.Limit > 0 {
		query += `
		LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	return query, args
}

// ListLeads returns leads matching the filter, newest first, with tags loaded.
func (s *Store) ListLeads(ctx context.Context, filter LeadFilter) ([]*domain.Lead, error) {
	query, args := leadSelectQuery(filter)

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*domain.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if leads == nil {
		leads = []*domain.Lead{}
	}

	if err := s.loadLeadTags(ctx, s.db, leads); err != nil {
		return nil, err
	}

	return leads, nil
}

// CountLeads returns the number of leads matching the filter, ignoring pagination.
func (s *Store) CountLeads(ctx context.Context, filter LeadFilter) (int, error) {
	clause, args, joinTags := buildLeadWhere(filter)

	query := `SELECT COUNT(DISTINCT l.id) FROM leads l`
	if joinTags {
		query += ` JOIN lead_tags lt ON lt.lead_id = l.id`
	}
	if clause != "" {
		query += ` WHERE ` + clause
	}

	var count int
	err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetLead retrieves a lead by ID with tags loaded.
// Returns ErrNotFound if the lead does not exist.
func (s *Store) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`
		SELECT `+leadColumns+`
		FROM leads l
		LEFT JOIN users u ON u.id = l.owner_id
		WHERE l.id = ?`), id)

	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadLeadTags(ctx, s.db, []*domain.Lead{l}); err != nil {
		return nil, err
	}

	return l, nil
}

// CreateLead inserts a new lead and attaches the named tags, creating any
// that do not exist yet, all in one transaction.
// Returns ErrAlreadyExists when (email, company) is already taken.
func (s *Store) CreateLead(ctx context.Context, l *domain.Lead, tagNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := s.insertLead(ctx, tx, l, tagNames); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	// Reflect attached tags on the returned lead.
	return s.loadLeadTags(ctx, s.db, []*domain.Lead{l})
}

// insertLead writes the lead row and its tag attachments inside q.
func (s *Store) insertLead(ctx context.Context, q dbtx, l *domain.Lead, tagNames []string) error {
	_, err := q.ExecContext(ctx, s.rebind(`
		INSERT INTO leads (id, name, email, phone, company, status, source,
			owner_id, value_cents, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		l.ID,
		l.Name,
		l.Email,
		l.Phone,
		l.Company,
		string(l.Status),
		string(l.Source),
		nullString(l.OwnerID),
		l.ValueCents,
		l.Notes,
		formatTime(l.CreatedAt),
		formatTime(l.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}

	return s.attachTags(ctx, q, l.ID, tagNames)
}

// attachTags resolves tag names and inserts lead_tags rows.
// Duplicate names in the input collapse to one attachment.
func (s *Store) attachTags(ctx context.Context, q dbtx, leadID string, tagNames []string) error {
	seen := make(map[string]bool, len(tagNames))
	now := time.Now().UTC()
	for _, name := range tagNames {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		t, _, err := findOrCreateTag(ctx, s, q, name)
		if err != nil {
			return fmt.Errorf("resolve tag %q: %w", name, err)
		}

		_, err = q.ExecContext(ctx, s.rebind(`
			INSERT INTO lead_tags (lead_id, tag_id, created_at)
			VALUES (?, ?, ?)`),
			leadID,
			t.ID,
			formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("insert lead_tag: %w", err)
		}
	}
	return nil
}

// UpdateLead performs a full row update and replaces the lead's tag set.
// Returns ErrNotFound if the lead does not exist and ErrAlreadyExists
// when the new (email, company) collides with another lead.
func (s *Store) UpdateLead(ctx context.Context, l *domain.Lead, tagNames []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, s.rebind(`
		UPDATE leads SET
			name = ?,
			email = ?,
			phone = ?,
			company = ?,
			status = ?,
			source = ?,
			owner_id = ?,
			value_cents = ?,
			notes = ?,
			updated_at = ?
		WHERE id = ?`),
		l.Name,
		l.Email,
		l.Phone,
		l.Company,
		string(l.Status),
		string(l.Source),
		nullString(l.OwnerID),
		l.ValueCents,
		l.Notes,
		formatTime(l.UpdatedAt),
		l.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx,
		s.rebind(`DELETE FROM lead_tags WHERE lead_id = ?`), l.ID); err != nil {
		return fmt.Errorf("delete lead_tags: %w", err)
	}
	if err := s.attachTags(ctx, tx, l.ID, tagNames); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return s.loadLeadTags(ctx, s.db, []*domain.Lead{l})
}

// DeleteLead performs a hard delete of a lead by ID.
// Tag attachments cascade; the tags themselves are kept.
// Returns ErrNotFound if the lead does not exist.
func (s *Store) DeleteLead(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind(`DELETE FROM leads WHERE id = ?`), id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LeadImport pairs a lead row with the tag names to attach to it.
type LeadImport struct {
	Lead     *domain.Lead
	TagNames []string
}

// ImportLeads inserts all rows in a single transaction.
// Either every lead lands or none do; a duplicate (email, company)
// anywhere in the batch aborts the whole import with ErrAlreadyExists.
// Returns the number of leads created.
func (s *Store) ImportLeads(ctx context.Context, imports []LeadImport) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, imp := range imports {
		if err := s.insertLead(ctx, tx, imp.Lead, imp.TagNames); err != nil {
			if err == ErrAlreadyExists {
				return 0, ErrAlreadyExists.WithMessage(
					fmt.Sprintf("duplicate lead %q at row %d", imp.Lead.Name, i+1))
			}
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(imports), nil
}

// loadLeadTags populates Tags for each lead in one batched query.
// Tags come back in attachment order, then by name.
func (s *Store) loadLeadTags(ctx context.Context, q dbtx, leads []*domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	ids := make([]any, len(leads))
	placeholders := make([]string, len(leads))
	byID := make(map[string]*domain.Lead, len(leads))
	for i, l := range leads {
		ids[i] = l.ID
		placeholders[i] = "?"
		byID[l.ID] = l
		l.Tags = []*domain.Tag{}
	}

	rows, err := q.QueryContext(ctx, s.rebind(`
		SELECT lt.lead_id, t.id, t.name, t.created_at
		FROM lead_tags lt
		JOIN tags t ON t.id = lt.tag_id
		WHERE lt.lead_id IN (`+strings.Join(placeholders, ", ")+`)
		ORDER BY lt.created_at ASC, t.name ASC`), ids...)
	if err != nil {
		return fmt.Errorf("query lead_tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leadID string
		var t domain.Tag
		var createdAt string
		if err := rows.Scan(&leadID, &t.ID, &t.Name, &createdAt); err != nil {
			return fmt.Errorf("scan lead_tag: %w", err)
		}
		t.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return err
		}
		if l, ok := byID[leadID]; ok {
			l.Tags = append(l.Tags, &t)
		}
	}
	return rows.Err()
}
