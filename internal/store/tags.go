package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
	"github.com/leadtrackapp/leadtrack-server/internal/id"
)

// maxTagNameLen caps tag names at 50 characters.
const maxTagNameLen = 50

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var createdAt string

	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// CreateTag inserts a new tag into the database.
// Returns ErrAlreadyExists on duplicate name.
func (s *Store) CreateTag(ctx context.Context, t *domain.Tag) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO tags (id, name, created_at)
		VALUES (?, ?, ?)`),
		t.ID,
		t.Name,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetTagByName retrieves a tag by its exact name.
// Returns ErrNotFound if the tag does not exist.
func (s *Store) GetTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+tagColumns+` FROM tags WHERE name = ?`), name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if tags == nil {
		tags = []*domain.Tag{}
	}

	return tags, nil
}

// FindOrCreateTagByName finds an existing tag by exact name or creates a new one.
// Returns (tag, created, error) where created is true if a new tag was made.
func (s *Store) FindOrCreateTagByName(ctx context.Context, name string) (*domain.Tag, bool, error) {
	return findOrCreateTag(ctx, s, s.db, name)
}

// findOrCreateTag is the shared implementation, usable inside a transaction.
func findOrCreateTag(ctx context.Context, s *Store, q dbtx, name string) (*domain.Tag, bool, error) {
	// Overlong names (lenient CSV imports pass them through) are truncated
	// before the lookup so repeats still resolve to the same tag.
	if runes := []rune(name); len(runes) > maxTagNameLen {
		name = string(runes[:maxTagNameLen])
	}

	row := q.QueryRowContext(ctx,
		s.rebind(`SELECT `+tagColumns+` FROM tags WHERE name = ?`), name)
	existing, err := scanTag(row)
	if err == nil {
		return existing, false, nil
	}
	if err != sql.ErrNoRows {
		return nil, false, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, false, fmt.Errorf("generate tag id: %w", err)
	}

	t := &domain.Tag{
		ID:        tagID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err = q.ExecContext(ctx, s.rebind(`
		INSERT INTO tags (id, name, created_at)
		VALUES (?, ?, ?)`),
		t.ID,
		t.Name,
		formatTime(t.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			// Race: another writer created it between our select and insert.
			row := q.QueryRowContext(ctx,
				s.rebind(`SELECT `+tagColumns+` FROM tags WHERE name = ?`), name)
			existing, err := scanTag(row)
			if err != nil {
				return nil, false, err
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	return t, true, nil
}
