package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
	domainerrors "github.com/leadtrackapp/leadtrack-server/internal/errors"
	"github.com/leadtrackapp/leadtrack-server/internal/id"
	"github.com/leadtrackapp/leadtrack-server/internal/store"
)

// ImportCSV reads leads from r and inserts them in a single transaction.
// The actor becomes the owner of every imported lead.
//
// Parsing is deliberately forgiving, matching what field teams actually
// upload: invalid UTF-8 bytes are dropped, a leading BOM is stripped,
// columns may come in any order, unparseable values become 0, and blank
// status/source fall back to NEW/OTH. A duplicate (email, company)
// anywhere in the file aborts the whole import.
//
// Returns the number of leads created.
func (s *LeadService) ImportCSV(ctx context.Context, actor *domain.User, r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "read upload")
	}

	text := strings.ToValidUTF8(string(data), "")
	text = strings.TrimPrefix(text, "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return 0, domainerrors.Validation("file is empty")
	}
	if err != nil {
		return 0, domainerrors.Validation(fmt.Sprintf("unreadable CSV header: %v", err))
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var imports []store.LeadImport
	now := time.Now().UTC()
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, domainerrors.Validation(fmt.Sprintf("unreadable CSV row %d: %v", rowNum+1, err))
		}
		rowNum++

		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		status := domain.Status(get("status"))
		if status == "" {
			status = domain.StatusNew
		}
		source := domain.Source(get("source"))
		if source == "" {
			source = domain.SourceOther
		}

		// Bad numbers import as zero rather than failing the file.
		valueCents, err := domain.ParseMoneyCents(get("value"))
		if err != nil {
			valueCents = 0
		}

		var ownerID string
		if actor != nil {
			ownerID = actor.ID
		}

		imports = append(imports, store.LeadImport{
			Lead: &domain.Lead{
				ID:         id.MustGenerate("lead"),
				Name:       get("name"),
				Email:      get("email"),
				Phone:      get("phone"),
				Company:    get("company"),
				Status:     status,
				Source:     source,
				OwnerID:    ownerID,
				ValueCents: valueCents,
				Notes:      get("notes"),
				CreatedAt:  now,
				UpdatedAt:  now,
			},
			TagNames: splitTags(get("tags")),
		})
	}

	if len(imports) == 0 {
		return 0, nil
	}

	count, err := s.store.ImportLeads(ctx, imports)
	if err != nil {
		if storeErr, ok := err.(*store.Error); ok && storeErr.HTTPCode() == store.ErrAlreadyExists.Code {
			return 0, domainerrors.AlreadyExists(storeErr.Message)
		}
		return 0, domainerrors.Wrap(err, domainerrors.CodeInternal, "import leads")
	}

	if actor != nil {
		s.logger.Info("leads imported", "count", count, "by", actor.Username)
	} else {
		s.logger.Info("leads imported", "count", count)
	}
	return count, nil
}

// splitTags parses a comma-separated tag list, dropping blanks.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
