package service

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
	domainerrors "github.com/leadtrackapp/leadtrack-server/internal/errors"
)

// csvHeader is the fixed column order of exported files.
// Imports accept any column order; this is only what we write.
var csvHeader = []string{
	"name", "email", "phone", "company", "status", "source",
	"owner", "value", "tags", "notes", "created_at",
}

// csvTimeLayout is the created_at format in exported files.
const csvTimeLayout = "2006-01-02 15:04:05"

// ExportCSV streams all leads matching the params to w as UTF-8 CSV,
// ignoring pagination. A BOM is written first so spreadsheet apps pick
// the right encoding. Status and source are exported as display labels.
func (s *LeadService) ExportCSV(ctx context.Context, w io.Writer, params ListParams) error {
	if _, err := io.WriteString(w, "\ufeff"); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "write BOM")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "write header")
	}

	for lead, err := range s.store.StreamLeads(ctx, params.filter()) {
		if err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "stream leads")
		}
		if err := cw.Write(exportRecord(lead)); err != nil {
			return domainerrors.Wrap(err, domainerrors.CodeInternal, "write record")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return domainerrors.Wrap(err, domainerrors.CodeInternal, "flush csv")
	}
	return nil
}

// exportRecord renders one lead as a CSV row.
func exportRecord(l *domain.Lead) []string {
	return []string{
		l.Name,
		l.Email,
		l.Phone,
		l.Company,
		l.Status.Label(),
		l.Source.Label(),
		l.OwnerUsername,
		domain.FormatMoneyCents(l.ValueCents),
		strings.Join(l.TagNames(), ", "),
		flattenNotes(l.Notes),
		l.CreatedAt.UTC().Format(csvTimeLayout),
	}
}

// flattenNotes collapses line breaks so every lead stays on one CSV row
// even for readers that do not handle quoted newlines.
func flattenNotes(notes string) string {
	notes = strings.ReplaceAll(notes, "\r\n", " ")
	notes = strings.ReplaceAll(notes, "\n", " ")
	notes = strings.ReplaceAll(notes, "\r", " ")
	return notes
}
