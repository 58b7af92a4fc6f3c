package store

import (
	"context"
	"iter"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
)

// StreamLeads returns an iterator over all leads matching the filter,
// newest first and ignoring pagination. Tags are loaded for each lead.
// Used by CSV export, which must cover the full filtered set.
func (s *Store) StreamLeads(ctx context.Context, filter LeadFilter) iter.Seq2[*domain.Lead, error] {
	filter.Limit = 0
	filter.Offset = 0
	query, args := leadSelectQuery(filter)

	return func(yield func(*domain.Lead, error) bool) {
		rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			l, err := scanLead(rows)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}

			if err := s.loadLeadTags(ctx, s.db, []*domain.Lead{l}); err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}

			if !yield(l, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}
