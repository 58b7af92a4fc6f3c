package store

import (
	"context"
	"testing"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/domain"
)

func TestCreateAndGetLead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := newTestUser(t, s, "carlos")

	lead := newTestLead(t, s, &domain.Lead{
		Name:       "Ana Souza",
		Email:      "ana@acme.com",
		Phone:      "+55 11 99999-0001",
		Company:    "Acme",
		Status:     domain.StatusQualified,
		Source:     domain.SourceWebsite,
		OwnerID:    owner.ID,
		ValueCents: 80000,
		Notes:      "met at conference",
	}, "vip", "follow-up")

	got, err := s.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get lead: %v", err)
	}
	if got.Name != "Ana Souza" || got.Company != "Acme" {
		t.Errorf("unexpected lead: %+v", got)
	}
	if got.Status != domain.StatusQualified || got.Source != domain.SourceWebsite {
		t.Errorf("status/source not persisted: %s %s", got.Status, got.Source)
	}
	if got.ValueCents != 80000 {
		t.Errorf("value: got %d, want 80000", got.ValueCents)
	}
	if got.OwnerID != owner.ID || got.OwnerUsername != "carlos" {
		t.Errorf("owner not denormalized: %s %s", got.OwnerID, got.OwnerUsername)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %d", len(got.Tags))
	}
	if got.Tags[0].Name != "vip" && got.Tags[1].Name != "vip" {
		t.Errorf("vip tag missing: %v", got.TagNames())
	}
}

func TestGetLeadNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetLead(context.Background(), "lead-missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateLeadDuplicateEmailCompany(t *testing.T) {
	s := newTestStore(t)

	newTestLead(t, s, &domain.Lead{Name: "Ana", Email: "ana@acme.com", Company: "Acme"})

	dup := &domain.Lead{
		ID:        "lead-dup",
		Name:      "Ana Again",
		Email:     "ana@acme.com",
		Company:   "Acme",
		Status:    domain.StatusNew,
		Source:    domain.SourceOther,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.CreateLead(context.Background(), dup, nil); err != ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	// Same email at a different company is fine.
	newTestLead(t, s, &domain.Lead{Name: "Ana Elsewhere", Email: "ana@acme.com", Company: "Globex"})
}

func TestCreateLeadEmptyEmailNeverDuplicate(t *testing.T) {
	s := newTestStore(t)

	newTestLead(t, s, &domain.Lead{Name: "Walk-in One", Email: "", Company: "Acme"})
	newTestLead(t, s, &domain.Lead{Name: "Walk-in Two", Email: "", Company: "Acme"})

	count, err := s.CountLeads(context.Background(), LeadFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Errorf("both email-less leads should land, got %d", count)
	}
}

func TestListLeadsOrderNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newTestLead(t, s, &domain.Lead{Name: "Oldest", CreatedAt: base, UpdatedAt: base})
	newTestLead(t, s, &domain.Lead{Name: "Newest", CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base})
	newTestLead(t, s, &domain.Lead{Name: "Middle", CreatedAt: base.Add(time.Hour), UpdatedAt: base})

	leads, err := s.ListLeads(context.Background(), LeadFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 3 {
		t.Fatalf("expected 3 leads, got %d", len(leads))
	}
	if leads[0].Name != "Newest" || leads[1].Name != "Middle" || leads[2].Name != "Oldest" {
		t.Errorf("wrong order: %s, %s, %s", leads[0].Name, leads[1].Name, leads[2].Name)
	}
}

func TestListLeadsQueryFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestLead(t, s, &domain.Lead{Name: "Ana Souza", Email: "ana@acme.com", Company: "Acme"})
	newTestLead(t, s, &domain.Lead{Name: "Bruno Lima", Company: "Globex", Notes: "prefers ACME products"})
	newTestLead(t, s, &domain.Lead{Name: "Clara Reis", Phone: "+55 21 98888-0002"})

	// Case-insensitive match across name, company, and notes.
	leads, err := s.ListLeads(ctx, LeadFilter{Query: "acme"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "acme", len(leads))
	}

	// Phone match.
	leads, err = s.ListLeads(ctx, LeadFilter{Query: "98888"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 1 || leads[0].Name != "Clara Reis" {
		t.Errorf("phone search failed: %d results", len(leads))
	}

	// No match.
	leads, err = s.ListLeads(ctx, LeadFilter{Query: "zzz-nothing"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("expected no matches, got %d", len(leads))
	}
}

func TestListLeadsQueryWildcardsAreLiteral(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestLead(t, s, &domain.Lead{Name: "abcdef"})
	newTestLead(t, s, &domain.Lead{Name: "100% off"})
	newTestLead(t, s, &domain.Lead{Name: "a_b"})
	newTestLead(t, s, &domain.Lead{Name: "axb"})

	// % must not act as a LIKE wildcard.
	leads, err := s.ListLeads(ctx, LeadFilter{Query: "a%f"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 0 {
		t.Errorf("query %q matched %d leads, want 0", "a%f", len(leads))
	}

	// A literal % still finds names containing one.
	leads, err = s.ListLeads(ctx, LeadFilter{Query: "%"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 1 || leads[0].Name != "100% off" {
		t.Errorf("query %q: got %d leads, want just %q", "%", len(leads), "100% off")
	}

	// Same for underscore.
	leads, err = s.ListLeads(ctx, LeadFilter{Query: "a_b"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 1 || leads[0].Name != "a_b" {
		t.Errorf("query %q: got %d leads, want just %q", "a_b", len(leads), "a_b")
	}
}

func TestListLeadsOrderSubsecond(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Fractions where one rendered value is a prefix of the other.
	newTestLead(t, s, &domain.Lead{Name: "Older", CreatedAt: base.Add(100 * time.Millisecond), UpdatedAt: base})
	newTestLead(t, s, &domain.Lead{Name: "Newer", CreatedAt: base.Add(150 * time.Millisecond), UpdatedAt: base})

	leads, err := s.ListLeads(context.Background(), LeadFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 2 {
		t.Fatalf("expected 2 leads, got %d", len(leads))
	}
	if leads[0].Name != "Newer" || leads[1].Name != "Older" {
		t.Errorf("wrong order: %s, %s", leads[0].Name, leads[1].Name)
	}
}

func TestListLeadsFiltersCombine(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestLead(t, s, &domain.Lead{Name: "Won Web", Status: domain.StatusWon, Source: domain.SourceWebsite})
	newTestLead(t, s, &domain.Lead{Name: "Won Ref", Status: domain.StatusWon, Source: domain.SourceReferral})
	newTestLead(t, s, &domain.Lead{Name: "New Web", Status: domain.StatusNew, Source: domain.SourceWebsite})

	leads, err := s.ListLeads(ctx, LeadFilter{Status: domain.StatusWon, Source: domain.SourceWebsite})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 1 || leads[0].Name != "Won Web" {
		t.Errorf("conjunction filter failed: %d results", len(leads))
	}
}

func TestListLeadsTagFilterDistinct(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tagged := newTestLead(t, s, &domain.Lead{Name: "Tagged", Notes: "acme"}, "vip", "hot")
	newTestLead(t, s, &domain.Lead{Name: "Untagged"})

	vip, err := s.GetTagByName(ctx, "vip")
	if err != nil {
		t.Fatalf("get tag: %v", err)
	}

	leads, err := s.ListLeads(ctx, LeadFilter{TagID: vip.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 1 || leads[0].ID != tagged.ID {
		t.Errorf("tag filter failed: %d results", len(leads))
	}

	// Query matching a multi-tagged lead must not duplicate it.
	leads, err = s.ListLeads(ctx, LeadFilter{Query: "acme", TagID: ""})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(leads) != 1 {
		t.Errorf("expected distinct single result, got %d", len(leads))
	}
}

func TestListLeadsPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		newTestLead(t, s, &domain.Lead{
			Name:      "Lead " + string(rune('A'+i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base,
		})
	}

	page, err := s.ListLeads(ctx, LeadFilter{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected page of 2, got %d", len(page))
	}
	if page[0].Name != "Lead C" || page[1].Name != "Lead B" {
		t.Errorf("wrong page contents: %s, %s", page[0].Name, page[1].Name)
	}

	count, err := s.CountLeads(ctx, LeadFilter{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 5 {
		t.Errorf("count should ignore pagination, got %d", count)
	}
}

func TestUpdateLeadReplacesTags(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := newTestLead(t, s, &domain.Lead{Name: "Ana", Email: "ana@acme.com", Company: "Acme"}, "old-tag")

	lead.Status = domain.StatusWon
	lead.ValueCents = 123456
	lead.Touch()
	if err := s.UpdateLead(ctx, lead, []string{"won-deal", "q3"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusWon || got.ValueCents != 123456 {
		t.Errorf("update not persisted: %+v", got)
	}
	names := got.TagNames()
	if len(names) != 2 {
		t.Fatalf("expected 2 tags after replace, got %v", names)
	}
	for _, n := range names {
		if n == "old-tag" {
			t.Error("old tag should have been detached")
		}
	}

	// The detached tag itself survives.
	if _, err := s.GetTagByName(ctx, "old-tag"); err != nil {
		t.Errorf("detached tag should still exist: %v", err)
	}
}

func TestUpdateLeadNotFound(t *testing.T) {
	s := newTestStore(t)
	l := &domain.Lead{
		ID:        "lead-ghost",
		Name:      "Ghost",
		Status:    domain.StatusNew,
		Source:    domain.SourceOther,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.UpdateLead(context.Background(), l, nil); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateLeadDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	newTestLead(t, s, &domain.Lead{Name: "Ana", Email: "ana@acme.com", Company: "Acme"})
	other := newTestLead(t, s, &domain.Lead{Name: "Bruno", Email: "bruno@acme.com", Company: "Acme"})

	other.Email = "ana@acme.com"
	if err := s.UpdateLead(ctx, other, nil); err != ErrAlreadyExists {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestDeleteLead(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := newTestLead(t, s, &domain.Lead{Name: "Ana"}, "vip")

	if err := s.DeleteLead(ctx, lead.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetLead(ctx, lead.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteLead(ctx, lead.ID); err != ErrNotFound {
		t.Errorf("double delete should be ErrNotFound, got %v", err)
	}

	// Attachment rows cascade but the tag stays.
	if _, err := s.GetTagByName(ctx, "vip"); err != nil {
		t.Errorf("tag should survive lead deletion: %v", err)
	}
}

func TestDeleteOwnerKeepsLeads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	owner := newTestUser(t, s, "diego")
	lead := newTestLead(t, s, &domain.Lead{Name: "Ana", OwnerID: owner.ID})

	if err := s.DeleteUser(ctx, owner.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	got, err := s.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("lead should survive owner deletion: %v", err)
	}
	if got.OwnerID != "" || got.OwnerUsername != "" {
		t.Errorf("owner should be cleared, got %q/%q", got.OwnerID, got.OwnerUsername)
	}
}

func TestImportLeads(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	imports := []LeadImport{
		{
			Lead: &domain.Lead{
				ID: "lead-imp-1", Name: "Diego", Email: "diego@empresa.com",
				Company: "Empresa", Status: domain.StatusNew, Source: domain.SourceOther,
				CreatedAt: now, UpdatedAt: now,
			},
			TagNames: []string{"importado", "vip"},
		},
		{
			Lead: &domain.Lead{
				ID: "lead-imp-2", Name: "Eva", Status: domain.StatusWon,
				Source: domain.SourceReferral, ValueCents: 123456,
				CreatedAt: now, UpdatedAt: now,
			},
		},
	}

	n, err := s.ImportLeads(ctx, imports)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 created, got %d", n)
	}

	got, err := s.GetLead(ctx, "lead-imp-1")
	if err != nil {
		t.Fatalf("get imported lead: %v", err)
	}
	names := got.TagNames()
	if len(names) != 2 {
		t.Errorf("imported tags missing: %v", names)
	}
}

func TestImportLeadsAllOrNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	newTestLead(t, s, &domain.Lead{Name: "Existing", Email: "ana@acme.com", Company: "Acme"})

	imports := []LeadImport{
		{Lead: &domain.Lead{
			ID: "lead-ok", Name: "Fine", Status: domain.StatusNew, Source: domain.SourceOther,
			CreatedAt: now, UpdatedAt: now,
		}},
		{Lead: &domain.Lead{
			ID: "lead-bad", Name: "Dup", Email: "ana@acme.com", Company: "Acme",
			Status: domain.StatusNew, Source: domain.SourceOther,
			CreatedAt: now, UpdatedAt: now,
		}},
	}

	if _, err := s.ImportLeads(ctx, imports); err == nil {
		t.Fatal("duplicate in batch should fail the import")
	}

	// The valid row must have been rolled back too.
	if _, err := s.GetLead(ctx, "lead-ok"); err != ErrNotFound {
		t.Errorf("import should be all-or-nothing, got %v", err)
	}
}

func TestStreamLeadsIgnoresPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range 4 {
		newTestLead(t, s, &domain.Lead{
			Name:      "Lead " + string(rune('A'+i)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base,
		}, "bulk")
	}

	var seen []string
	for l, err := range s.StreamLeads(ctx, LeadFilter{Limit: 2}) {
		if err != nil {
			t.Fatalf("stream: %v", err)
		}
		seen = append(seen, l.Name)
		if len(l.Tags) != 1 {
			t.Errorf("tags not loaded for %s", l.Name)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("stream should cover all rows, got %d", len(seen))
	}
	if seen[0] != "Lead D" {
		t.Errorf("stream should be newest first, got %s", seen[0])
	}
}

func TestUnknownCodesRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lead := newTestLead(t, s, &domain.Lead{
		Name:   "Legacy Row",
		Status: domain.Status("XXX"),
		Source: domain.Source("YYY"),
	})

	got, err := s.GetLead(ctx, lead.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "XXX" || got.Source != "YYY" {
		t.Errorf("unknown codes should round-trip untouched: %s %s", got.Status, got.Source)
	}
}
