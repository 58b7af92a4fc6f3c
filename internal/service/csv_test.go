package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/leadtrackapp/leadtrack-server/internal/errors"
)

func TestExportCSV(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")
	ctx := context.Background()

	_, err := svc.Create(ctx, actor, LeadInput{
		Name:    "Ana Souza",
		Email:   "ana@acme.com",
		Phone:   "+55 11 99999-0001",
		Company: "Acme",
		Status:  "WON",
		Source:  "REF",
		Value:   "800",
		Tags:    []string{"vip", "q3"},
		Notes:   "first line\nsecond line",
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf, ListParams{}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"), "export starts with a BOM")

	lines := strings.Split(strings.TrimRight(strings.TrimPrefix(out, "\ufeff"), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "name,email,phone,company,status,source,owner,value,tags,notes,created_at", lines[0])

	row := lines[1]
	assert.Contains(t, row, "Ana Souza")
	assert.Contains(t, row, "Ganho", "status is exported as its label")
	assert.Contains(t, row, "Indicação", "source is exported as its label")
	assert.Contains(t, row, "800.00", "value always has two decimals")
	assert.Contains(t, row, `"vip, q3"`, "tags are comma-joined")
	assert.Contains(t, row, "first line second line", "newlines in notes collapse to spaces")
	assert.Contains(t, row, "carlos", "owner is exported by username")
}

func TestExportCSVHonorsFilter(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")
	ctx := context.Background()

	_, err := svc.Create(ctx, actor, LeadInput{Name: "Won Deal", Status: "WON"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, actor, LeadInput{Name: "Fresh", Status: "NEW"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf, ListParams{Status: "WON"}))

	out := buf.String()
	assert.Contains(t, out, "Won Deal")
	assert.NotContains(t, out, "Fresh")
}

func TestExportCSVIgnoresPagination(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")
	ctx := context.Background()

	for range PageSize + 5 {
		_, err := svc.Create(ctx, actor, LeadInput{Name: "Bulk"})
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(ctx, &buf, ListParams{Page: 1}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Len(t, lines, PageSize+6, "header plus every lead, not one page")
}

func TestImportCSV(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")
	ctx := context.Background()

	file := "name,email,phone,company,status,source,value,tags,notes\n" +
		"Diego,diego@empresa.com,,Empresa,,,\"1.234,56\",\"importado, vip\",\n" +
		"Eva,,,,WON,REF,800,,\n"

	count, err := svc.ImportCSV(ctx, actor, strings.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	page, err := svc.List(ctx, ListParams{Query: "Diego"})
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	diego := page.Leads[0]
	assert.Equal(t, "NEW", string(diego.Status), "blank status defaults to NEW")
	assert.Equal(t, "OTH", string(diego.Source), "blank source defaults to OTH")
	assert.Equal(t, int64(123456), diego.ValueCents, "comma decimal is accepted")
	assert.ElementsMatch(t, []string{"importado", "vip"}, diego.TagNames())
	assert.Equal(t, actor.ID, diego.OwnerID, "importer owns imported leads")

	page, err = svc.List(ctx, ListParams{Query: "Eva"})
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, "WON", string(page.Leads[0].Status))
	assert.Equal(t, int64(80000), page.Leads[0].ValueCents)
}

func TestImportCSVLenientValues(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")
	ctx := context.Background()

	file := "name,value\nBad Number,not-a-number\n"
	count, err := svc.ImportCSV(ctx, actor, strings.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	page, err := svc.List(ctx, ListParams{Query: "Bad Number"})
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	assert.Zero(t, page.Leads[0].ValueCents, "unparseable value imports as zero")
}

func TestImportCSVDropsInvalidBytes(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")
	ctx := context.Background()

	// A latin-1 encoded byte (0xE9) inside an otherwise UTF-8 file.
	file := []byte("name,company\nJos\xe9,Acme\n")
	count, err := svc.ImportCSV(ctx, actor, bytes.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	page, err := svc.List(ctx, ListParams{Query: "Jos"})
	require.NoError(t, err)
	require.Len(t, page.Leads, 1)
	assert.Equal(t, "Jos", page.Leads[0].Name, "invalid bytes are dropped, not replaced")
}

func TestImportCSVStripsBOM(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")

	file := "\ufeffname\nWith BOM\n"
	count, err := svc.ImportCSV(context.Background(), actor, strings.NewReader(file))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestImportCSVDuplicateAbortsAll(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")
	ctx := context.Background()

	_, err := svc.Create(ctx, actor, LeadInput{Name: "Ana", Email: "ana@acme.com", Company: "Acme"})
	require.NoError(t, err)

	file := "name,email,company\nFine,,\nDup,ana@acme.com,Acme\n"
	_, err = svc.ImportCSV(ctx, actor, strings.NewReader(file))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

	// Only the lead that existed before the import remains.
	page, err := svc.List(ctx, ListParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
}

func TestImportCSVEmptyFile(t *testing.T) {
	svc, s, _ := newTestLeadService(t)
	actor := createTestUser(t, s, "carlos", "", "secret-password")

	_, err := svc.ImportCSV(context.Background(), actor, strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	// Header only is fine, just zero rows.
	count, err := svc.ImportCSV(context.Background(), actor, strings.NewReader("name,email\n"))
	require.NoError(t, err)
	assert.Zero(t, count)
}
