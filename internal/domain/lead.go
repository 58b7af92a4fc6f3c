package domain

import "time"

// Status classifies a lead's position in the sales pipeline.
// The short code is what gets stored; Label returns the display form.
type Status string

// Pipeline stages.
const (
	StatusNew       Status = "NEW"
	StatusQualified Status = "QLF"
	StatusWon       Status = "WON"
	StatusLost      Status = "LST"
	StatusCold      Status = "CLD"
)

var statusLabels = map[Status]string{
	StatusNew:       "Novo",
	StatusQualified: "Qualidade",
	StatusWon:       "Ganho",
	StatusLost:      "Perdido",
	StatusCold:      "Frio",
}

// Label returns the human-readable display name for the status.
// Unknown codes are returned unchanged so lenient imports still render.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the status is one of the known codes.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Source classifies how a lead was acquired.
type Source string

// Acquisition channels.
const (
	SourceWebsite  Source = "WEB"
	SourceAds      Source = "ADS"
	SourceReferral Source = "REF"
	SourceEvent    Source = "EVT"
	SourceOther    Source = "OTH"
)

var sourceLabels = map[Source]string{
	SourceWebsite:  "Website",
	SourceAds:      "Anúncio",
	SourceReferral: "Indicação",
	SourceEvent:    "Evento",
	SourceOther:    "Outro",
}

// Label returns the human-readable display name for the source.
func (s Source) Label() string {
	if label, ok := sourceLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether the source is one of the known codes.
func (s Source) Valid() bool {
	_, ok := sourceLabels[s]
	return ok
}

// Choice pairs a stored code with its display label, for filter UIs and forms.
type Choice struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// StatusChoices returns all pipeline stages in display order.
func StatusChoices() []Choice {
	return []Choice{
		{Code: string(StatusNew), Label: StatusNew.Label()},
		{Code: string(StatusQualified), Label: StatusQualified.Label()},
		{Code: string(StatusWon), Label: StatusWon.Label()},
		{Code: string(StatusLost), Label: StatusLost.Label()},
		{Code: string(StatusCold), Label: StatusCold.Label()},
	}
}

// SourceChoices returns all acquisition channels in display order.
func SourceChoices() []Choice {
	return []Choice{
		{Code: string(SourceWebsite), Label: SourceWebsite.Label()},
		{Code: string(SourceAds), Label: SourceAds.Label()},
		{Code: string(SourceReferral), Label: SourceReferral.Label()},
		{Code: string(SourceEvent), Label: SourceEvent.Label()},
		{Code: string(SourceOther), Label: SourceOther.Label()},
	}
}

// Lead is a sales prospect record.
// The (Email, Company) pair is unique whenever Email is non-empty.
type Lead struct {
	ID      string `json:"id"`
	Name    string `json:"name"`    // ≤120 chars
	Email   string `json:"email"`   // optional, validated on forms
	Phone   string `json:"phone"`   // ≤30 chars, optional
	Company string `json:"company"` // ≤120 chars, optional

	Status Status `json:"status"`
	Source Source `json:"source"`

	// OwnerID references the responsible user; empty means unowned.
	// Deleting the owner nulls this out, it never cascades.
	OwnerID string `json:"owner_id,omitempty"`

	// ValueCents holds the estimated deal value in cents.
	ValueCents int64  `json:"value_cents"`
	Notes      string `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Denormalized for listing and export; populated by the store.
	OwnerUsername string `json:"owner_username,omitempty"`
	Tags          []*Tag `json:"tags"`
}

// Touch updates the UpdatedAt timestamp.
func (l *Lead) Touch() {
	l.UpdatedAt = time.Now().UTC()
}

// TagNames returns the lead's tag names in stored order.
func (l *Lead) TagNames() []string {
	names := make([]string, len(l.Tags))
	for i, t := range l.Tags {
		names[i] = t.Name
	}
	return names
}
