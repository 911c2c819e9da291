package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DefaultPrimaryColor   = "#2563eb"
	DefaultSecondaryColor = "#64748b"
	DefaultTertiaryColor  = "#f59e0b"
	DefaultUserLimit      = 5
)

type Organization struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	ContactEmail   *string   `json:"contact_email,omitempty"`
	TaxID          *string   `json:"tax_id,omitempty"`
	PrimaryColor   string    `json:"primary_color"`
	SecondaryColor string    `json:"secondary_color"`
	TertiaryColor  string    `json:"tertiary_color"`
	UserLimit      int       `json:"user_limit"`
	LogoURL        *string   `json:"logo_url,omitempty"`
	CreatedBy      uuid.UUID `json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HSL is a color expressed as hue in degrees and saturation/lightness in percent.
type HSL struct {
	H   int    `json:"h"`
	S   int    `json:"s"`
	L   int    `json:"l"`
	CSS string `json:"css"`
}

// Theme is the organization's branding converted for UI custom properties.
type Theme struct {
	Primary   HSL `json:"primary"`
	Secondary HSL `json:"secondary"`
	Tertiary  HSL `json:"tertiary"`
}
