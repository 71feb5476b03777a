package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/mroshb/astro_bot/pkg/utils"
	"gorm.io/gorm"
)

type Division string

// Division constants
const (
	DivisionNone Division = ""
	DivisionB    Division = "B"
	DivisionC    Division = "C"
)

// Valid reports whether d is B, C or unset.
func (d Division) Valid() bool {
	return d == DivisionNone || d == DivisionB || d == DivisionC
}

// CatalogEntry is one quizzable deep-space object. Entries are built once by
// the catalog loader and shared read-only by every queue and session.
type CatalogEntry struct {
	Name         string   `json:"name" yaml:"name"`
	Aliases      []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Images       []string `json:"images" yaml:"images"`
	Division     Division `json:"division,omitempty" yaml:"division,omitempty"`
	IsNew        bool     `json:"isnew,omitempty" yaml:"isnew,omitempty"`
	Hint         string   `json:"hint,omitempty" yaml:"hint,omitempty"`
	WikipediaURL string   `json:"wikipedia,omitempty" yaml:"wikipedia,omitempty"`
}

// Eligible reports whether the entry can be asked at all.
func (e *CatalogEntry) Eligible() bool {
	return len(e.Images) > 0
}

// AcceptedNames returns the lower-cased canonical name followed by the
// lower-cased aliases, without duplicates.
func (e *CatalogEntry) AcceptedNames() []string {
	names := make([]string, 0, 1+len(e.Aliases))
	seen := make(map[string]bool, 1+len(e.Aliases))
	for _, n := range append([]string{e.Name}, e.Aliases...) {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		names = append(names, n)
	}
	return names
}

// DisplayName formats the answer for reveals: the canonical name first, then
// each alias title-cased, comma separated. Blank aliases and aliases equal to
// the name ignoring case are left out.
func (e *CatalogEntry) DisplayName() string {
	parts := make([]string, 0, 1+len(e.Aliases))
	parts = append(parts, e.Name)
	for _, alias := range e.Aliases {
		alias = strings.TrimSpace(alias)
		if alias == "" || strings.EqualFold(alias, e.Name) {
			continue
		}
		parts = append(parts, utils.TitleCase(strings.ToLower(alias)))
	}
	return strings.Join(parts, ", ")
}

// CatalogRecord is the database row backing the postgres catalog source.
type CatalogRecord struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(200);not null;uniqueIndex"`
	Aliases   string    `gorm:"type:jsonb;default:'[]'"` // JSON array of strings
	Images    string    `gorm:"type:jsonb;not null"`     // JSON array of URLs
	Division  string    `gorm:"type:varchar(2);index"`
	IsNew     bool      `gorm:"default:false;index"`
	Hint      string    `gorm:"type:text"`
	Wikipedia string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CatalogRecord) TableName() string {
	return "catalog_entries"
}

// BeforeSave hook for validation
func (r *CatalogRecord) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(r.Name) == "" {
		return gorm.ErrInvalidData
	}
	if !Division(r.Division).Valid() {
		return gorm.ErrInvalidData
	}

	var images []string
	if err := json.Unmarshal([]byte(r.Images), &images); err != nil {
		return gorm.ErrInvalidData
	}
	if r.Aliases != "" {
		var aliases []string
		if err := json.Unmarshal([]byte(r.Aliases), &aliases); err != nil {
			return gorm.ErrInvalidData
		}
	}

	return nil
}

// NewCatalogRecord flattens an entry into its row form.
func NewCatalogRecord(e CatalogEntry) (*CatalogRecord, error) {
	aliases := e.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	images := e.Images
	if images == nil {
		images = []string{}
	}

	aliasesJSON, err := json.Marshal(aliases)
	if err != nil {
		return nil, err
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, err
	}

	return &CatalogRecord{
		Name:      e.Name,
		Aliases:   string(aliasesJSON),
		Images:    string(imagesJSON),
		Division:  string(e.Division),
		IsNew:     e.IsNew,
		Hint:      e.Hint,
		Wikipedia: e.WikipediaURL,
	}, nil
}

// Entry decodes the row back into a CatalogEntry.
func (r *CatalogRecord) Entry() (CatalogEntry, error) {
	entry := CatalogEntry{
		Name:         r.Name,
		Division:     Division(r.Division),
		IsNew:        r.IsNew,
		Hint:         r.Hint,
		WikipediaURL: r.Wikipedia,
	}
	if err := json.Unmarshal([]byte(r.Images), &entry.Images); err != nil {
		return CatalogEntry{}, err
	}
	if r.Aliases != "" {
		if err := json.Unmarshal([]byte(r.Aliases), &entry.Aliases); err != nil {
			return CatalogEntry{}, err
		}
	}
	return entry, nil
}
