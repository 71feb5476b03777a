// Package catalog loads the immutable list of quizzable objects.
//
// Entries come from a file (JSON with comments, YAML or an XLSX workbook) or
// from the catalog_entries table. Every source goes through the same
// validation: each record needs a name and an images array, names are unique,
// and division is B, C or unset. Any violation fails the whole load.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/mroshb/astro_bot/internal/models"
	"github.com/mroshb/astro_bot/pkg/errors"
)

// Source produces raw catalog records.
type Source interface {
	Load(ctx context.Context) ([]models.CatalogEntry, error)
	String() string
}

// Catalog is the validated, read-only object list.
type Catalog struct {
	entries []*models.CatalogEntry
	byName  map[string]*models.CatalogEntry
}

// Load reads src once and validates the result.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	raw, err := src.Load(ctx)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeCatalogLoad) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, fmt.Sprintf("load %s", src))
	}
	return New(raw)
}

// New validates entries and freezes them into a Catalog.
func New(entries []models.CatalogEntry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]*models.CatalogEntry, 0, len(entries)),
		byName:  make(map[string]*models.CatalogEntry, len(entries)),
	}

	for i := range entries {
		e := entries[i]
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			return nil, errors.New(errors.ErrCodeCatalogLoad, fmt.Sprintf("entry %d has no name", i))
		}
		if !e.Division.Valid() {
			return nil, errors.New(errors.ErrCodeCatalogLoad, fmt.Sprintf("entry %q has unknown division %q", e.Name, e.Division))
		}
		if _, dup := c.byName[e.Name]; dup {
			return nil, errors.New(errors.ErrCodeCatalogLoad, fmt.Sprintf("duplicate entry name %q", e.Name))
		}

		// Own copies of the slices so callers cannot mutate the catalog.
		e.Aliases = append([]string(nil), e.Aliases...)
		e.Images = append([]string(nil), e.Images...)

		c.entries = append(c.entries, &e)
		c.byName[e.Name] = &e
	}

	return c, nil
}

// Entries returns every entry, eligible or not, in source order.
func (c *Catalog) Entries() []*models.CatalogEntry {
	return append([]*models.CatalogEntry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Lookup finds an entry by canonical name.
func (c *Catalog) Lookup(name string) (*models.CatalogEntry, bool) {
	e, ok := c.byName[name]
	return e, ok
}
