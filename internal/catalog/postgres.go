package catalog

import (
	"context"
	"fmt"

	"github.com/mroshb/astro_bot/internal/models"
	"github.com/mroshb/astro_bot/pkg/errors"
)

// RecordLister is the slice of the catalog repository the loader needs.
type RecordLister interface {
	ListAll(ctx context.Context) ([]models.CatalogRecord, error)
}

// DatabaseSource loads the catalog from the catalog_entries table.
type DatabaseSource struct {
	Repo RecordLister
}

func (s DatabaseSource) String() string {
	return "postgres:catalog_entries"
}

func (s DatabaseSource) Load(ctx context.Context) ([]models.CatalogEntry, error) {
	records, err := s.Repo.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, "list catalog rows")
	}

	entries := make([]models.CatalogEntry, 0, len(records))
	for _, r := range records {
		entry, err := r.Entry()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, fmt.Sprintf("decode catalog row %d (%s)", r.ID, r.Name))
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
