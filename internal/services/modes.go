package services

import "github.com/mroshb/astro_bot/internal/models"

// Mode is a named slice of the catalog with its own selection queue. Key is
// also the text prefix players type ("b.m31").
type Mode struct {
	Key    string
	Label  string
	Filter func(*models.CatalogEntry) bool
}

var DefaultModes = []Mode{
	{
		Key:    "a",
		Label:  "All objects",
		Filter: func(*models.CatalogEntry) bool { return true },
	},
	{
		Key:    "b",
		Label:  "Division B objects",
		Filter: func(e *models.CatalogEntry) bool { return e.Division == models.DivisionB },
	},
	{
		Key:    "c",
		Label:  "New objects",
		Filter: func(e *models.CatalogEntry) bool { return e.IsNew },
	},
	{
		Key:    "d",
		Label:  "Old objects",
		Filter: func(e *models.CatalogEntry) bool { return !e.IsNew },
	},
}

// ModeKeys lists the keys of modes in order.
func ModeKeys(modes []Mode) []string {
	keys := make([]string, 0, len(modes))
	for _, m := range modes {
		keys = append(keys, m.Key)
	}
	return keys
}
