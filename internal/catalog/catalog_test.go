package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mroshb/astro_bot/internal/models"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const sampleJSON = `[
	// Messier objects
	{
		"name": "M31",
		"aliases": ["Andromeda Galaxy", "NGC 224"],
		"images": ["https://img.example/m31-1.jpg", "https://img.example/m31-2.jpg"],
		"division": "B",
		"hint": "Nearest large spiral",
		"wikipedia": "https://en.wikipedia.org/wiki/Andromeda_Galaxy",
	},
	{"name": "M1", "images": ["https://img.example/m1.jpg"], "division": "c", "isnew": true},
	{"name": "Orphan", "images": []},
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_JSONWithComments(t *testing.T) {
	path := writeFile(t, "dsos.json", sampleJSON)

	c, err := Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}

	m31, ok := c.Lookup("M31")
	if !ok {
		t.Fatal("Lookup(M31) not found")
	}
	if m31.Division != models.DivisionB || len(m31.Images) != 2 || m31.Hint != "Nearest large spiral" {
		t.Errorf("M31 decoded as %+v", m31)
	}

	m1, _ := c.Lookup("M1")
	if m1.Division != models.DivisionC || !m1.IsNew {
		t.Errorf("M1 decoded as %+v", m1)
	}

	orphan, _ := c.Lookup("Orphan")
	if orphan.Eligible() {
		t.Error("entry without images reported eligible")
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "dsos.yaml", `
- name: M42
  aliases: [Orion Nebula]
  images: [https://img.example/m42.jpg]
  isnew: true
- name: M57
  images: []
`)

	c, err := Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	m42, ok := c.Lookup("M42")
	if !ok {
		t.Fatal("Lookup(M42) not found")
	}
	if !reflect.DeepEqual(m42.Aliases, []string{"Orion Nebula"}) || !m42.IsNew {
		t.Errorf("M42 decoded as %+v", m42)
	}
}

func TestLoad_Workbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dsos.xlsx")

	f := excelize.NewFile()
	rows := [][]interface{}{
		{"Name", "Aliases", "Images", "Division", "IsNew", "Hint", "Wikipedia"},
		{"M31", "Andromeda Galaxy | NGC 224", "u1|u2", "B", "yes", "Spiral", "https://en.wikipedia.org/wiki/Andromeda_Galaxy"},
		{},
		{"M1", "", "u3", "", "false", "", ""},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow("Sheet1", cell, &r); err != nil {
			t.Fatalf("SetSheetRow() error = %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs() error = %v", err)
	}
	f.Close()

	c, err := Load(context.Background(), FileSource{Path: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	m31, _ := c.Lookup("M31")
	if !reflect.DeepEqual(m31.Aliases, []string{"Andromeda Galaxy", "NGC 224"}) {
		t.Errorf("aliases = %v", m31.Aliases)
	}
	if !reflect.DeepEqual(m31.Images, []string{"u1", "u2"}) {
		t.Errorf("images = %v", m31.Images)
	}
	if !m31.IsNew || m31.Division != models.DivisionB {
		t.Errorf("M31 decoded as %+v", m31)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "Malformed JSON", file: "a.json", content: `[{"name": "M1",`},
		{name: "Missing name", file: "a.json", content: `[{"images": ["u"]}]`},
		{name: "Images not an array", file: "a.json", content: `[{"name": "M1", "images": "u"}]`},
		{name: "Images missing", file: "a.json", content: `[{"name": "M1"}]`},
		{name: "Duplicate names", file: "a.json", content: `[{"name": "M1", "images": []}, {"name": "M1", "images": []}]`},
		{name: "Unknown division", file: "a.json", content: `[{"name": "M1", "images": [], "division": "A"}]`},
		{name: "Malformed YAML", file: "a.yml", content: "- name: [unterminated"},
		{name: "Unsupported extension", file: "a.csv", content: "name,images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)

			_, err := Load(context.Background(), FileSource{Path: path})
			if !errors.HasCode(err, errors.ErrCodeCatalogLoad) {
				t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeCatalogLoad)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), FileSource{Path: filepath.Join(t.TempDir(), "nope.json")})
	if !errors.HasCode(err, errors.ErrCodeCatalogLoad) {
		t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeCatalogLoad)
	}
}

func TestParseRows_MissingColumn(t *testing.T) {
	_, err := parseRows([][]string{{"name", "hint"}, {"M1", "x"}})
	if !errors.HasCode(err, errors.ErrCodeCatalogLoad) {
		t.Errorf("parseRows() error = %v, want %s", err, errors.ErrCodeCatalogLoad)
	}
}

type fakeLister struct {
	records []models.CatalogRecord
	err     error
}

func (f fakeLister) ListAll(context.Context) ([]models.CatalogRecord, error) {
	return f.records, f.err
}

func TestDatabaseSource(t *testing.T) {
	src := DatabaseSource{Repo: fakeLister{records: []models.CatalogRecord{
		{ID: 1, Name: "M31", Aliases: `["Andromeda Galaxy"]`, Images: `["u1","u2"]`, Division: "B"},
		{ID: 2, Name: "M1", Images: `["u3"]`},
	}}}

	c, err := Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	m31, _ := c.Lookup("M31")
	if !reflect.DeepEqual(m31.Images, []string{"u1", "u2"}) {
		t.Errorf("images = %v", m31.Images)
	}

	_, err = Load(context.Background(), DatabaseSource{Repo: fakeLister{err: fmt.Errorf("connection refused")}})
	if !errors.HasCode(err, errors.ErrCodeCatalogLoad) {
		t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeCatalogLoad)
	}

	_, err = Load(context.Background(), DatabaseSource{Repo: fakeLister{records: []models.CatalogRecord{
		{ID: 3, Name: "Bad", Images: `not json`},
	}}})
	if !errors.HasCode(err, errors.ErrCodeCatalogLoad) {
		t.Errorf("Load() error = %v, want %s", err, errors.ErrCodeCatalogLoad)
	}
}

func TestCatalog_EntriesAreCopies(t *testing.T) {
	src := []models.CatalogEntry{{Name: "M1", Images: []string{"u"}}}
	c, err := New(src)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	src[0].Images[0] = "mutated"
	if got := c.Entries()[0].Images[0]; got != "u" {
		t.Errorf("catalog image changed with source slice: %q", got)
	}
}
