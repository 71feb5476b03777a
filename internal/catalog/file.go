package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mroshb/astro_bot/internal/models"
	"github.com/mroshb/astro_bot/pkg/errors"
	"github.com/tidwall/jsonc"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// FileSource reads a catalog file; the extension picks the format.
type FileSource struct {
	Path string
}

func (s FileSource) String() string {
	return s.Path
}

// record mirrors the on-disk shape. Images is a pointer so a missing or null
// field can be told apart from an empty array.
type record struct {
	Name      string    `json:"name" yaml:"name"`
	Aliases   []string  `json:"aliases" yaml:"aliases"`
	Images    *[]string `json:"images" yaml:"images"`
	Division  string    `json:"division" yaml:"division"`
	IsNew     bool      `json:"isnew" yaml:"isnew"`
	Hint      string    `json:"hint" yaml:"hint"`
	Wikipedia string    `json:"wikipedia" yaml:"wikipedia"`
}

func (s FileSource) Load(_ context.Context) ([]models.CatalogEntry, error) {
	switch ext := strings.ToLower(filepath.Ext(s.Path)); ext {
	case ".json", ".jsonc":
		data, err := s.read()
		if err != nil {
			return nil, err
		}
		return ParseJSON(data)
	case ".yaml", ".yml":
		data, err := s.read()
		if err != nil {
			return nil, err
		}
		return ParseYAML(data)
	case ".xlsx":
		return ReadWorkbook(s.Path)
	default:
		return nil, errors.New(errors.ErrCodeCatalogLoad, fmt.Sprintf("unsupported catalog format %q", ext))
	}
}

func (s FileSource) read() ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, fmt.Sprintf("read %s", s.Path))
	}
	return data, nil
}

// ParseJSON decodes a JSON array of records. Comments and trailing commas are
// allowed.
func ParseJSON(data []byte) ([]models.CatalogEntry, error) {
	var records []record
	if err := json.Unmarshal(jsonc.ToJSON(data), &records); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, "malformed JSON catalog")
	}
	return toEntries(records)
}

// ParseYAML decodes a YAML sequence of records.
func ParseYAML(data []byte) ([]models.CatalogEntry, error) {
	var records []record
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, "malformed YAML catalog")
	}
	return toEntries(records)
}

func toEntries(records []record) ([]models.CatalogEntry, error) {
	entries := make([]models.CatalogEntry, 0, len(records))
	for i, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			return nil, errors.New(errors.ErrCodeCatalogLoad, fmt.Sprintf("record %d has no name", i))
		}
		if r.Images == nil {
			return nil, errors.New(errors.ErrCodeCatalogLoad, fmt.Sprintf("record %q has no images array", r.Name))
		}
		entries = append(entries, models.CatalogEntry{
			Name:         r.Name,
			Aliases:      r.Aliases,
			Images:       *r.Images,
			Division:     models.Division(strings.ToUpper(strings.TrimSpace(r.Division))),
			IsNew:        r.IsNew,
			Hint:         r.Hint,
			WikipediaURL: r.Wikipedia,
		})
	}
	return entries, nil
}

// Workbook columns, matched case-insensitively against the header row.
const (
	colName      = "name"
	colAliases   = "aliases"
	colImages    = "images"
	colDivision  = "division"
	colIsNew     = "isnew"
	colHint      = "hint"
	colWikipedia = "wikipedia"

	listSeparator = "|"
)

// ReadWorkbook reads the first sheet of an XLSX catalog: a header row, then
// one object per row with aliases and images separated by "|".
func ReadWorkbook(path string) ([]models.CatalogEntry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, fmt.Sprintf("open workbook %s", path))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New(errors.ErrCodeCatalogLoad, "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, fmt.Sprintf("read sheet %s", sheets[0]))
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]models.CatalogEntry, error) {
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeCatalogLoad, "workbook has no header row")
	}

	columns := make(map[string]int)
	for i, h := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colName, colImages} {
		if _, ok := columns[required]; !ok {
			return nil, errors.New(errors.ErrCodeCatalogLoad, fmt.Sprintf("workbook is missing the %q column", required))
		}
	}

	cell := func(row []string, col string) string {
		i, ok := columns[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []record
	for n, row := range rows[1:] {
		if strings.TrimSpace(strings.Join(row, "")) == "" {
			continue
		}

		images := splitList(cell(row, colImages))
		isNew := false
		if v := cell(row, colIsNew); v != "" {
			b, err := parseFlag(v)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeCatalogLoad, fmt.Sprintf("row %d: bad isnew value", n+2))
			}
			isNew = b
		}

		records = append(records, record{
			Name:      cell(row, colName),
			Aliases:   splitList(cell(row, colAliases)),
			Images:    &images,
			Division:  cell(row, colDivision),
			IsNew:     isNew,
			Hint:      cell(row, colHint),
			Wikipedia: cell(row, colWikipedia),
		})
	}
	return toEntries(records)
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(s)
}
