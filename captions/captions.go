// Package captions reads text descriptions of dataset shapes.
package captions

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// AllCategories selects every record when filtering by category.
const AllCategories = "all"

// A Record is one row of a caption table.
type Record struct {
	ModelID     string
	Category    string
	Description string
}

// Load reads a caption table from a CSV file.
func Load(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "load captions")
	}
	defer f.Close()
	records, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(err, "load captions "+path)
	}
	return records, nil
}

// Read parses a CSV caption table with a header row.
//
// The model identifier is taken from the modelId column, or from an id
// column if there is none. The category and description columns are
// required. Other columns are ignored.
func Read(r io.Reader) ([]*Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("read captions: missing header")
	} else if err != nil {
		return nil, errors.Wrap(err, "read captions")
	}
	columns := map[string]int{}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, ok := columns[name]; !ok {
			columns[name] = i
		}
	}
	idCol, ok := columns["modelId"]
	if !ok {
		if idCol, ok = columns["id"]; !ok {
			return nil, errors.New("read captions: missing modelId column")
		}
	}
	categoryCol, ok := columns["category"]
	if !ok {
		return nil, errors.New("read captions: missing category column")
	}
	descCol, ok := columns["description"]
	if !ok {
		return nil, errors.New("read captions: missing description column")
	}

	var res []*Record
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrap(err, "read captions")
		}
		res = append(res, &Record{
			ModelID:     field(row, idCol),
			Category:    field(row, categoryCol),
			Description: field(row, descCol),
		})
	}
	return res, nil
}

func field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// FindDescriptions returns the descriptions of every record whose model
// identifier equals modelID exactly, in file order.
func FindDescriptions(records []*Record, modelID string) []string {
	var res []string
	for _, r := range records {
		if r.ModelID == modelID {
			res = append(res, r.Description)
		}
	}
	return res
}

// FilterCategory returns the records of a category in file order. The
// category is matched exactly, except that AllCategories in any case
// matches every record.
func FilterCategory(records []*Record, category string) []*Record {
	if strings.EqualFold(category, AllCategories) {
		return records
	}
	var res []*Record
	for _, r := range records {
		if r.Category == category {
			res = append(res, r)
		}
	}
	return res
}

// Prompts returns the lowercased descriptions of a category.
func Prompts(records []*Record, category string) []string {
	filtered := FilterCategory(records, category)
	res := make([]string, len(filtered))
	for i, r := range filtered {
		res[i] = strings.ToLower(r.Description)
	}
	return res
}

// BuildText joins the lowercased descriptions of a category with blank
// lines between them.
func BuildText(records []*Record, category string) string {
	return strings.Join(Prompts(records, category), "\n\n")
}
