// Package policy holds the routing table that maps offices to the
// complaint categories they handle and categories to editable marks.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/complaint-desk/internal/domain"
)

//go:embed policy.yaml
var defaultPolicy []byte

// Table is the decoded routing policy.
type Table struct {
	Offices      map[domain.Office][]string    `yaml:"offices"`
	Fields       map[string][]domain.MarkField `yaml:"fields"`
	OfficeLabels map[string]domain.Office      `yaml:"office_labels"`
}

// Default returns the embedded policy table.
func Default() *Table {
	t, err := Parse(defaultPolicy)
	if err != nil {
		panic(fmt.Sprintf("policy: embedded table invalid: %v", err))
	}
	return t
}

// Load reads a policy override from path, or returns the embedded table when path is empty.
func Load(path string) (*Table, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML policy document.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode policy: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	labels := make(map[string]domain.Office, len(t.OfficeLabels))
	for label, office := range t.OfficeLabels {
		labels[normalizeLabel(label)] = office
	}
	t.OfficeLabels = labels
	return &t, nil
}

func (t *Table) validate() error {
	known := make(map[string]bool, len(domain.SeedCategories))
	for _, c := range domain.SeedCategories {
		known[c.Name] = true
	}
	for office, categories := range t.Offices {
		if _, ok := domain.ParseOffice(string(office)); !ok {
			return fmt.Errorf("policy: unknown office %q", office)
		}
		for _, c := range categories {
			if !known[c] {
				return fmt.Errorf("policy: office %q references unknown category %q", office, c)
			}
		}
	}
	for category, fields := range t.Fields {
		if !known[category] {
			return fmt.Errorf("policy: fields reference unknown category %q", category)
		}
		for _, f := range fields {
			switch f {
			case domain.MarkAttendance, domain.MarkAssignment, domain.MarkCA, domain.MarkExam, domain.MarkFinal:
			default:
				return fmt.Errorf("policy: category %q lists unknown mark %q", category, f)
			}
		}
	}
	for label, office := range t.OfficeLabels {
		if _, ok := domain.ParseOffice(string(office)); !ok {
			return fmt.Errorf("policy: label %q maps to unknown office %q", label, office)
		}
	}
	return nil
}

// CategoriesFor returns the category names an office is responsible for.
func (t *Table) CategoriesFor(office domain.Office) []string {
	return t.Offices[office]
}

// AllowedFields returns the marks a resolution in category may set.
// Unknown categories allow nothing.
func (t *Table) AllowedFields(category string) []domain.MarkField {
	return t.Fields[category]
}

// Allows reports whether field may be set for category.
func (t *Table) Allows(category string, field domain.MarkField) bool {
	for _, f := range t.Fields[category] {
		if f == field {
			return true
		}
	}
	return false
}

// OfficeFor maps a roster office label to an internal office.
// Enum values match directly; anything unrecognised maps to Other.
func (t *Table) OfficeFor(label string) domain.Office {
	if office, ok := domain.ParseOffice(label); ok {
		return office
	}
	if office, ok := t.OfficeLabels[normalizeLabel(label)]; ok {
		return office
	}
	return domain.OfficeOther
}

func normalizeLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
