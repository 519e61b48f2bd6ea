// Package profile describes the shape of a report file: how many preamble
// rows precede the header, which delimiter the export uses, which header
// names map onto the canonical columns, and the sentinel written into the
// product column of consolidated adjustment rows.
package profile

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var embeddedProfile []byte

// Canonical column names. Every profile must provide at least one header
// alias for each of them.
const (
	ColDateTime    = "datetime"
	ColKind        = "kind"
	ColSKU         = "sku"
	ColTotal       = "total"
	ColQuantity    = "quantity"
	ColDescription = "description"
)

var canonicalColumns = []string{
	ColDateTime,
	ColKind,
	ColSKU,
	ColTotal,
	ColQuantity,
	ColDescription,
}

// fileProfile is the raw YAML structure.
type fileProfile struct {
	Name          string              `yaml:"name"`
	PreambleRows  int                 `yaml:"preamble_rows"`
	Delimiter     string              `yaml:"delimiter"`
	AdjustmentSKU string              `yaml:"adjustment_sku"`
	Columns       map[string][]string `yaml:"columns"`
}

// Profile is a validated report layout. Construct via Parse, LoadEmbedded,
// or LoadFromFile; direct construction is not possible.
type Profile struct {
	name          string
	preambleRows  int
	delimiter     rune
	adjustmentSKU string
	aliases       map[string]string // normalized header text -> canonical column
}

// Parse validates YAML profile data and builds a Profile.
func Parse(data []byte) (*Profile, error) {
	var raw fileProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML profile (check syntax, indentation, and field names): %w", err)
	}

	if strings.TrimSpace(raw.Name) == "" {
		return nil, fmt.Errorf("profile name cannot be empty")
	}
	if raw.PreambleRows < 0 {
		return nil, fmt.Errorf("profile %s: preamble_rows must be >= 0, got %d", raw.Name, raw.PreambleRows)
	}
	if utf8.RuneCountInString(raw.Delimiter) != 1 {
		return nil, fmt.Errorf("profile %s: delimiter must be exactly one character, got %q", raw.Name, raw.Delimiter)
	}
	if strings.TrimSpace(raw.AdjustmentSKU) == "" {
		return nil, fmt.Errorf("profile %s: adjustment_sku cannot be empty", raw.Name)
	}

	for column := range raw.Columns {
		if !isCanonical(column) {
			return nil, fmt.Errorf("profile %s: unknown column %q (must be one of %s)", raw.Name, column, strings.Join(canonicalColumns, ", "))
		}
	}

	aliases := make(map[string]string)
	for _, column := range canonicalColumns {
		names := raw.Columns[column]
		if len(names) == 0 {
			return nil, fmt.Errorf("profile %s: column %q needs at least one header alias", raw.Name, column)
		}
		for _, name := range names {
			normalized := normalize(name)
			if normalized == "" {
				return nil, fmt.Errorf("profile %s: column %q has an empty header alias", raw.Name, column)
			}
			if existing, ok := aliases[normalized]; ok {
				return nil, fmt.Errorf("profile %s: header alias %q claimed by both %q and %q", raw.Name, name, existing, column)
			}
			aliases[normalized] = column
		}
	}

	delimiter, _ := utf8.DecodeRuneInString(raw.Delimiter)
	return &Profile{
		name:          raw.Name,
		preambleRows:  raw.PreambleRows,
		delimiter:     delimiter,
		adjustmentSKU: raw.AdjustmentSKU,
		aliases:       aliases,
	}, nil
}

// LoadEmbedded loads the compiled-in default profile.
func LoadEmbedded() (*Profile, error) {
	p, err := Parse(embeddedProfile)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded profile (possible binary corruption): %w", err)
	}
	return p, nil
}

// LoadFromFile loads a profile from a filesystem path.
func LoadFromFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile from %q: %w", path, err)
	}
	return p, nil
}

// Name returns the profile's identifying name.
func (p *Profile) Name() string { return p.name }

// PreambleRows returns the number of rows to skip before the header row.
func (p *Profile) PreambleRows() int { return p.preambleRows }

// Delimiter returns the field separator used by the report.
func (p *Profile) Delimiter() rune { return p.delimiter }

// AdjustmentSKU returns the sentinel written into the product column of
// consolidated adjustment rows.
func (p *Profile) AdjustmentSKU() string { return p.adjustmentSKU }

// Canonical resolves raw header cell text to its canonical column name.
// Matching trims surrounding space and ignores case.
func (p *Profile) Canonical(header string) (string, bool) {
	column, ok := p.aliases[normalize(header)]
	return column, ok
}

// Columns returns the canonical column names every report must provide.
func Columns() []string {
	out := make([]string, len(canonicalColumns))
	copy(out, canonicalColumns)
	return out
}

func isCanonical(column string) bool {
	for _, c := range canonicalColumns {
		if c == column {
			return true
		}
	}
	return false
}

func normalize(header string) string {
	return strings.ToLower(strings.TrimSpace(header))
}
