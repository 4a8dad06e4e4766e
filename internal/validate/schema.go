package validate

import (
	_ "embed"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/hudumadata/facility-cli/internal/model"
)

//go:embed schemas.yaml
var schemasYAML []byte

// FieldRule constrains one named field of a record variant.
type FieldRule struct {
	MinLen  int    `yaml:"min_len"`
	MaxLen  int    `yaml:"max_len"`
	Pattern string `yaml:"pattern"`

	compiled *regexp.Regexp
}

// Schema describes one record variant. Required and Optional name the
// logical fields counted toward completeness; Rules constrain the
// textual fields that carry them.
type Schema struct {
	Required []string             `yaml:"required"`
	Optional []string             `yaml:"optional"`
	Rules    map[string]FieldRule `yaml:"rules"`
}

func loadSchemas() (map[model.RecordType]Schema, error) {
	raw := make(map[string]Schema)
	if err := yaml.Unmarshal(schemasYAML, &raw); err != nil {
		return nil, eris.Wrap(err, "validate: parse schemas")
	}

	out := make(map[model.RecordType]Schema, len(raw))
	for name, schema := range raw {
		for field, rule := range schema.Rules {
			if rule.Pattern != "" {
				re, err := regexp.Compile(rule.Pattern)
				if err != nil {
					return nil, eris.Wrapf(err, "validate: pattern for %s.%s", name, field)
				}
				rule.compiled = re
				schema.Rules[field] = rule
			}
		}
		out[model.RecordType(name)] = schema
	}
	return out, nil
}

// schemaFor returns the schema for a record type, falling back to the
// generic schema for unknown tags.
func (v *Validator) schemaFor(t model.RecordType) Schema {
	if s, ok := v.schemas[t]; ok {
		return s
	}
	return v.schemas[model.RecordTypeGeneric]
}

// fieldValue resolves a logical field name to its textual value.
func fieldValue(rec *model.Record, field string) string {
	switch field {
	case "name":
		return rec.Name
	case "description":
		return rec.Description
	case "address":
		return rec.Address
	case "county":
		return rec.Location.County
	case "constituency":
		return rec.Location.Constituency
	case "ward":
		return rec.Location.Ward
	case "operating_hours":
		return rec.OperatingHours
	default:
		return rec.Extra[field]
	}
}

// fieldPresent reports whether a logical field carries data. The
// aggregate fields are checked structurally rather than textually.
func fieldPresent(rec *model.Record, field string) bool {
	switch field {
	case "coordinates":
		_, _, ok := rec.Coordinates()
		return ok
	case "contacts":
		return len(rec.Contacts) > 0
	case "services":
		return len(rec.Services) > 0
	default:
		return strings.TrimSpace(fieldValue(rec, field)) != ""
	}
}
