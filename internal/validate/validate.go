// Package validate checks records against per-variant schemas and
// business rules and scores their quality across five dimensions.
package validate

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/config"
	"github.com/hudumadata/facility-cli/internal/model"
)

// Result is the outcome of validating a single record. IsValid is false
// exactly when Errors is non-empty; warnings never block validity.
type Result struct {
	IsValid      bool
	Errors       []string
	Warnings     []string
	QualityScore float64
	SubScores    map[string]float64
	RulesApplied []string
}

// Validator validates records and computes quality scores.
type Validator struct {
	weights config.ValidateConfig
	region  config.RegionConfig
	schemas map[model.RecordType]Schema
	log     *zap.Logger
}

// New creates a Validator with the embedded schema table.
func New(weights config.ValidateConfig, region config.RegionConfig) (*Validator, error) {
	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	return &Validator{
		weights: weights,
		region:  region,
		schemas: schemas,
		log:     zap.L().With(zap.String("component", "validate")),
	}, nil
}

// Validate runs schema validation, business rules, and quality scoring
// for one record.
func (v *Validator) Validate(rec model.Record) Result {
	schema := v.schemaFor(rec.Type)
	res := Result{SubScores: make(map[string]float64)}

	v.checkSchema(&rec, schema, &res)
	v.checkBusinessRules(&rec, &res)

	res.SubScores["completeness"] = v.completeness(&rec, schema)
	res.SubScores["accuracy"] = v.accuracy(&rec)
	res.SubScores["consistency"] = v.consistency(&rec)
	res.SubScores["timeliness"] = 1.0
	res.SubScores["uniqueness"] = 1.0

	res.QualityScore = model.Clamp01(
		v.weights.Completeness*res.SubScores["completeness"] +
			v.weights.Accuracy*res.SubScores["accuracy"] +
			v.weights.Consistency*res.SubScores["consistency"] +
			v.weights.Timeliness*res.SubScores["timeliness"] +
			v.weights.Uniqueness*res.SubScores["uniqueness"])

	res.IsValid = len(res.Errors) == 0
	return res
}

// ValidatedRecord packages a validation result for persistence.
func (v *Validator) ValidatedRecord(dataID string, rec model.Record, res Result) model.ValidatedRecord {
	return model.ValidatedRecord{
		DataID:       dataID,
		Payload:      rec,
		QualityScore: res.QualityScore,
		IsValid:      res.IsValid,
		Errors:       res.Errors,
		Warnings:     res.Warnings,
		RulesApplied: res.RulesApplied,
		ValidatedAt:  time.Now().UTC(),
	}
}

func (v *Validator) checkSchema(rec *model.Record, schema Schema, res *Result) {
	res.RulesApplied = append(res.RulesApplied, "schema")

	for _, field := range schema.Required {
		if !fieldPresent(rec, field) {
			res.Errors = append(res.Errors, fmt.Sprintf("required field missing: %s", field))
		}
	}
	for field, rule := range schema.Rules {
		val := strings.TrimSpace(fieldValue(rec, field))
		if val == "" {
			continue
		}
		if rule.MinLen > 0 && len(val) < rule.MinLen {
			res.Errors = append(res.Errors, fmt.Sprintf("%s shorter than %d characters", field, rule.MinLen))
		}
		if rule.MaxLen > 0 && len(val) > rule.MaxLen {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s longer than %d characters", field, rule.MaxLen))
		}
		if rule.compiled != nil && !rule.compiled.MatchString(val) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s has invalid format: %q", field, val))
		}
	}
}

// completeness is the weighted presence ratio of required and optional
// fields. Required fields count double.
func (v *Validator) completeness(rec *model.Record, schema Schema) float64 {
	const requiredWeight, optionalWeight = 2.0, 1.0

	var present, total float64
	for _, field := range schema.Required {
		total += requiredWeight
		if fieldPresent(rec, field) {
			present += requiredWeight
		}
	}
	for _, field := range schema.Optional {
		total += optionalWeight
		if fieldPresent(rec, field) {
			present += optionalWeight
		}
	}
	if total == 0 {
		return 1.0
	}
	return present / total
}

// consistency deducts for gaps and casing anomalies in the location
// hierarchy.
func (v *Validator) consistency(rec *model.Record) float64 {
	score := 1.0
	if rec.Location.Constituency == "" {
		score -= 0.2
	}
	if rec.Location.Ward == "" {
		score -= 0.1
	}
	for _, unit := range []string{rec.Location.County, rec.Location.Constituency, rec.Location.Ward} {
		if len(unit) > 1 && (unit == strings.ToUpper(unit) || unit == strings.ToLower(unit)) {
			score -= 0.1
		}
	}
	return model.Clamp01(score)
}
