package validate

import (
	"fmt"
	"regexp"
	"unicode"

	"github.com/hudumadata/facility-cli/internal/model"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func (v *Validator) checkBusinessRules(rec *model.Record, res *Result) {
	res.RulesApplied = append(res.RulesApplied, "business")

	if numericHeavy(rec.Name) {
		res.Warnings = append(res.Warnings, "name is mostly numeric, possible garbage")
	}

	if lat, lon, ok := rec.Coordinates(); ok && !v.inRegion(lat, lon) {
		res.Warnings = append(res.Warnings,
			fmt.Sprintf("coordinates (%.4f, %.4f) outside configured region", lat, lon))
	}

	for _, c := range rec.Contacts {
		if msg := contactDefect(c); msg != "" {
			res.Errors = append(res.Errors, msg)
		}
	}

	for _, s := range rec.Services {
		if s.Category == "" {
			res.Warnings = append(res.Warnings, "service missing category")
		}
	}
}

// accuracy starts at 1.0 and deducts for each detectable defect.
func (v *Validator) accuracy(rec *model.Record) float64 {
	score := 1.0
	if numericHeavy(rec.Name) {
		score -= 0.2
	}
	if lat, lon, ok := rec.Coordinates(); ok && !v.inRegion(lat, lon) {
		score -= 0.2
	}
	for _, c := range rec.Contacts {
		if contactDefect(c) != "" {
			score -= 0.2
		}
	}
	// A record with no contact point cannot be verified against the
	// real facility.
	if len(rec.Contacts) == 0 {
		score -= 0.4
	}
	return model.Clamp01(score)
}

func (v *Validator) inRegion(lat, lon float64) bool {
	return lat >= v.region.MinLat && lat <= v.region.MaxLat &&
		lon >= v.region.MinLon && lon <= v.region.MaxLon
}

// contactDefect returns a non-empty message when a contact value is
// malformed for its type.
func contactDefect(c model.Contact) string {
	switch c.Type {
	case "email":
		if !emailRe.MatchString(c.Value) {
			return fmt.Sprintf("invalid email: %q", c.Value)
		}
	case "phone":
		digits := 0
		for _, r := range c.Value {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits < 9 || digits > 15 {
			return fmt.Sprintf("invalid phone number: %q", c.Value)
		}
	}
	return ""
}

// numericHeavy reports whether more than half of a name's non-space
// characters are digits.
func numericHeavy(name string) bool {
	var digits, total int
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return total > 0 && digits*2 > total
}
