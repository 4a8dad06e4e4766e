package dedupe

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hudumadata/facility-cli/internal/model"
)

var (
	titleCaser = cases.Title(language.English)

	// Administrative suffixes appended to county names in source data,
	// e.g. "Nairobi County" or "Kisumu Sub-County".
	adminSuffixRe  = regexp.MustCompile(`(?i)\s+(county|sub-?county|district|division)$`)
	leadingArticle = regexp.MustCompile(`(?i)^(the)\s+`)
	nonDigitRe     = regexp.MustCompile(`\D`)
)

// Clean normalizes a low quality record in place of manual review: names
// and admin units are trimmed and title-cased, phone numbers rewritten
// to international format, and emails lower-cased.
func (d *Deduplicator) Clean(rec model.Record) model.Record {
	out := rec.Clone()

	out.Name = cleanName(out.Name)
	out.Location.County = cleanAdminUnit(out.Location.County)
	out.Location.Constituency = cleanAdminUnit(out.Location.Constituency)
	out.Location.Ward = cleanAdminUnit(out.Location.Ward)

	for i, c := range out.Contacts {
		switch c.Type {
		case "phone":
			out.Contacts[i].Value = NormalizePhone(c.Value)
		case "email":
			out.Contacts[i].Value = strings.ToLower(strings.TrimSpace(c.Value))
		}
	}
	return out
}

func cleanName(name string) string {
	s := strings.TrimSpace(name)
	s = leadingArticle.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return titleCaser.String(strings.ToLower(s))
}

func cleanAdminUnit(unit string) string {
	s := strings.TrimSpace(unit)
	s = adminSuffixRe.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(s))
}

// NormalizePhone rewrites Kenyan phone numbers to +254 international
// format. Inputs it cannot interpret are returned trimmed but otherwise
// untouched.
func NormalizePhone(phone string) string {
	trimmed := strings.TrimSpace(phone)
	digits := nonDigitRe.ReplaceAllString(trimmed, "")

	switch {
	case strings.HasPrefix(digits, "254") && len(digits) == 12:
		return "+" + digits
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		return "+254" + digits[1:]
	case (strings.HasPrefix(digits, "7") || strings.HasPrefix(digits, "1")) && len(digits) == 9:
		return "+254" + digits
	default:
		return trimmed
	}
}
