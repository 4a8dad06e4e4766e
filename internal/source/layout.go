package source

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
)

// Document sources (PDF, DOCX, plain text) carry a recognizable layout
// in their header text. Each recognizer claims a layout by its
// distinctive heading and parses the body with a specialized
// line-parser; unrecognized documents fall back to generic per-line
// capture.
type layoutRecognizer struct {
	name    string
	markers []string
	parse   func(lines []string) []model.Record
}

var recognizers = []layoutRecognizer{
	{
		name:    "licensed_facilities",
		markers: []string{"list of licensed facilities", "licensed health facilities"},
		parse:   parseLicensedFacilities,
	},
	{
		name:    "shelter_network",
		markers: []string{"shelters network", "shelter directory"},
		parse:   parseShelterNetwork,
	},
}

// parseDocumentText dispatches extracted document text to the matching
// layout parser.
func parseDocumentText(text string, defaultType model.RecordType, log *zap.Logger) []model.Record {
	lines := splitLines(text)
	head := strings.ToLower(strings.Join(firstN(lines, 10), "\n"))

	for _, r := range recognizers {
		for _, marker := range r.markers {
			if strings.Contains(head, marker) {
				log.Debug("document layout recognized", zap.String("layout", r.name))
				return r.parse(lines)
			}
		}
	}

	log.Debug("no layout recognized, using generic line capture")
	return parseGenericLines(lines, defaultType)
}

var columnSplitRe = regexp.MustCompile(`\s{2,}|\t+`)

// parseLicensedFacilities reads the tabular licensed-facilities layout:
// one facility per line with name, county, and optionally a phone
// number in whitespace-separated columns.
func parseLicensedFacilities(lines []string) []model.Record {
	var out []model.Record
	for _, line := range lines {
		cols := columnSplitRe.Split(strings.TrimSpace(line), -1)
		if len(cols) < 2 {
			continue
		}
		if isHeadingLine(cols[0]) {
			continue
		}

		rec := model.Record{
			Type:     model.RecordTypeFacility,
			Name:     cols[0],
			Location: model.Location{County: cols[1]},
		}
		if len(cols) > 2 && looksLikePhone(cols[2]) {
			rec.Contacts = append(rec.Contacts, model.Contact{Type: "phone", Value: cols[2]})
		}
		out = append(out, rec)
	}
	return out
}

var shelterLineRe = regexp.MustCompile(`^(.+?)\s*[,-]\s*([A-Za-z' ]+?)(?:\s*[,-]\s*([+0-9 ()-]{9,}))?$`)

// parseShelterNetwork reads the shelters-network layout: one shelter per
// line as "Name - County" with an optional trailing phone number.
func parseShelterNetwork(lines []string) []model.Record {
	var out []model.Record
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isHeadingLine(trimmed) {
			continue
		}
		m := shelterLineRe.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		rec := model.Record{
			Type:     model.RecordTypeShelter,
			Name:     strings.TrimSpace(m[1]),
			Location: model.Location{County: strings.TrimSpace(m[2])},
		}
		if m[3] != "" {
			rec.Contacts = append(rec.Contacts, model.Contact{Type: "phone", Value: strings.TrimSpace(m[3])})
		}
		out = append(out, rec)
	}
	return out
}

// parseGenericLines captures each non-empty line as a record name.
func parseGenericLines(lines []string, defaultType model.RecordType) []model.Record {
	var out []model.Record
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || isHeadingLine(trimmed) {
			continue
		}
		out = append(out, model.Record{Type: defaultType, Name: trimmed})
	}
	return out
}

var phoneLikeRe = regexp.MustCompile(`^[+0-9][0-9 ()-]{8,}$`)

func looksLikePhone(s string) bool {
	return phoneLikeRe.MatchString(strings.TrimSpace(s))
}

// isHeadingLine filters out titles, column headers, and page furniture.
func isHeadingLine(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	switch {
	case lower == "":
		return true
	case strings.HasPrefix(lower, "page "):
		return true
	case strings.HasPrefix(lower, "list of licensed"):
		return true
	case strings.HasPrefix(lower, "licensed health facilities"):
		return true
	case strings.HasPrefix(lower, "shelters network"):
		return true
	case strings.HasPrefix(lower, "shelter directory"):
		return true
	case lower == "facility name" || strings.HasPrefix(lower, "facility name "):
		return true
	case lower == "name" || strings.HasPrefix(lower, "name  "):
		return true
	default:
		return false
	}
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func firstN(lines []string, n int) []string {
	if len(lines) < n {
		return lines
	}
	return lines[:n]
}
