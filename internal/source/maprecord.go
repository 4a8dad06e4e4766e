package source

import (
	"strconv"
	"strings"

	"github.com/hudumadata/facility-cli/internal/model"
)

// Header aliases seen across registry exports. Keys are normalized
// header names, values are the canonical field each maps to.
var headerAliases = map[string]string{
	"name":              "name",
	"facility_name":     "name",
	"facility":          "name",
	"organisation":      "name",
	"organization":      "name",
	"organization_name": "name",
	"station_name":      "name",

	"description": "description",
	"notes":       "description",

	"address":          "address",
	"physical_address": "address",
	"location_details": "address",

	"county":       "county",
	"county_name":  "county",
	"constituency": "constituency",
	"sub_county":   "constituency",
	"subcounty":    "constituency",
	"ward":         "ward",

	"latitude":  "latitude",
	"lat":       "latitude",
	"longitude": "longitude",
	"lon":       "longitude",
	"lng":       "longitude",
	"long":      "longitude",

	"phone":        "phone",
	"phone_number": "phone",
	"telephone":    "phone",
	"mobile":       "phone",
	"email":        "email",
	"email_address": "email",
	"website":      "website",
	"url":          "website",

	"services":          "services",
	"services_offered":  "services",
	"service_category":  "services",
	"operating_hours":   "operating_hours",
	"opening_hours":     "operating_hours",
	"hours":             "operating_hours",
	"capacity":          "capacity",
	"bed_capacity":      "capacity",
	"type":              "record_type",
	"facility_type":     "record_type",
	"record_type":       "record_type",
}

func normalizeHeader(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	s = strings.NewReplacer(" ", "_", "-", "_", ".", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return s
}

// canonicalField maps a raw source header to its canonical field name,
// or returns the normalized header itself when no alias matches.
func canonicalField(header string) string {
	n := normalizeHeader(header)
	if canonical, ok := headerAliases[n]; ok {
		return canonical
	}
	return n
}

// recordFromMap converts one extracted field map into a Record. The
// default record type applies unless the row carries its own type tag.
// Both flat county/latitude style fields and values nested under a
// location prefix are accepted.
func recordFromMap(fields map[string]string, defaultType model.RecordType) model.Record {
	rec := model.Record{Type: defaultType}

	var lat, lon *float64
	for key, raw := range fields {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}

		norm := normalizeHeader(key)
		field := canonicalField(norm)
		if field == norm && strings.HasPrefix(norm, "location_") {
			// Values nested under a location object arrive prefixed.
			field = canonicalField(strings.TrimPrefix(norm, "location_"))
		}
		switch field {
		case "name":
			rec.Name = value
		case "description":
			rec.Description = value
		case "address":
			rec.Address = value
		case "county":
			rec.Location.County = value
		case "constituency":
			rec.Location.Constituency = value
		case "ward":
			rec.Location.Ward = value
		case "latitude":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				lat = &f
			}
		case "longitude":
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				lon = &f
			}
		case "phone", "email", "website":
			rec.Contacts = append(rec.Contacts, model.Contact{Type: field, Value: value})
		case "services":
			for _, s := range strings.Split(value, ";") {
				if s = strings.TrimSpace(s); s != "" {
					rec.Services = append(rec.Services, model.Service{Category: s})
				}
			}
		case "operating_hours":
			rec.OperatingHours = value
		case "capacity":
			if n, err := strconv.Atoi(value); err == nil {
				rec.Capacity = n
			}
		case "record_type":
			if t := parseRecordType(value); t != "" {
				rec.Type = t
			}
		default:
			rec.SetExtra(field, value)
		}
	}

	// Coordinates only make sense as a pair.
	if lat != nil && lon != nil {
		rec.SetCoordinates(*lat, *lon)
	}
	return rec
}

func parseRecordType(value string) model.RecordType {
	switch normalizeHeader(value) {
	case "facility", "health_facility", "hospital", "clinic", "dispensary":
		return model.RecordTypeFacility
	case "gbv_organization", "gbv", "gbv_org":
		return model.RecordTypeGBVOrganization
	case "shelter", "safe_house":
		return model.RecordTypeShelter
	case "police_station", "police", "police_post":
		return model.RecordTypePoliceStation
	case "geographic":
		return model.RecordTypeGeographic
	case "contact":
		return model.RecordTypeContact
	case "service":
		return model.RecordTypeService
	case "generic":
		return model.RecordTypeGeneric
	default:
		return ""
	}
}

// recordTypeFromConfig resolves the default record type of a source.
func recordTypeFromConfig(src model.DataSource) model.RecordType {
	if t := parseRecordType(configValue(src, "recordType", "")); t != "" {
		return t
	}
	return model.RecordTypeFacility
}
