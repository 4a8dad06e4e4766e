// Package model defines the record types flowing through the ingestion pipeline.
package model

// RecordType tags a record with its registry variant. The validator selects
// its schema by this tag; unknown tags fall back to RecordTypeGeneric.
type RecordType string

const (
	RecordTypeFacility        RecordType = "facility"
	RecordTypeGBVOrganization RecordType = "gbv_organization"
	RecordTypeShelter         RecordType = "shelter"
	RecordTypePoliceStation   RecordType = "police_station"
	RecordTypeGeographic      RecordType = "geographic"
	RecordTypeContact         RecordType = "contact"
	RecordTypeService         RecordType = "service"
	RecordTypeGeneric         RecordType = "generic"
)

// Contact is a single way of reaching a facility or organization.
type Contact struct {
	Type  string `json:"type"` // "phone", "email", "website"
	Value string `json:"value"`
}

// Service is one service offered at a facility.
type Service struct {
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// Location holds the administrative hierarchy and coordinates of a record.
// Latitude/Longitude are pointers so "absent" is distinguishable from zero.
type Location struct {
	County       string   `json:"county,omitempty"`
	Constituency string   `json:"constituency,omitempty"`
	Ward         string   `json:"ward,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// Record is the uniform in-memory shape every source adapter produces and
// every pipeline stage consumes. Structured fields cover the known registry
// variants; Extra carries source fields with no structured home.
type Record struct {
	Type           RecordType        `json:"type"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Address        string            `json:"address,omitempty"`
	Location       Location          `json:"location"`
	Contacts       []Contact         `json:"contacts,omitempty"`
	Services       []Service         `json:"services,omitempty"`
	OperatingHours string            `json:"operating_hours,omitempty"`
	Capacity       int               `json:"capacity,omitempty"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// Coordinates returns the record's coordinate pair, and whether both are present.
func (r *Record) Coordinates() (lat, lon float64, ok bool) {
	if r.Location.Latitude == nil || r.Location.Longitude == nil {
		return 0, 0, false
	}
	return *r.Location.Latitude, *r.Location.Longitude, true
}

// SetCoordinates stores a coordinate pair on the record.
func (r *Record) SetCoordinates(lat, lon float64) {
	r.Location.Latitude = &lat
	r.Location.Longitude = &lon
}

// Clone returns a deep copy of the record. Merge operations mutate the copy,
// never the group members.
func (r *Record) Clone() Record {
	out := *r
	if r.Location.Latitude != nil {
		lat := *r.Location.Latitude
		out.Location.Latitude = &lat
	}
	if r.Location.Longitude != nil {
		lon := *r.Location.Longitude
		out.Location.Longitude = &lon
	}
	out.Contacts = append([]Contact(nil), r.Contacts...)
	out.Services = append([]Service(nil), r.Services...)
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// SetExtra records a key/value in the Extra bag, allocating it if needed.
func (r *Record) SetExtra(key, value string) {
	if r.Extra == nil {
		r.Extra = make(map[string]string)
	}
	r.Extra[key] = value
}
