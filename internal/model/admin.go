package model

// AdminUnit is one row of the administrative hierarchy gazetteer
// (county > constituency > ward), with the ward centroid when known.
type AdminUnit struct {
	County       string  `json:"county"`
	Constituency string  `json:"constituency"`
	Ward         string  `json:"ward"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
}
