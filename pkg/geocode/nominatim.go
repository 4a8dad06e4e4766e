package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Nominatim queries the OpenStreetMap Nominatim search API. The public
// instance requires an identifying User-Agent and allows one request
// per second.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// NewNominatim creates a Nominatim provider.
func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: newHTTPClient(timeout),
	}
}

func (n *Nominatim) Name() string { return "nominatim" }

type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
}

// Search geocodes a query. Lookups are biased to Kenya via the
// countrycodes filter.
func (n *Nominatim) Search(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("q", freeTextQuery(q))
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "ke")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		n.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", n.userAgent)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: unexpected status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, eris.Wrap(err, "nominatim: decode response")
	}
	if len(results) == 0 {
		return &Result{Matched: false}, nil
	}

	r := results[0]
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse latitude")
	}
	lon, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: parse longitude")
	}

	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		Accuracy:    nominatimAccuracy(r.Class, r.Type),
		Confidence:  nominatimConfidence(r),
		DisplayName: r.DisplayName,
		Source:      n.Name(),
		Matched:     true,
	}, nil
}

func nominatimAccuracy(class, osmType string) string {
	switch {
	case class == "building" || class == "amenity" || class == "healthcare" || class == "office":
		return "exact"
	case class == "highway" || osmType == "residential":
		return "street"
	case osmType == "city" || osmType == "town" || osmType == "village" || class == "boundary":
		return "locality"
	default:
		return "approximate"
	}
}

// nominatimConfidence blends place-type specificity with the importance
// field into [0,1].
func nominatimConfidence(r nominatimResult) float64 {
	base := 0.4
	switch nominatimAccuracy(r.Class, r.Type) {
	case "exact":
		base = 0.8
	case "street":
		base = 0.6
	case "locality":
		base = 0.5
	}
	conf := base + 0.2*r.Importance
	if conf > 1 {
		conf = 1
	}
	return conf
}

func freeTextQuery(q Query) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{q.Address, q.Ward, q.Constituency, q.County} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, "Kenya")
	return strings.Join(parts, ", ")
}
