package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Photon queries the Komoot Photon geocoding API, used as the fallback
// when Nominatim fails or returns nothing usable.
type Photon struct {
	baseURL    string
	httpClient *http.Client
}

// NewPhoton creates a Photon provider.
func NewPhoton(baseURL string, timeout time.Duration) *Photon {
	return &Photon{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

func (p *Photon) Name() string { return "photon" }

type photonResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties struct {
			Name     string `json:"name"`
			OsmValue string `json:"osm_value"`
			Type     string `json:"type"`
			City     string `json:"city"`
			State    string `json:"state"`
		} `json:"properties"`
	} `json:"features"`
}

func (p *Photon) Search(ctx context.Context, q Query) (*Result, error) {
	params := url.Values{}
	params.Set("q", freeTextQuery(q))
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/api?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "photon: build request")
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "photon: request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("photon: unexpected status %d", resp.StatusCode)
	}

	var body photonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, eris.Wrap(err, "photon: decode response")
	}
	if len(body.Features) == 0 {
		return &Result{Matched: false}, nil
	}

	f := body.Features[0]
	if len(f.Geometry.Coordinates) < 2 {
		return &Result{Matched: false}, nil
	}

	accuracy, confidence := photonAccuracy(f.Properties.Type)
	display := f.Properties.Name
	if f.Properties.City != "" {
		display += ", " + f.Properties.City
	}

	return &Result{
		Latitude:    f.Geometry.Coordinates[1],
		Longitude:   f.Geometry.Coordinates[0],
		Accuracy:    accuracy,
		Confidence:  confidence,
		DisplayName: display,
		Source:      p.Name(),
		Matched:     true,
	}, nil
}

func photonAccuracy(placeType string) (string, float64) {
	switch placeType {
	case "house":
		return "exact", 0.9
	case "street":
		return "street", 0.7
	case "district", "locality", "city":
		return "locality", 0.5
	default:
		return "approximate", 0.4
	}
}
