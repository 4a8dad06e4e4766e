package source

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
	"github.com/hudumadata/facility-cli/internal/resilience"
)

type apiAdapter struct {
	src        model.DataSource
	baseURL    string
	endpoint   string
	headers    map[string]string
	params     map[string]string
	arrayKey   string
	recordType model.RecordType
	httpClient *http.Client
	log        *zap.Logger
}

func newAPIAdapter(src model.DataSource) *apiAdapter {
	headers := map[string]string{}
	if raw := configValue(src, "headers", ""); raw != "" {
		// Comma-separated Key=Value pairs.
		for _, pair := range strings.Split(raw, ",") {
			if k, v, ok := strings.Cut(pair, "="); ok {
				headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
	}
	params := map[string]string{}
	if raw := configValue(src, "params", ""); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			if k, v, ok := strings.Cut(pair, "="); ok {
				params[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}
		}
	}
	return &apiAdapter{
		src:        src,
		baseURL:    strings.TrimRight(configValue(src, "baseUrl", ""), "/"),
		endpoint:   configValue(src, "endpoint", "/"),
		headers:    headers,
		params:     params,
		arrayKey:   configValue(src, "arrayKey", ""),
		recordType: recordTypeFromConfig(src),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "api")),
	}
}

func (a *apiAdapter) Name() string { return a.src.Name }

func (a *apiAdapter) Connect(ctx context.Context) bool {
	if a.baseURL == "" {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.requestURL(), nil)
	if err != nil {
		return false
	}
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode < 400
}

func (a *apiAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	items, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(),
		func(ctx context.Context) ([]map[string]any, error) {
			return a.fetch(ctx)
		})
	if err != nil {
		return nil, err
	}
	return itemsToRecords(items, limit, a.recordType, a.log), nil
}

func (a *apiAdapter) Schema(ctx context.Context) (map[string]any, error) {
	items, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}
	keys := map[string]bool{}
	for _, item := range items {
		for k := range item {
			keys[k] = true
		}
	}
	fields := make([]string, 0, len(keys))
	for k := range keys {
		fields = append(fields, k)
	}
	return map[string]any{
		"endpoint":     a.requestURL(),
		"fields":       fields,
		"record_count": len(items),
	}, nil
}

func (a *apiAdapter) fetch(ctx context.Context) ([]map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.requestURL(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "source: build api request")
	}
	for k, v := range a.headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "source: api request")
	}
	defer resp.Body.Close()

	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(
			eris.Errorf("source: api status %d", resp.StatusCode), resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("source: api status %d", resp.StatusCode)
	}

	items, err := decodeItems(resp.Body, a.arrayKey)
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (a *apiAdapter) requestURL() string {
	u := a.baseURL + "/" + strings.TrimLeft(a.endpoint, "/")
	if len(a.params) == 0 {
		return u
	}
	q := url.Values{}
	for k, v := range a.params {
		q.Set(k, v)
	}
	return u + "?" + q.Encode()
}
