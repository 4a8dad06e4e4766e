package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
)

type jsonAdapter struct {
	src        model.DataSource
	filePath   string
	arrayKey   string
	recordType model.RecordType
	log        *zap.Logger
}

func newJSONAdapter(src model.DataSource) *jsonAdapter {
	return &jsonAdapter{
		src:        src,
		filePath:   configValue(src, "filePath", ""),
		arrayKey:   configValue(src, "arrayKey", ""),
		recordType: recordTypeFromConfig(src),
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "json")),
	}
}

func (a *jsonAdapter) Name() string { return a.src.Name }

func (a *jsonAdapter) Connect(ctx context.Context) bool {
	return a.filePath != "" && reachable(ctx, a.filePath)
}

func (a *jsonAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	rc, err := openPath(ctx, a.filePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	items, err := decodeItems(rc, a.arrayKey)
	if err != nil {
		return nil, err
	}
	return itemsToRecords(items, limit, a.recordType, a.log), nil
}

func (a *jsonAdapter) Schema(ctx context.Context) (map[string]any, error) {
	rc, err := openPath(ctx, a.filePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	items, err := decodeItems(rc, a.arrayKey)
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
		"fields":       fields,
		"record_count": len(items),
	}, nil
}

// decodeItems reads a JSON document as a list of objects. A top-level
// array is used directly; otherwise arrayKey selects the list inside a
// wrapper object.
func decodeItems(r io.Reader, arrayKey string) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "source: read json")
	}

	var items []map[string]any
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "source: parse json")
	}
	if arrayKey == "" {
		arrayKey = "data"
	}
	raw, ok := wrapper[arrayKey]
	if !ok {
		return nil, eris.Errorf("source: json key %q not found", arrayKey)
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, eris.Wrapf(err, "source: parse json key %q", arrayKey)
	}
	return items, nil
}

// itemsToRecords converts decoded objects to records, flattening scalar
// values and one level of nesting (the location object) to strings.
func itemsToRecords(items []map[string]any, limit int, recordType model.RecordType, log *zap.Logger) []model.Record {
	var out []model.Record
	for i, item := range items {
		if limit > 0 && len(out) >= limit {
			break
		}
		fields := flattenItem(item)
		if len(fields) == 0 {
			log.Warn("skipping record with no usable fields", zap.Int("index", i))
			continue
		}
		out = append(out, recordFromMap(fields, recordType))
	}
	return out
}

func flattenItem(item map[string]any) map[string]string {
	fields := make(map[string]string, len(item))
	for k, v := range item {
		switch val := v.(type) {
		case string:
			fields[k] = val
		case float64, bool:
			fields[k] = fmt.Sprintf("%v", val)
		case map[string]any:
			for nk, nv := range val {
				switch nval := nv.(type) {
				case string:
					fields[k+"_"+nk] = nval
				case float64, bool:
					fields[k+"_"+nk] = fmt.Sprintf("%v", nval)
				}
			}
		}
	}
	return fields
}
