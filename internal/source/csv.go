package source

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
)

type csvAdapter struct {
	src        model.DataSource
	filePath   string
	delimiter  rune
	recordType model.RecordType
	log        *zap.Logger
}

func newCSVAdapter(src model.DataSource) *csvAdapter {
	delimiter := ','
	if d := configValue(src, "delimiter", ""); d != "" {
		delimiter = rune(d[0])
	}
	return &csvAdapter{
		src:        src,
		filePath:   configValue(src, "filePath", ""),
		delimiter:  delimiter,
		recordType: recordTypeFromConfig(src),
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "csv")),
	}
}

func (a *csvAdapter) Name() string { return a.src.Name }

func (a *csvAdapter) Connect(ctx context.Context) bool {
	return a.filePath != "" && reachable(ctx, a.filePath)
}

func (a *csvAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	rc, err := openPath(ctx, a.filePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.Comma = a.delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "source: read csv header")
	}

	var out []model.Record
	line := 1
	for {
		if limit > 0 && len(out) >= limit {
			break
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			a.log.Warn("skipping malformed csv row", zap.Int("line", line), zap.Error(err))
			continue
		}

		fields := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				fields[h] = row[i]
			}
		}
		rec := recordFromMap(fields, a.recordType)
		if rec.Name == "" && len(rec.Extra) == 0 {
			a.log.Warn("skipping empty csv row", zap.Int("line", line))
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *csvAdapter) Schema(ctx context.Context) (map[string]any, error) {
	rc, err := openPath(ctx, a.filePath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	reader := csv.NewReader(rc)
	reader.Comma = a.delimiter
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "source: read csv header")
	}

	rows := 0
	for {
		if _, err := reader.Read(); err != nil {
			break
		}
		rows++
	}
	return map[string]any{
		"columns":   header,
		"row_count": rows,
	}, nil
}
