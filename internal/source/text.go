package source

import (
	"context"
	"io"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
)

// textAdapter captures plain text listings, one record per line, with
// the same layout recognition the PDF path uses.
type textAdapter struct {
	src        model.DataSource
	filePath   string
	recordType model.RecordType
	log        *zap.Logger
}

func newTextAdapter(src model.DataSource) *textAdapter {
	return &textAdapter{
		src:        src,
		filePath:   configValue(src, "filePath", ""),
		recordType: recordTypeFromConfig(src),
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "text")),
	}
}

func (a *textAdapter) Name() string { return a.src.Name }

func (a *textAdapter) Connect(ctx context.Context) bool {
	return a.filePath != "" && reachable(ctx, a.filePath)
}

func (a *textAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	text, err := a.readAll(ctx)
	if err != nil {
		return nil, err
	}
	records := parseDocumentText(text, a.recordType, a.log)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *textAdapter) Schema(ctx context.Context) (map[string]any, error) {
	text, err := a.readAll(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"file":       a.filePath,
		"line_count": len(splitLines(text)),
	}, nil
}

func (a *textAdapter) readAll(ctx context.Context) (string, error) {
	rc, err := openPath(ctx, a.filePath)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", eris.Wrapf(err, "source: read %s", a.filePath)
	}
	return string(data), nil
}
