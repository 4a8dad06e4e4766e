package source

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
)

// pdfAdapter extracts records from PDF documents via the pdftotext CLI
// tool, preserving layout so tabular listings keep their columns.
type pdfAdapter struct {
	src        model.DataSource
	filePath   string
	binPath    string
	recordType model.RecordType
	log        *zap.Logger
}

func newPDFAdapter(src model.DataSource) *pdfAdapter {
	return &pdfAdapter{
		src:        src,
		filePath:   configValue(src, "filePath", ""),
		binPath:    configValue(src, "pdftotextPath", "pdftotext"),
		recordType: recordTypeFromConfig(src),
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "pdf")),
	}
}

func (a *pdfAdapter) Name() string { return a.src.Name }

func (a *pdfAdapter) Connect(ctx context.Context) bool {
	if a.filePath == "" {
		return false
	}
	if _, err := os.Stat(a.filePath); err != nil {
		return false
	}
	_, err := exec.LookPath(a.binPath)
	return err == nil
}

func (a *pdfAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	text, err := a.extractText(ctx)
	if err != nil {
		return nil, err
	}
	records := parseDocumentText(text, a.recordType, a.log)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *pdfAdapter) Schema(ctx context.Context) (map[string]any, error) {
	text, err := a.extractText(ctx)
	if err != nil {
		return nil, err
	}
	lines := splitLines(text)
	return map[string]any{
		"file":         a.filePath,
		"line_count":   len(lines),
		"record_count": len(parseDocumentText(text, a.recordType, a.log)),
	}, nil
}

// extractText runs pdftotext -layout and returns stdout.
func (a *pdfAdapter) extractText(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, a.binPath, "-layout", a.filePath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "source: pdftotext failed for %s: %s", a.filePath, stderr.String())
	}
	return stdout.String(), nil
}
