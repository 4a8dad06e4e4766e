package source

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
)

type xlsxAdapter struct {
	src        model.DataSource
	filePath   string
	sheetName  string
	recordType model.RecordType
	log        *zap.Logger
}

func newXLSXAdapter(src model.DataSource) *xlsxAdapter {
	return &xlsxAdapter{
		src:        src,
		filePath:   configValue(src, "filePath", ""),
		sheetName:  configValue(src, "sheet", ""),
		recordType: recordTypeFromConfig(src),
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "xlsx")),
	}
}

func (a *xlsxAdapter) Name() string { return a.src.Name }

func (a *xlsxAdapter) Connect(ctx context.Context) bool {
	if a.filePath == "" {
		return false
	}
	_, err := xlsx.OpenFile(a.filePath)
	return err == nil
}

func (a *xlsxAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	header, rows, err := a.readRows()
	if err != nil {
		return nil, err
	}

	var out []model.Record
	for i, row := range rows {
		if limit > 0 && len(out) >= limit {
			break
		}
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) && row[j] != "" {
				fields[h] = row[j]
			}
		}
		if len(fields) == 0 {
			a.log.Warn("skipping empty xlsx row", zap.Int("row", i+2))
			continue
		}
		out = append(out, recordFromMap(fields, a.recordType))
	}
	return out, nil
}

func (a *xlsxAdapter) Schema(ctx context.Context) (map[string]any, error) {
	header, rows, err := a.readRows()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"columns":   header,
		"row_count": len(rows),
	}, nil
}

func (a *xlsxAdapter) readRows() (header []string, rows [][]string, err error) {
	f, err := xlsx.OpenFile(a.filePath)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "source: open xlsx %s", a.filePath)
	}

	sheet, err := a.pickSheet(f)
	if err != nil {
		return nil, nil, err
	}

	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	if header == nil {
		return nil, nil, eris.New("source: xlsx sheet has no header row")
	}
	return header, rows, nil
}

func (a *xlsxAdapter) pickSheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if a.sheetName != "" {
		sheet, ok := f.Sheet[a.sheetName]
		if !ok {
			return nil, eris.Errorf("source: xlsx sheet %q not found", a.sheetName)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("source: xlsx file has no sheets")
	}
	return f.Sheets[0], nil
}
