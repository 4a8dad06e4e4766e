package source

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/hudumadata/facility-cli/internal/model"
)

// docxAdapter extracts records from Word documents. A .docx file is a
// ZIP archive; the paragraph text lives in word/document.xml.
type docxAdapter struct {
	src        model.DataSource
	filePath   string
	recordType model.RecordType
	log        *zap.Logger
}

func newDOCXAdapter(src model.DataSource) *docxAdapter {
	return &docxAdapter{
		src:        src,
		filePath:   configValue(src, "filePath", ""),
		recordType: recordTypeFromConfig(src),
		log:        zap.L().With(zap.String("source", src.Name), zap.String("adapter", "docx")),
	}
}

func (a *docxAdapter) Name() string { return a.src.Name }

func (a *docxAdapter) Connect(ctx context.Context) bool {
	r, err := zip.OpenReader(a.filePath)
	if err != nil {
		return false
	}
	defer r.Close()
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

func (a *docxAdapter) Extract(ctx context.Context, limit int) ([]model.Record, error) {
	text, err := a.extractText()
	if err != nil {
		return nil, err
	}
	records := parseDocumentText(text, a.recordType, a.log)
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (a *docxAdapter) Schema(ctx context.Context) (map[string]any, error) {
	text, err := a.extractText()
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

// extractText returns the document's paragraphs, one per line.
func (a *docxAdapter) extractText() (string, error) {
	r, err := zip.OpenReader(a.filePath)
	if err != nil {
		return "", eris.Wrapf(err, "source: open docx %s", a.filePath)
	}
	defer r.Close()

	for _, f := range r.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", eris.Wrap(err, "source: open document.xml")
		}
		defer rc.Close()
		return docxParagraphs(rc)
	}
	return "", eris.New("source: docx missing word/document.xml")
}

// docxParagraphs streams the WordprocessingML, joining text runs within
// each paragraph and separating paragraphs with newlines.
func docxParagraphs(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	var para strings.Builder
	inText := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", eris.Wrap(err, "source: parse docx xml")
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if para.Len() > 0 {
					sb.WriteString(para.String())
					para.Reset()
				}
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		sb.WriteString(para.String())
	}
	return sb.String(), nil
}
