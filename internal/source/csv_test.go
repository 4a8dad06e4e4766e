package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hudumadata/facility-cli/internal/model"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func csvSource(t *testing.T, content string) model.DataSource {
	return model.DataSource{
		Name:   "test_csv",
		Type:   model.SourceCSV,
		Config: map[string]string{"filePath": writeTempFile(t, "data.csv", content)},
	}
}

func TestCSVAdapter_Extract(t *testing.T) {
	src := csvSource(t, "facility_name,county,phone\nSt. Mary's Clinic,Nairobi,0711000111\nCoast General,Mombasa,0722000222\n")

	a, err := New(src)
	require.NoError(t, err)
	require.True(t, a.Connect(context.Background()))

	records, err := a.Extract(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "St. Mary's Clinic", records[0].Name)
	assert.Equal(t, "Nairobi", records[0].Location.County)
	assert.Equal(t, "Mombasa", records[1].Location.County)
}

func TestCSVAdapter_ExtractWithLimit(t *testing.T) {
	src := csvSource(t, "name,county\nA One,Nairobi\nB Two,Kiambu\nC Three,Nakuru\n")

	a, err := New(src)
	require.NoError(t, err)

	records, err := a.Extract(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestCSVAdapter_SkipsMalformedRows(t *testing.T) {
	// The quoting error on line 3 must not abort the extraction.
	src := csvSource(t, "name,county\nGood Clinic,Nairobi\n\"bad \"quoted,Kiambu\nAnother Clinic,Nakuru\n")

	a, err := New(src)
	require.NoError(t, err)

	records, err := a.Extract(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestCSVAdapter_CustomDelimiter(t *testing.T) {
	path := writeTempFile(t, "data.csv", "name;county\nSemi Clinic;Kisumu\n")
	a, err := New(model.DataSource{
		Name:   "semi",
		Type:   model.SourceCSV,
		Config: map[string]string{"filePath": path, "delimiter": ";"},
	})
	require.NoError(t, err)

	records, err := a.Extract(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Kisumu", records[0].Location.County)
}

func TestCSVAdapter_ConnectFalseForMissingFile(t *testing.T) {
	a, err := New(model.DataSource{
		Name:   "ghost",
		Type:   model.SourceCSV,
		Config: map[string]string{"filePath": "/does/not/exist.csv"},
	})
	require.NoError(t, err)
	assert.False(t, a.Connect(context.Background()))
}

func TestCSVAdapter_Schema(t *testing.T) {
	src := csvSource(t, "name,county,ward\nX Clinic,Nairobi,Kilimani\n")

	a, err := New(src)
	require.NoError(t, err)

	schema, err := a.Schema(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "county", "ward"}, schema["columns"])
	assert.Equal(t, 1, schema["row_count"])
}
