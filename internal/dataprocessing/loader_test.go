package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadCSV(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())

	path := writeTestFile(t, dir, "snapshot.csv",
		"Country_Region,Last_Update,Confirmed,Deaths\n"+
			"X,2021-01-01T08:00:00Z,100,5\n"+
			"X,2021-01-01T20:00:00Z,10,1\n"+
			"Y,2021-01-02T00:00:00Z,50,2\n")

	rows, skipped, err := loader.LoadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, rows, 3)

	assert.Equal(t, "X", rows[0].Country)
	assert.Equal(t, "2021-01-01T08:00:00Z", rows[0].Timestamp)
	assert.Equal(t, int64(100), rows[0].Confirmed)
	assert.Equal(t, int64(5), rows[0].Deaths)
	assert.Equal(t, "Y", rows[2].Country)
}

func TestLoader_LoadCSV_HeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "canonical", header: "Country_Region,Last_Update,Confirmed,Deaths"},
		{name: "slash country", header: "Country/Region,Last Update,Confirmed,Deaths"},
		{name: "plain names", header: "country,date,cases,deaths"},
		{name: "mixed case", header: "COUNTRY,DATE,CONFIRMED,DEATHS"},
	}

	loader := NewLoader(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeTestFile(t, dir, "v.csv",
				tt.header+"\nX,2021-01-01,7,1\n")

			rows, _, err := loader.LoadCSV(context.Background(), path)
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, int64(7), rows[0].Confirmed)
		})
	}
}

func TestLoader_LoadCSV_BOMPrefixedHeader(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())

	// Excel CSV exports prefix the file, and so the first header cell,
	// with a UTF-8 byte-order mark.
	bom := string([]byte{0xEF, 0xBB, 0xBF})
	path := writeTestFile(t, dir, "bom.csv",
		bom+"Country_Region,Last_Update,Confirmed,Deaths\n"+
			"X,2021-01-01,9,2\n")

	rows, skipped, err := loader.LoadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0].Country)
	assert.Equal(t, int64(9), rows[0].Confirmed)
}

func TestLoader_LoadCSV_SkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())

	path := writeTestFile(t, dir, "dirty.csv",
		"Country_Region,Last_Update,Confirmed,Deaths\n"+
			"X,2021-01-01,\"1,234\",5\n"+ // thousands separator accepted
			"Y,2021-01-01,120.0,3\n"+ // float rendering accepted
			"Z,2021-01-01,not-a-number,0\n"+ // unparseable count skipped
			"W,2021-01-01\n") // short row skipped

	rows, skipped, err := loader.LoadCSV(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1234), rows[0].Confirmed)
	assert.Equal(t, int64(120), rows[1].Confirmed)
}

func TestLoader_LoadCSV_MissingColumns(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())

	path := writeTestFile(t, dir, "bad.csv",
		"Region,When,Total\nX,2021-01-01,5\n")

	_, _, err := loader.LoadCSV(context.Background(), path)
	assert.Error(t, err)
}

func TestLoader_LoadFile_UnsupportedExtension(t *testing.T) {
	loader := NewLoader(testLogger())
	_, _, err := loader.LoadFile(context.Background(), "snapshot.json")
	assert.ErrorContains(t, err, "unsupported snapshot format")
}

func TestLoader_LoadDir(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())

	writeTestFile(t, dir, "a.csv",
		"Country_Region,Last_Update,Confirmed,Deaths\nX,2021-01-01,1,0\n")
	writeTestFile(t, dir, "b.csv",
		"Country_Region,Last_Update,Confirmed,Deaths\nY,2021-01-02,2,0\n")
	writeTestFile(t, dir, "notes.txt", "ignored")

	rows, skipped, err := loader.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	require.Len(t, rows, 2)

	// Directory order is deterministic: files load in sorted path order.
	assert.Equal(t, "X", rows[0].Country)
	assert.Equal(t, "Y", rows[1].Country)
}

func TestLoader_LoadDir_ToleratesUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())

	writeTestFile(t, dir, "good.csv",
		"Country_Region,Last_Update,Confirmed,Deaths\nX,2021-01-01,1,0\n")
	writeTestFile(t, dir, "broken.csv", "no,usable,header\n1,2,3\n")

	rows, _, err := loader.LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "X", rows[0].Country)
}

func TestLoader_LoadDir_Empty(t *testing.T) {
	loader := NewLoader(testLogger())

	_, _, err := loader.LoadDir(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNoUsableData)
}

func TestLoader_LoadDir_AllUnreadable(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(testLogger())
	writeTestFile(t, dir, "broken.csv", "no,usable,header\n")

	_, _, err := loader.LoadDir(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNoUsableData)
}
