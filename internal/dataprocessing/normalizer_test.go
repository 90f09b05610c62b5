package dataprocessing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidcli/internal/shared/testutil"
	"covidcli/pkg/contracts/domain"
)

func TestNormalizer_Normalize(t *testing.T) {
	ctx := context.Background()
	n := NewNormalizer(nil)

	tests := []struct {
		name         string
		rows         []domain.RawSnapshot
		wantKept     int
		wantExcluded int
	}{
		{
			name:         "empty input",
			rows:         []domain.RawSnapshot{},
			wantKept:     0,
			wantExcluded: 0,
		},
		{
			name: "all parseable",
			rows: []domain.RawSnapshot{
				{Country: "Morocco", Timestamp: "2021-01-01T08:00:00Z", Confirmed: 10, Deaths: 1},
				{Country: "Morocco", Timestamp: "2021-01-02 20:15:00", Confirmed: 12, Deaths: 1},
			},
			wantKept:     2,
			wantExcluded: 0,
		},
		{
			name: "unparseable timestamp dropped",
			rows: []domain.RawSnapshot{
				{Country: "France", Timestamp: "not-a-date", Confirmed: 5, Deaths: 0},
				{Country: "France", Timestamp: "2021-03-01", Confirmed: 6, Deaths: 0},
			},
			wantKept:     1,
			wantExcluded: 1,
		},
		{
			name: "blank country dropped",
			rows: []domain.RawSnapshot{
				{Country: "  ", Timestamp: "2021-03-01", Confirmed: 5, Deaths: 0},
			},
			wantKept:     0,
			wantExcluded: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, excluded := n.Normalize(ctx, tt.rows)
			assert.Len(t, records, tt.wantKept)
			assert.Equal(t, tt.wantExcluded, excluded)
		})
	}
}

func TestNormalizer_TruncatesToCalendarDate(t *testing.T) {
	ctx := context.Background()
	n := NewNormalizer(nil)

	// Same calendar day reported at different times of day: both truncate
	// to the identical UTC midnight.
	rows := []domain.RawSnapshot{
		{Country: "X", Timestamp: "2021-01-01T08:00:00Z", Confirmed: 100, Deaths: 5},
		{Country: "X", Timestamp: "2021-01-01T20:00:00Z", Confirmed: 10, Deaths: 1},
	}

	records, excluded := n.Normalize(ctx, rows)
	require.Len(t, records, 2)
	assert.Zero(t, excluded)

	want := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range records {
		assert.True(t, r.Date.Equal(want), "date %v should be UTC midnight", r.Date)
		assert.Zero(t, r.Date.Hour())
	}
}

func TestNormalizer_LogsExclusions(t *testing.T) {
	handler := testutil.NewBufferedSlogHandler(nil)
	n := NewNormalizer(slog.New(handler))

	_, excluded := n.Normalize(context.Background(), []domain.RawSnapshot{
		{Country: "X", Timestamp: "garbage", Confirmed: 1, Deaths: 0},
		{Country: "X", Timestamp: "2021-01-01", Confirmed: 2, Deaths: 0},
	})
	require.Equal(t, 1, excluded)

	assert.True(t, handler.HasMessage("excluded rows during normalization"))
	warns := handler.RecordsByLevel(slog.LevelWarn)
	require.Len(t, warns, 1)
	assert.Equal(t, int64(1), warns[0].Attrs["excluded"])
}

func TestNormalizer_CountryTrimmed(t *testing.T) {
	ctx := context.Background()
	n := NewNormalizer(nil)

	records, _ := n.Normalize(ctx, []domain.RawSnapshot{
		{Country: " Morocco ", Timestamp: "2021-01-01", Confirmed: 1, Deaths: 0},
	})
	require.Len(t, records, 1)
	assert.Equal(t, "Morocco", records[0].Country)
}

func TestParseSnapshotDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"rfc3339 utc", "2021-06-15T23:59:59Z", "2021-06-15", true},
		{"rfc3339 with offset", "2021-06-15T22:30:00-04:00", "2021-06-16", true},
		{"naive datetime", "2021-06-15 10:00:00", "2021-06-15", true},
		{"bare date", "2021-06-15", "2021-06-15", true},
		{"us short form", "6/15/21 10:00", "2021-06-15", true},
		{"garbage", "yesterday", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSnapshotDate(tt.raw)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
				assert.Equal(t, time.UTC, got.Location())
			}
		})
	}
}
