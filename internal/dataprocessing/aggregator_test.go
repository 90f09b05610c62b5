package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covidcli/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		input []domain.NormalizedRecord
		want  []domain.DailyCountryRecord
	}{
		{
			name:  "empty input",
			input: nil,
			want:  []domain.DailyCountryRecord{},
		},
		{
			name: "single record passes through",
			input: []domain.NormalizedRecord{
				{Country: "X", Date: day(2021, 1, 1), Confirmed: 7, Deaths: 2},
			},
			want: []domain.DailyCountryRecord{
				{Country: "X", Date: day(2021, 1, 1), Confirmed: 7, Deaths: 2},
			},
		},
		{
			name: "same-day regional snapshots summed per country",
			input: []domain.NormalizedRecord{
				{Country: "X", Date: day(2021, 1, 1), Confirmed: 100, Deaths: 5},
				{Country: "X", Date: day(2021, 1, 1), Confirmed: 10, Deaths: 1},
				{Country: "X", Date: day(2021, 1, 2), Confirmed: 50, Deaths: 2},
			},
			want: []domain.DailyCountryRecord{
				{Country: "X", Date: day(2021, 1, 1), Confirmed: 110, Deaths: 6},
				{Country: "X", Date: day(2021, 1, 2), Confirmed: 50, Deaths: 2},
			},
		},
		{
			name: "countries kept apart",
			input: []domain.NormalizedRecord{
				{Country: "A", Date: day(2021, 1, 1), Confirmed: 1, Deaths: 0},
				{Country: "B", Date: day(2021, 1, 1), Confirmed: 2, Deaths: 0},
			},
			want: []domain.DailyCountryRecord{
				{Country: "A", Date: day(2021, 1, 1), Confirmed: 1, Deaths: 0},
				{Country: "B", Date: day(2021, 1, 1), Confirmed: 2, Deaths: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregate_OrderIndependent(t *testing.T) {
	forward := []domain.NormalizedRecord{
		{Country: "X", Date: day(2021, 1, 1), Confirmed: 100, Deaths: 5},
		{Country: "X", Date: day(2021, 1, 1), Confirmed: 10, Deaths: 1},
		{Country: "Y", Date: day(2021, 1, 2), Confirmed: 50, Deaths: 2},
	}
	reversed := []domain.NormalizedRecord{forward[2], forward[1], forward[0]}

	assert.Equal(t, Aggregate(forward), Aggregate(reversed))
}

func TestAggregate_Idempotent(t *testing.T) {
	input := []domain.NormalizedRecord{
		{Country: "X", Date: day(2021, 1, 1), Confirmed: 100, Deaths: 5},
		{Country: "X", Date: day(2021, 1, 1), Confirmed: 10, Deaths: 1},
		{Country: "X", Date: day(2021, 1, 2), Confirmed: 50, Deaths: 2},
	}

	first := Aggregate(input)

	// Re-aggregating already-unique records must be a no-op.
	asNormalized := make([]domain.NormalizedRecord, len(first))
	for i, r := range first {
		asNormalized[i] = domain.NormalizedRecord(r)
	}
	second := Aggregate(asNormalized)

	assert.Equal(t, first, second)
}

func TestAggregate_OneRecordPerKey(t *testing.T) {
	input := []domain.NormalizedRecord{
		{Country: "X", Date: day(2021, 1, 1), Confirmed: 1, Deaths: 0},
		{Country: "X", Date: day(2021, 1, 1), Confirmed: 2, Deaths: 0},
		{Country: "X", Date: day(2021, 1, 1), Confirmed: 3, Deaths: 0},
		{Country: "Y", Date: day(2021, 1, 1), Confirmed: 4, Deaths: 0},
	}

	got := Aggregate(input)
	require.Len(t, got, 2)

	seen := make(map[string]bool)
	for _, r := range got {
		key := r.Country + r.Date.Format("2006-01-02")
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}
}
