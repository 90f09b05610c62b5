package query

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

func derived(country string, date time.Time, confirmed, deaths, recovered, active int64) domain.DerivedRecord {
	return domain.DerivedRecord{
		DailyCountryRecord: domain.DailyCountryRecord{
			Country:   country,
			Date:      date,
			Confirmed: confirmed,
			Deaths:    deaths,
		},
		Recovered: recovered,
		Active:    active,
	}
}

// testDataset mirrors the two-day single-country example used across the
// pipeline tests, plus a second country to exercise isolation.
func testDataset() *domain.Dataset {
	return &domain.Dataset{
		Records: []domain.DerivedRecord{
			derived("X", day(2021, 1, 1), 110, 6, 83, 21),
			derived("X", day(2021, 1, 2), 50, 2, 38, 10),
			derived("X", day(2021, 1, 3), 200, 10, 152, 38),
			derived("Y", day(2021, 1, 2), 5, 0, 4, 1),
		},
	}
}

func TestEngine_Countries(t *testing.T) {
	e := NewEngine(testDataset())
	assert.Equal(t, []string{"X", "Y"}, e.Countries())

	// Mutating the returned slice must not affect the engine.
	got := e.Countries()
	got[0] = "mutated"
	assert.Equal(t, []string{"X", "Y"}, e.Countries())
}

func TestEngine_DateBounds(t *testing.T) {
	e := NewEngine(testDataset())
	min, max, ok := e.DateBounds()
	require.True(t, ok)
	assert.Equal(t, day(2021, 1, 1), min)
	assert.Equal(t, day(2021, 1, 3), max)
}

func TestEngine_DateBounds_EmptyDataset(t *testing.T) {
	e := NewEngine(&domain.Dataset{})
	_, _, ok := e.DateBounds()
	assert.False(t, ok)
}

func TestEngine_Query_RangeInclusive(t *testing.T) {
	e := NewEngine(testDataset())

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		wantDates []time.Time
	}{
		{
			name:      "full range includes both boundary dates",
			start:     day(2021, 1, 1),
			end:       day(2021, 1, 3),
			wantDates: []time.Time{day(2021, 1, 1), day(2021, 1, 2), day(2021, 1, 3)},
		},
		{
			name:      "single day",
			start:     day(2021, 1, 2),
			end:       day(2021, 1, 2),
			wantDates: []time.Time{day(2021, 1, 2)},
		},
		{
			name:      "range wider than data clips to data",
			start:     day(2020, 12, 1),
			end:       day(2021, 2, 1),
			wantDates: []time.Time{day(2021, 1, 1), day(2021, 1, 2), day(2021, 1, 3)},
		},
		{
			name:      "range before data is empty",
			start:     day(2020, 1, 1),
			end:       day(2020, 1, 31),
			wantDates: nil,
		},
		{
			name:      "intraday times truncate to the calendar date",
			start:     time.Date(2021, 1, 1, 23, 59, 0, 0, time.UTC),
			end:       time.Date(2021, 1, 2, 0, 1, 0, 0, time.UTC),
			wantDates: []time.Time{day(2021, 1, 1), day(2021, 1, 2)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.Query("X", tt.start, tt.end)
			require.NoError(t, err)
			require.Len(t, res.Series, len(tt.wantDates))
			for i, want := range tt.wantDates {
				assert.Equal(t, want, res.Series[i].Date)
			}
		})
	}
}

func TestEngine_Query_ReversedRangeIsEmpty(t *testing.T) {
	e := NewEngine(testDataset())

	res, err := e.Query("X", day(2021, 1, 3), day(2021, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, res.Series)
	assert.Equal(t, KPIs{}, res.KPIs)
}

func TestEngine_Query_UnknownCountry(t *testing.T) {
	e := NewEngine(testDataset())

	res, err := e.Query("Atlantis", day(2021, 1, 1), day(2021, 1, 3))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrUnknownCountry)
}

func TestEngine_Query_KPIs(t *testing.T) {
	e := NewEngine(testDataset())

	// Two-day window: totals are the max over the window, active is the
	// last record's value.
	res, err := e.Query("X", day(2021, 1, 1), day(2021, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, KPIs{
		TotalConfirmed: 110,
		TotalDeaths:    6,
		TotalRecovered: 83,
		ActiveNow:      10,
	}, res.KPIs)

	// Three-day window: the later, larger day dominates the maxima.
	res, err = e.Query("X", day(2021, 1, 1), day(2021, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, KPIs{
		TotalConfirmed: 200,
		TotalDeaths:    10,
		TotalRecovered: 152,
		ActiveNow:      38,
	}, res.KPIs)
}

func TestEngine_Query_CountriesIsolated(t *testing.T) {
	e := NewEngine(testDataset())

	res, err := e.Query("Y", day(2021, 1, 1), day(2021, 1, 3))
	require.NoError(t, err)
	require.Len(t, res.Series, 1)
	assert.Equal(t, "Y", res.Series[0].Country)
	assert.Equal(t, KPIs{
		TotalConfirmed: 5,
		TotalDeaths:    0,
		TotalRecovered: 4,
		ActiveNow:      1,
	}, res.KPIs)
}

func TestEngine_Query_SeriesIsCopy(t *testing.T) {
	ds := testDataset()
	e := NewEngine(ds)

	res, err := e.Query("X", day(2021, 1, 1), day(2021, 1, 3))
	require.NoError(t, err)
	res.Series[0].Confirmed = -1

	again, err := e.Query("X", day(2021, 1, 1), day(2021, 1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(110), again.Series[0].Confirmed)
}
