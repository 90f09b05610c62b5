package dataprocessing

import (
	"math"

	"covidcli/pkg/contracts/domain"
)

// recoveryRate is the modeled share of non-fatal cases assumed recovered.
// The source data carries no recovered figures, so this proxy stands in for
// them; consumers must treat the result as an estimate.
const recoveryRate = 0.8

// Derive maps each daily record to a derived record, preserving the
// (country, date) identity one-to-one.
//
// recovered = floor(recoveryRate * max(0, confirmed - deaths)), clamped
// before scaling so recovered is never negative. active is the remainder
// confirmed - deaths - recovered, which may go negative only when
// confirmed - deaths is itself negative; that is a source-data anomaly and
// is deliberately not corrected. The identity
// recovered + active + deaths == confirmed holds for every output record.
func Derive(records []domain.DailyCountryRecord) []domain.DerivedRecord {
	out := make([]domain.DerivedRecord, 0, len(records))
	for _, r := range records {
		base := r.Confirmed - r.Deaths
		if base < 0 {
			base = 0
		}
		recovered := int64(math.Floor(float64(base) * recoveryRate))

		out = append(out, domain.DerivedRecord{
			DailyCountryRecord: r,
			Recovered:          recovered,
			Active:             r.Confirmed - r.Deaths - recovered,
		})
	}
	return out
}
