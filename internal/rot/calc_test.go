package rot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestResolvePercentTemporaryRotWindow(t *testing.T) {
	rules := DefaultRules()

	// Every day of the reduced window resolves to 30.
	for d := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC); !d.After(time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC)); d = d.AddDate(0, 0, 1) {
		require.Equal(t, int64(30), rules.ResolvePercent(KindROT, d), "date %s", d.Format("2006-01-02"))
	}

	outside := []time.Time{
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range outside {
		require.Equal(t, int64(50), rules.ResolvePercent(KindROT, d), "date %s", d.Format("2006-01-02"))
	}
}

func TestResolvePercentRutFlat(t *testing.T) {
	rules := DefaultRules()
	for _, d := range []time.Time{
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC),
	} {
		require.Equal(t, int64(50), rules.ResolvePercent(KindRUT, d))
	}
}

func TestResolvePercentNoRule(t *testing.T) {
	rules := RuleTable{{Kind: KindROT, Percent: 50}}
	require.Zero(t, rules.ResolvePercent(KindRUT, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestCalcDeduction(t *testing.T) {
	cases := []struct {
		labor   string
		percent int64
		want    string
	}{
		{"10000", 30, "3000.00"},
		{"10000", 50, "5000.00"},
		{"333.33", 30, "100.00"},
		{"100.05", 50, "50.03"},
		{"0.01", 30, "0.00"},
	}
	for _, tc := range cases {
		labor := decimal.RequireFromString(tc.labor)
		got := CalcDeduction(labor, tc.percent)
		require.Equal(t, tc.want, got.StringFixed(2), "%s at %d%%", tc.labor, tc.percent)
	}
}
