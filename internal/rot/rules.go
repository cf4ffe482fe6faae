package rot

import "time"

// PercentRule maps an inclusive date range to a deduction percentage for one
// scheme. A zero From or To leaves that side of the range open.
type PercentRule struct {
	Kind    Kind
	From    time.Time
	To      time.Time
	Percent int64
}

func (r PercentRule) matches(kind Kind, date time.Time) bool {
	if r.Kind != kind {
		return false
	}
	if !r.From.IsZero() && date.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && date.After(r.To) {
		return false
	}
	return true
}

// RuleTable resolves deduction percentages by invoice date. Rules are checked
// in order; the first match wins, so narrow temporary rules go before the
// open-ended defaults.
type RuleTable []PercentRule

// ResolvePercent returns the percentage in force for the scheme on the given
// date, or 0 when no rule matches.
func (t RuleTable) ResolvePercent(kind Kind, invoiceDate time.Time) int64 {
	for _, r := range t {
		if r.matches(kind, invoiceDate) {
			return r.Percent
		}
	}
	return 0
}

// DefaultRules returns the legislative percentages: the temporary ROT raise
// to 30% for 2025-01-01 through 2025-04-30, 50% for ROT outside that window,
// and a flat 50% for RUT.
func DefaultRules() RuleTable {
	return RuleTable{
		{
			Kind:    KindROT,
			From:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			To:      time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC),
			Percent: 30,
		},
		{Kind: KindROT, Percent: 50},
		{Kind: KindRUT, Percent: 50},
	}
}
