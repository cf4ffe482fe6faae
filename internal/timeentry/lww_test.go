package timeentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveLWW(t *testing.T) {
	server := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		local string
		want  Winner
	}{
		{"local strictly newer", "2025-05-10T12:00:01Z", WinnerLocal},
		{"local much newer", "2025-06-01T00:00:00Z", WinnerLocal},
		{"exact tie goes to server", "2025-05-10T12:00:00Z", WinnerServer},
		{"local older", "2025-05-10T11:59:59Z", WinnerServer},
		{"malformed timestamp goes to server", "yesterday", WinnerServer},
		{"empty timestamp goes to server", "", WinnerServer},
		{"same instant in other zone goes to server", "2025-05-10T14:00:00+02:00", WinnerServer},
		{"strictly newer in other zone", "2025-05-10T14:30:00+02:00", WinnerLocal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveLWW(tc.local, server))
		})
	}
}
