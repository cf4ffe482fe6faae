package timeentry

import "time"

// Winner names the side chosen by conflict resolution.
type Winner string

const (
	WinnerLocal  Winner = "local"
	WinnerServer Winner = "server"
)

// ResolveLWW picks between a client-cached mutation and the server record by
// comparing update timestamps. The server wins ties and any malformed or
// missing client timestamp, so replays are deterministic and a broken clock
// can never clobber server state. Whole-record replacement; no field merge.
func ResolveLWW(localUpdatedAt string, serverUpdatedAt time.Time) Winner {
	local, err := time.Parse(time.RFC3339, localUpdatedAt)
	if err != nil || local.IsZero() {
		return WinnerServer
	}
	if local.After(serverUpdatedAt) {
		return WinnerLocal
	}
	return WinnerServer
}
