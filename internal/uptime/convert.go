package uptime

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone lookups must not depend on the host

	"store-monitor-backend/internal/parse"
)

var (
	ErrInvalidLocalTime = errors.New("invalid local time")
	ErrUnknownTimezone  = errors.New("unknown timezone")
)

// ConvertToUTC reads local as wall-clock time in the named zone and returns
// the same instant in UTC. A bare time of day takes its date from day. The
// boolean is false when the string or the zone cannot be understood.
func ConvertToUTC(local, timezone string, day time.Time) (time.Time, bool) {
	t, err := ConvertToUTCErr(local, timezone, day)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ConvertToUTCErr is ConvertToUTC with the failure reason attached. Callers
// resolve the default zone themselves; a blank name is an unknown timezone.
func ConvertToUTCErr(local, timezone string, day time.Time) (time.Time, error) {
	if strings.TrimSpace(timezone) == "" {
		return time.Time{}, fmt.Errorf("%w: empty name", ErrUnknownTimezone)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: %v", ErrUnknownTimezone, timezone, err)
	}
	wall, err := parse.Local(local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidLocalTime, err)
	}
	return wall.In(day, loc).UTC(), nil
}
