package ns

import (
	"time"

	"github.com/pkg/errors"
)

// The controller counts advertising intervals in units of 0.625 ms.
const TickDuration = 625 * time.Microsecond

// Legal advertising interval bounds in ticks (20 ms to 10.24 s).
const (
	MIN_ADVERTISING_TICKS = 0x0020
	MAX_ADVERTISING_TICKS = 0x4000
)

// Millisecond ceiling matching MAX_ADVERTISING_TICKS. Inputs above it can
// wrap in the tick conversion and must be rejected on the millisecond value.
const MAX_INTERVAL_MILLIS = MAX_ADVERTISING_TICKS * 5 / 8

const DEFAULT_INTERVAL_MILLIS = 200

// Interval is a desired advertising interval in milliseconds.
type Interval uint64

// Ticks converts the interval to controller tick units, truncating:
// ms / 0.625 expressed as ms * 8 / 5.
func (iv Interval) Ticks() uint64 {
	return uint64(iv) * 8 / 5
}

func (iv Interval) Duration() time.Duration {
	return time.Duration(iv) * time.Millisecond
}

// Validate checks the converted tick value against the controller's accepted
// range. Callers must not write an interval that fails validation.
func (iv Interval) Validate() (err error) {
	ticks := iv.Ticks()
	if uint64(iv) > MAX_INTERVAL_MILLIS || ticks < MIN_ADVERTISING_TICKS || ticks > MAX_ADVERTISING_TICKS {
		err = errors.Wrapf(ErrInvalidRange,
			"%d ms is %d ticks, accepted range is 0x%04X-0x%04X", iv, ticks,
			MIN_ADVERTISING_TICKS, MAX_ADVERTISING_TICKS)
	}
	return
}
