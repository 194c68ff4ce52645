package ns

import (
	"time"
)

type Timeouts struct {
	// NotifyPeriod is how often subscribed characteristics push a fresh value.
	NotifyPeriod time.Duration
	// PauseWindow is how long a volume freeze lasts before expiring on its own.
	PauseWindow time.Duration
	// BrightnessPoll is the light sensor sampling cadence.
	BrightnessPoll time.Duration
	// VolumeWindow is the audio chunk length each volume sample covers.
	VolumeWindow time.Duration
	// DaemonPing bounds how long the CLI waits for the daemon to answer.
	DaemonPing time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		NotifyPeriod:   500 * time.Millisecond,
		PauseWindow:    5 * time.Second,
		BrightnessPoll: 200 * time.Millisecond,
		VolumeWindow:   200 * time.Millisecond,
		DaemonPing:     2 * time.Second,
	}
}
