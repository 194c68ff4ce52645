// Package sensor holds the daemon's two data sources: ambient brightness from
// a TSL2591 over I²C and microphone volume from an ALSA capture stream. Both
// sample in the background and hand out the latest value on demand.
package sensor

import (
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("")

type Sensor interface {
	Name() string
	// Read returns the most recent sample. It never blocks on hardware.
	Read() (float64, error)
	Stop()
}
