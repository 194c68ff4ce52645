package main

import (
	"sync"

	ns "github.com/not-surprised/pi-bluetooth-server"
	"github.com/not-surprised/pi-bluetooth-server/sensor"
)

// errorReading is what clients see when a sensor is absent or failing; the
// wire stays plain text either way.
const errorReading = "error"

// Daemon owns the advertising configuration and the two sensors, and applies
// the pause semantics to the volume readout.
type Daemon struct {
	bounds     ns.AdvertisingBounds
	brightness sensor.Sensor
	volume     sensor.Sensor
	pause      *pauseState

	mu           sync.Mutex
	config       ns.Config
	frozenVolume string
}

func NewDaemon(config ns.Config, bounds ns.AdvertisingBounds, brightness, volume sensor.Sensor) *Daemon {
	return &Daemon{
		bounds:       bounds,
		brightness:   brightness,
		volume:       volume,
		pause:        newPauseState(ns.DefaultTimeouts().PauseWindow),
		config:       config,
		frozenVolume: errorReading,
	}
}

func readSensor(s sensor.Sensor) string {
	if s == nil {
		return errorReading
	}
	value, err := s.Read()
	if err != nil {
		return errorReading
	}
	return ns.FormatReading(value)
}

func (d *Daemon) BrightnessReading() string {
	return readSensor(d.brightness)
}

// VolumeReading returns the live volume level, or the last level seen before
// the current pause window started.
func (d *Daemon) VolumeReading() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pause.Paused() {
		return d.frozenVolume
	}
	d.frozenVolume = readSensor(d.volume)
	return d.frozenVolume
}

// SetInterval validates, applies, and persists a new advertising interval.
// Nothing is written when validation fails.
func (d *Daemon) SetInterval(millis uint64) (ticks uint64, err error) {
	interval := ns.Interval(millis)
	if err = interval.Validate(); err != nil {
		return
	}
	ticks = interval.Ticks()
	if err = d.bounds.Apply(ticks); err != nil {
		return
	}

	d.mu.Lock()
	d.config.IntervalMillis = millis
	config := d.config
	d.mu.Unlock()
	if saveErr := ns.SaveConfig(config); saveErr != nil {
		log.Error("saving config:", saveErr)
	}
	return
}

func (d *Daemon) SetPaused(pause bool) (pausedUntil int64) {
	if pause {
		// snapshot the current level before freezing
		d.VolumeReading()
		return d.pause.Pause().Unix()
	}
	d.pause.Resume()
	return 0
}

func (d *Daemon) Status() ns.StatusResponse {
	status := ns.StatusResponse{
		Brightness: d.BrightnessReading(),
		Volume:     d.VolumeReading(),
	}
	d.mu.Lock()
	status.IntervalMillis = d.config.IntervalMillis
	status.IntervalTicks = d.config.Interval().Ticks()
	d.mu.Unlock()
	if until := d.pause.Until(); !until.IsZero() {
		status.PausedUntil = until.Unix()
	}
	return status
}
