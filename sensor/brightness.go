package sensor

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Brightness samples the TSL2591 on a background goroutine and caches the
// latest lux value.
type Brightness struct {
	dev  *tsl2591
	bus  i2c.BusCloser
	poll time.Duration

	mu      sync.Mutex
	value   float64
	lastErr error

	stop chan struct{}
	done chan struct{}
}

// OpenBrightness initializes the host's I²C stack, probes the sensor on the
// default bus, and starts sampling.
func OpenBrightness(poll time.Duration) (b *Brightness, err error) {
	if _, err = host.Init(); err != nil {
		err = errors.Wrap(err, "initialize periph host")
		return
	}
	bus, err := i2creg.Open("")
	if err != nil {
		err = errors.Wrap(err, "open i2c bus")
		return
	}
	dev, err := newTSL2591(bus)
	if err != nil {
		bus.Close()
		return
	}
	b = newBrightnessWith(dev, poll)
	b.bus = bus
	return
}

func newBrightnessWith(dev *tsl2591, poll time.Duration) *Brightness {
	b := &Brightness{
		dev:  dev,
		poll: poll,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.loop()
	return b
}

func (b *Brightness) loop() {
	defer close(b.done)
	for {
		select {
		case <-b.stop:
			return
		case <-time.After(b.poll):
		}

		lux, err := b.dev.brightness()
		if err == nil {
			_, err = b.dev.autorange()
		}
		b.mu.Lock()
		if err != nil {
			b.lastErr = err
			log.Error("brightness sample failed:", err)
		} else {
			b.value = lux
			b.lastErr = nil
		}
		b.mu.Unlock()
	}
}

func (b *Brightness) Name() string {
	return "brightness"
}

func (b *Brightness) Read() (value float64, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.value, b.lastErr
}

func (b *Brightness) Stop() {
	close(b.stop)
	<-b.done
	if err := b.dev.disable(); err != nil {
		log.Error("disable brightness sensor:", err)
	}
	if b.bus != nil {
		b.bus.Close()
	}
	log.Notice("turned off brightness sensor")
}
