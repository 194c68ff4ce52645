package sensor

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"
)

// fakeBus emulates just enough of the TSL2591's register file.
type fakeBus struct {
	registers map[byte]byte
	channel0  uint16
	channel1  uint16
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		registers: map[byte]byte{
			tslRegisterDeviceID: tslDeviceID,
		},
	}
}

func (f *fakeBus) String() string { return "fake-i2c" }

func (f *fakeBus) SetSpeed(freq physic.Frequency) error { return nil }

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if addr != tsl2591Addr {
		return errors.Errorf("unexpected address 0x%02X", addr)
	}
	if len(w) == 0 || w[0]&tslCommandBit != tslCommandBit {
		return errors.New("missing command bit")
	}
	register := w[0] &^ tslCommandBit
	switch {
	case len(w) == 2 && len(r) == 0:
		f.registers[register] = w[1]
	case register == tslRegisterChan0Low && len(r) == 4:
		r[0] = byte(f.channel0)
		r[1] = byte(f.channel0 >> 8)
		r[2] = byte(f.channel1)
		r[3] = byte(f.channel1 >> 8)
	case len(r) == 1:
		r[0] = f.registers[register]
	default:
		return errors.Errorf("unexpected transaction w=%d r=%d", len(w), len(r))
	}
	return nil
}

func newTestDevice(t *testing.T) (*tsl2591, *fakeBus) {
	bus := newFakeBus()
	dev, err := newTSL2591(bus)
	if err != nil {
		t.Fatal(err)
	}
	dev.sleep = func(time.Duration) {}
	return dev, bus
}

func TestTSL2591Init(t *testing.T) {
	dev, bus := newTestDevice(t)
	if dev.state != tslInitialState {
		t.Fatalf("initial state %d", dev.state)
	}
	s := tslStates[tslInitialState]
	if got := bus.registers[tslRegisterControl]; got != s.gain|s.integration {
		t.Fatalf("control register 0x%02X", got)
	}
	if got := bus.registers[tslRegisterEnable]; got != tslEnablePowerOn|tslEnableAEN {
		t.Fatalf("enable register 0x%02X", got)
	}
}

func TestTSL2591RejectsWrongDevice(t *testing.T) {
	bus := newFakeBus()
	bus.registers[tslRegisterDeviceID] = 0x12
	if _, err := newTSL2591(bus); err == nil {
		t.Fatal("expected probe failure")
	}
}

func TestAutorangeStepsDownWhenSaturating(t *testing.T) {
	dev, bus := newTestDevice(t)
	bus.channel0 = 63000
	stepped, err := dev.autorange()
	if err != nil {
		t.Fatal(err)
	}
	if !stepped || dev.state != tslInitialState-1 {
		t.Fatalf("stepped=%v state=%d", stepped, dev.state)
	}
	s := tslStates[dev.state]
	if got := bus.registers[tslRegisterControl]; got != s.gain|s.integration {
		t.Fatalf("control register 0x%02X after step", got)
	}
}

func TestAutorangeStepsUpWhenDark(t *testing.T) {
	dev, _ := newTestDevice(t)
	stepped, err := dev.autorange() // channel0 is 0
	if err != nil {
		t.Fatal(err)
	}
	if !stepped || dev.state != tslInitialState+1 {
		t.Fatalf("stepped=%v state=%d", stepped, dev.state)
	}
}

func TestAutorangeHoldsInBand(t *testing.T) {
	dev, bus := newTestDevice(t)
	bus.channel0 = 30000
	stepped, err := dev.autorange()
	if err != nil {
		t.Fatal(err)
	}
	if stepped || dev.state != tslInitialState {
		t.Fatalf("stepped=%v state=%d", stepped, dev.state)
	}
}

func TestAutorangeStopsAtLadderEnds(t *testing.T) {
	dev, bus := newTestDevice(t)

	bus.channel0 = 63000
	for i := 0; i < len(tslStates); i++ {
		if _, err := dev.autorange(); err != nil {
			t.Fatal(err)
		}
	}
	if dev.state != 0 {
		t.Fatalf("bright: state %d", dev.state)
	}

	bus.channel0 = 0
	for i := 0; i < 2*len(tslStates); i++ {
		if _, err := dev.autorange(); err != nil {
			t.Fatal(err)
		}
	}
	if dev.state != len(tslStates)-1 {
		t.Fatalf("dark: state %d", dev.state)
	}
}

func TestBrightnessNormalizesGainAndIntegration(t *testing.T) {
	dev, bus := newTestDevice(t)
	// state 2: 25x gain, 200 ms integration
	bus.channel0 = 1000
	lux, err := dev.brightness()
	if err != nil {
		t.Fatal(err)
	}
	want := (428.0 / 25.0) * (1.0 / 2.0) * 1000.0 / 100.0
	if lux != want {
		t.Fatalf("lux = %v, want %v", lux, want)
	}
}
