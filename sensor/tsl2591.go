package sensor

import (
	"time"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/i2c"
)

// TSL2591 ambient light sensor, always at this address.
const tsl2591Addr = 0x29

const (
	tslCommandBit = 0xA0

	tslRegisterEnable   = 0x00
	tslRegisterControl  = 0x01
	tslRegisterDeviceID = 0x12
	tslRegisterChan0Low = 0x14

	tslEnablePowerOff = 0x00
	tslEnablePowerOn  = 0x01
	tslEnableAEN      = 0x02

	tslDeviceID = 0x50
)

// Gain settings and their multipliers.
const (
	tslGainLow  = 0x00 // 1x
	tslGainMed  = 0x10 // 25x
	tslGainHigh = 0x20 // 428x
	tslGainMax  = 0x30 // 9876x
)

var tslGainFactor = map[byte]float64{
	tslGainLow:  1,
	tslGainMed:  25,
	tslGainHigh: 428,
	tslGainMax:  9876,
}

// Integration time register values; (value+1) * 100 ms.
const (
	tslIntegration100ms = 0x00
	tslIntegration200ms = 0x01
	tslIntegration600ms = 0x05
)

// rangeState is one rung of the autorange ladder. The lo/hi thresholds are
// 5% and 95% of channel 0's range for that configuration; crossing either
// steps the ladder to keep the sensor out of saturation while covering its
// full dynamic range.
type rangeState struct {
	gain        byte
	integration byte
	lo, hi      uint16
}

var tslStates = []rangeState{
	{tslGainLow, tslIntegration100ms, 1843, 35020},
	{tslGainLow, tslIntegration600ms, 3277, 62258},
	{tslGainMed, tslIntegration200ms, 3277, 62258},
	{tslGainHigh, tslIntegration100ms, 1843, 35020},
	{tslGainHigh, tslIntegration600ms, 3277, 62258},
	{tslGainMax, tslIntegration200ms, 3277, 62258},
	{tslGainMax, tslIntegration600ms, 3277, 62258},
}

const tslInitialState = 2

type tsl2591 struct {
	dev   i2c.Dev
	state int
	// injectable so tests don't wait out integration times
	sleep func(time.Duration)
}

func newTSL2591(bus i2c.Bus) (d *tsl2591, err error) {
	d = &tsl2591{
		dev:   i2c.Dev{Bus: bus, Addr: tsl2591Addr},
		sleep: time.Sleep,
	}
	id, err := d.readRegister(tslRegisterDeviceID)
	if err != nil {
		return nil, errors.Wrap(err, "probe TSL2591")
	}
	if id != tslDeviceID {
		return nil, errors.Errorf("unexpected TSL2591 device id 0x%02X", id)
	}
	if err = d.setState(tslInitialState); err != nil {
		return nil, err
	}
	return
}

func (d *tsl2591) readRegister(register byte) (value byte, err error) {
	buf := make([]byte, 1)
	err = d.dev.Tx([]byte{tslCommandBit | register}, buf)
	value = buf[0]
	return
}

func (d *tsl2591) writeRegister(register, value byte) (err error) {
	err = d.dev.Tx([]byte{tslCommandBit | register, value}, nil)
	return
}

func (d *tsl2591) enable() (err error) {
	return d.writeRegister(tslRegisterEnable, tslEnablePowerOn|tslEnableAEN)
}

func (d *tsl2591) disable() (err error) {
	return d.writeRegister(tslRegisterEnable, tslEnablePowerOff)
}

// rawLuminosity reads both photodiode channels: full spectrum and infrared.
func (d *tsl2591) rawLuminosity() (channel0, channel1 uint16, err error) {
	buf := make([]byte, 4)
	if err = d.dev.Tx([]byte{tslCommandBit | tslRegisterChan0Low}, buf); err != nil {
		return
	}
	channel0 = uint16(buf[0]) | uint16(buf[1])<<8
	channel1 = uint16(buf[2]) | uint16(buf[3])<<8
	return
}

// setState reprograms gain and integration time. Power-cycling around the
// write resets the integration state machine; the sleep lets the first full
// integration window complete before the next read.
func (d *tsl2591) setState(state int) (err error) {
	s := tslStates[state]
	if err = d.writeRegister(tslRegisterControl, s.gain|s.integration); err != nil {
		return
	}
	d.state = state
	if err = d.disable(); err != nil {
		return
	}
	if err = d.enable(); err != nil {
		return
	}
	d.sleep(100*time.Millisecond + time.Duration(s.integration+1)*100*time.Millisecond)
	return
}

// autorange takes a single step along the ladder when channel 0 sits outside
// the current state's thresholds. Returns whether it stepped.
func (d *tsl2591) autorange() (stepped bool, err error) {
	channel0, _, err := d.rawLuminosity()
	if err != nil {
		return
	}
	s := tslStates[d.state]
	switch {
	case channel0 > s.hi && d.state > 0:
		err = d.setState(d.state - 1)
		stepped = err == nil
	case channel0 < s.lo && d.state < len(tslStates)-1:
		err = d.setState(d.state + 1)
		stepped = err == nil
	}
	return
}

// brightness converts the current channel 0 count to lux, normalizing out
// gain and integration time against the 428x/100ms reference.
func (d *tsl2591) brightness() (lux float64, err error) {
	channel0, _, err := d.rawLuminosity()
	if err != nil {
		return
	}
	s := tslStates[d.state]
	gainCorrection := 428 / tslGainFactor[s.gain]
	integrationCorrection := 1 / float64(s.integration+1)
	lux = gainCorrection * integrationCorrection * float64(channel0) / 100.0
	return
}
