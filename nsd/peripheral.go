package main

import (
	"time"

	ns "github.com/not-surprised/pi-bluetooth-server"
	"github.com/not-surprised/pi-bluetooth-server/ble"
)

const (
	sensorServiceUUID = "00000000-b1b6-417b-af10-da8b3de984be"
	brightnessUUID    = "00000001-b1b6-417b-af10-da8b3de984be"
	volumeUUID        = "00000002-b1b6-417b-af10-da8b3de984be"
	pauseUUID         = "10000001-b1b6-417b-af10-da8b3de984be"

	// 0xFFFF is the reserved test company id; the payload lets centrals tell
	// a real ns peripheral apart from anything else using it
	manufacturerCompanyID  = 0xFFFF
	manufacturerIdentifier = "$tZuFTNvsLGt9U^gsCM!t8$@Fd6"

	pauseDescription = "Write 1 to freeze volume output and write 0 to unfreeze. " +
		"Will automatically reset after 5 seconds."
)

// Peripheral is the BLE face of the daemon: one advertisement and one GATT
// service exposing both sensors and the pause switch.
type Peripheral struct {
	adapter    *ble.Adapter
	app        *ble.Application
	adv        *ble.Advertisement
	localName  string
	brightness *ble.Characteristic
	volume     *ble.Characteristic

	notifyPeriod time.Duration
	stop         chan struct{}
	done         chan struct{}
}

func NewPeripheral(daemon *Daemon, config ns.Config) *Peripheral {
	p := &Peripheral{
		adapter:      ble.NewAdapter(config.Adapter),
		localName:    config.LocalName,
		notifyPeriod: ns.DefaultTimeouts().NotifyPeriod,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}

	p.brightness = &ble.Characteristic{
		UUID:        brightnessUUID,
		Flags:       []string{"read", "notify"},
		Description: "Brightness (lux)",
		OnRead: func() []byte {
			return []byte(daemon.BrightnessReading())
		},
	}
	p.volume = &ble.Characteristic{
		UUID:        volumeUUID,
		Flags:       []string{"read", "notify"},
		Description: "Volume (dB)",
		OnRead: func() []byte {
			return []byte(daemon.VolumeReading())
		},
	}
	pauseChar := &ble.Characteristic{
		UUID:        pauseUUID,
		Flags:       []string{"read", "write"},
		Description: pauseDescription,
		OnRead: func() []byte {
			if daemon.pause.Paused() {
				return []byte("1")
			}
			return []byte("0")
		},
		OnWrite: func(value []byte) {
			switch string(value) {
			case "1":
				daemon.SetPaused(true)
			case "0":
				daemon.SetPaused(false)
			}
		},
	}

	service := &ble.Service{
		UUID:            sensorServiceUUID,
		Characteristics: []*ble.Characteristic{p.brightness, p.volume, pauseChar},
	}
	p.app = p.adapter.NewApplication(service)
	p.adv = p.adapter.NewAdvertisement(ble.AdvertisementOptions{
		LocalName:    config.LocalName,
		ServiceUUIDs: []string{sensorServiceUUID},
		ManufacturerData: map[uint16][]byte{
			manufacturerCompanyID: []byte(manufacturerIdentifier),
		},
		IncludeTxPower: true,
	})
	return p
}

func (p *Peripheral) Start() (err error) {
	if err = p.adapter.Enable(); err != nil {
		return
	}
	if address, addrErr := p.adapter.Address(); addrErr == nil {
		log.Notice("bluetooth adapter up at", address)
	}
	if aliasErr := p.adapter.Alias(p.localName); aliasErr != nil {
		log.Error("setting adapter alias:", aliasErr)
	}
	if err = p.app.Register(); err != nil {
		return
	}
	if err = p.adv.Register(); err != nil {
		p.app.Unregister()
		return
	}
	go p.notifyLoop()
	return
}

// notifyLoop pushes fresh readings to subscribed centrals.
func (p *Peripheral) notifyLoop() {
	defer close(p.done)
	ticker := time.NewTicker(p.notifyPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
		}
		if p.brightness.Notifying() {
			p.brightness.Notify(p.brightness.OnRead())
		}
		if p.volume.Notifying() {
			p.volume.Notify(p.volume.OnRead())
		}
	}
}

func (p *Peripheral) Stop() {
	close(p.stop)
	<-p.done
	if err := p.adv.Unregister(); err != nil {
		log.Error("stopping advertisement:", err)
	}
	if err := p.app.Unregister(); err != nil {
		log.Error("unregistering application:", err)
	}
}
