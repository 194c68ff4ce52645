// Package ble exposes the small slice of BlueZ's D-Bus surface the ns daemon
// needs to run a GATT peripheral: adapter power, one advertisement, one
// application of services.
package ble

import (
	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const (
	bluezBusName = "org.bluez"

	adapterInterface        = "org.bluez.Adapter1"
	advertisingMgrInterface = "org.bluez.LEAdvertisingManager1"
	gattMgrInterface        = "org.bluez.GattManager1"
)

type Adapter struct {
	id      string
	bus     *dbus.Conn
	adapter dbus.BusObject
	address string
}

func NewAdapter(id string) *Adapter {
	return &Adapter{id: id}
}

// Enable connects to the system bus, checks the adapter exists, and powers
// it on.
func (a *Adapter) Enable() (err error) {
	bus, err := dbus.SystemBus()
	if err != nil {
		return errors.Wrap(err, "connect system bus")
	}
	a.bus = bus
	a.adapter = bus.Object(bluezBusName, dbus.ObjectPath("/org/bluez/"+a.id))

	addr, err := a.adapter.GetProperty(adapterInterface + ".Address")
	if err != nil {
		if dbusErr, ok := err.(dbus.Error); ok && dbusErr.Name == "org.freedesktop.DBus.Error.UnknownObject" {
			return errors.Errorf("adapter %s does not exist", a.id)
		}
		return errors.Wrap(err, "query adapter")
	}
	if storeErr := addr.Store(&a.address); storeErr != nil {
		return errors.Wrap(storeErr, "decode adapter address")
	}

	err = a.adapter.SetProperty(adapterInterface+".Powered", dbus.MakeVariant(true))
	if err != nil {
		err = errors.Wrap(err, "power adapter")
	}
	return
}

func (a *Adapter) Address() (address string, err error) {
	if a.address == "" {
		err = errors.New("adapter not enabled")
		return
	}
	address = a.address
	return
}

// Alias sets the name BlueZ reports for the adapter itself.
func (a *Adapter) Alias(name string) (err error) {
	if a.adapter == nil {
		return errors.New("adapter not enabled")
	}
	err = a.adapter.SetProperty(adapterInterface+".Alias", dbus.MakeVariant(name))
	if err != nil {
		err = errors.Wrap(err, "set adapter alias")
	}
	return
}
