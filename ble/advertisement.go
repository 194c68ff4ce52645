package ble

import (
	"fmt"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pkg/errors"
)

const advertisementInterface = "org.bluez.LEAdvertisement1"

var advertisementID uint64

type AdvertisementOptions struct {
	LocalName        string
	ServiceUUIDs     []string
	ManufacturerData map[uint16][]byte
	IncludeTxPower   bool
}

type Advertisement struct {
	adapter    *Adapter
	options    AdvertisementOptions
	path       dbus.ObjectPath
	registered bool
}

func (a *Adapter) NewAdvertisement(options AdvertisementOptions) *Advertisement {
	return &Advertisement{adapter: a, options: options}
}

// Register exports the advertisement object and hands it to BlueZ. The
// advertisement stays active until Unregister or process exit.
func (ad *Advertisement) Register() (err error) {
	if ad.registered {
		return errors.New("advertisement already registered")
	}

	manufacturerData := map[uint16]dbus.Variant{}
	for company, data := range ad.options.ManufacturerData {
		manufacturerData[company] = dbus.MakeVariant(data)
	}

	id := atomic.AddUint64(&advertisementID, 1)
	ad.path = dbus.ObjectPath(fmt.Sprintf("/ns/advertisement%d", id))
	propsSpec := map[string]map[string]*prop.Prop{
		advertisementInterface: {
			"Type":             {Value: "peripheral"},
			"LocalName":        {Value: ad.options.LocalName},
			"ServiceUUIDs":     {Value: ad.options.ServiceUUIDs},
			"ManufacturerData": {Value: manufacturerData},
			"IncludeTxPower":   {Value: ad.options.IncludeTxPower},
		},
	}

	if _, err = prop.Export(ad.adapter.bus, ad.path, propsSpec); err != nil {
		return errors.Wrap(err, "export advertisement properties")
	}
	if err = ad.adapter.bus.Export(ad, ad.path, advertisementInterface); err != nil {
		return errors.Wrap(err, "export advertisement")
	}

	call := ad.adapter.adapter.Call(advertisingMgrInterface+".RegisterAdvertisement", 0,
		ad.path, map[string]dbus.Variant(nil))
	if call.Err != nil {
		return errors.Wrap(call.Err, "register advertisement")
	}
	ad.registered = true
	return
}

func (ad *Advertisement) Unregister() (err error) {
	if !ad.registered {
		return
	}
	call := ad.adapter.adapter.Call(advertisingMgrInterface+".UnregisterAdvertisement", 0, ad.path)
	if call.Err != nil {
		return errors.Wrap(call.Err, "unregister advertisement")
	}
	ad.registered = false
	return
}

// Release is called by BlueZ when it drops the advertisement on its own.
func (ad *Advertisement) Release() *dbus.Error {
	ad.registered = false
	return nil
}
