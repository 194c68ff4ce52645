package ble

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
	"github.com/pkg/errors"
)

const (
	serviceInterface        = "org.bluez.GattService1"
	characteristicInterface = "org.bluez.GattCharacteristic1"
	descriptorInterface     = "org.bluez.GattDescriptor1"

	objectManagerInterface = "org.freedesktop.DBus.ObjectManager"

	// Characteristic User Description
	userDescriptionUUID = "2901"
)

var applicationID uint64

type ReadHandler func() []byte
type WriteHandler func(value []byte)

type Characteristic struct {
	UUID string
	// BlueZ flag strings: "read", "write", "notify", ...
	Flags []string
	// Human-readable description exported as a 0x2901 descriptor.
	Description string
	OnRead      ReadHandler
	OnWrite     WriteHandler

	mu        sync.Mutex
	notifying bool
	props     *prop.Properties
}

type Service struct {
	UUID            string
	Characteristics []*Characteristic
}

type Application struct {
	adapter    *Adapter
	services   []*Service
	path       dbus.ObjectPath
	objects    map[dbus.ObjectPath]map[string]map[string]*prop.Prop
	registered bool
}

func (a *Adapter) NewApplication(services ...*Service) *Application {
	return &Application{adapter: a, services: services}
}

// Register exports the whole object tree (application root with an
// ObjectManager, services, characteristics, descriptors) and registers it
// with BlueZ's GATT manager.
func (app *Application) Register() (err error) {
	if app.registered {
		return errors.New("application already registered")
	}

	id := atomic.AddUint64(&applicationID, 1)
	app.path = dbus.ObjectPath(fmt.Sprintf("/ns/application%d", id))
	app.objects = map[dbus.ObjectPath]map[string]map[string]*prop.Prop{}

	for i, svc := range app.services {
		svcPath := app.path + dbus.ObjectPath(fmt.Sprintf("/service%d", i))
		svcSpec := map[string]map[string]*prop.Prop{
			serviceInterface: {
				"UUID":    {Value: svc.UUID},
				"Primary": {Value: true},
			},
		}
		app.objects[svcPath] = svcSpec
		if _, err = prop.Export(app.adapter.bus, svcPath, svcSpec); err != nil {
			return errors.Wrapf(err, "export service %s", svc.UUID)
		}

		for j, char := range svc.Characteristics {
			charPath := svcPath + dbus.ObjectPath(fmt.Sprintf("/char%d", j))
			if err = app.exportCharacteristic(char, svcPath, charPath); err != nil {
				return
			}
		}
	}

	if err = app.adapter.bus.Export(app, app.path, objectManagerInterface); err != nil {
		return errors.Wrap(err, "export object manager")
	}

	call := app.adapter.adapter.Call(gattMgrInterface+".RegisterApplication", 0,
		app.path, map[string]dbus.Variant(nil))
	if call.Err != nil {
		return errors.Wrap(call.Err, "register application")
	}
	app.registered = true
	return
}

func (app *Application) exportCharacteristic(char *Characteristic, svcPath, charPath dbus.ObjectPath) (err error) {
	charSpec := map[string]map[string]*prop.Prop{
		characteristicInterface: {
			"UUID":      {Value: char.UUID},
			"Service":   {Value: svcPath},
			"Flags":     {Value: char.Flags},
			"Notifying": {Value: false},
			"Value":     {Value: []byte{}, Writable: true, Emit: prop.EmitTrue},
		},
	}
	app.objects[charPath] = charSpec
	props, err := prop.Export(app.adapter.bus, charPath, charSpec)
	if err != nil {
		return errors.Wrapf(err, "export characteristic %s properties", char.UUID)
	}
	char.props = props

	obj := &charObject{char: char}
	if err = app.adapter.bus.Export(obj, charPath, characteristicInterface); err != nil {
		return errors.Wrapf(err, "export characteristic %s", char.UUID)
	}

	if char.Description == "" {
		return
	}
	descPath := charPath + "/desc0"
	descSpec := map[string]map[string]*prop.Prop{
		descriptorInterface: {
			"UUID":           {Value: userDescriptionUUID},
			"Characteristic": {Value: charPath},
			"Flags":          {Value: []string{"read"}},
		},
	}
	app.objects[descPath] = descSpec
	if _, err = prop.Export(app.adapter.bus, descPath, descSpec); err != nil {
		return errors.Wrapf(err, "export descriptor for %s", char.UUID)
	}
	desc := &descriptorObject{description: char.Description}
	if err = app.adapter.bus.Export(desc, descPath, descriptorInterface); err != nil {
		return errors.Wrapf(err, "export descriptor for %s", char.UUID)
	}
	return
}

func (app *Application) Unregister() (err error) {
	if !app.registered {
		return
	}
	call := app.adapter.adapter.Call(gattMgrInterface+".UnregisterApplication", 0, app.path)
	if call.Err != nil {
		return errors.Wrap(call.Err, "unregister application")
	}
	app.registered = false
	return
}

// GetManagedObjects implements org.freedesktop.DBus.ObjectManager; BlueZ
// walks it to discover the application's services.
func (app *Application) GetManagedObjects() (map[dbus.ObjectPath]map[string]map[string]dbus.Variant, *dbus.Error) {
	managed := map[dbus.ObjectPath]map[string]map[string]dbus.Variant{}
	for path, ifaces := range app.objects {
		managed[path] = map[string]map[string]dbus.Variant{}
		for iface, props := range ifaces {
			managed[path][iface] = map[string]dbus.Variant{}
			for name, p := range props {
				managed[path][iface][name] = dbus.MakeVariant(p.Value)
			}
		}
	}
	return managed, nil
}

// Notify pushes a fresh value to subscribed centrals by emitting a Value
// property change. No-op unless a central has started notifications.
func (char *Characteristic) Notify(value []byte) {
	char.mu.Lock()
	notifying := char.notifying
	char.mu.Unlock()
	if !notifying || char.props == nil {
		return
	}
	char.props.SetMust(characteristicInterface, "Value", value)
}

func (char *Characteristic) Notifying() bool {
	char.mu.Lock()
	defer char.mu.Unlock()
	return char.notifying
}

// charObject is the D-Bus face of a Characteristic; only its exported
// methods are visible on the bus.
type charObject struct {
	char *Characteristic
}

func (c *charObject) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	if c.char.OnRead == nil {
		return nil, dbus.MakeFailedError(errors.New("characteristic is not readable"))
	}
	return c.char.OnRead(), nil
}

func (c *charObject) WriteValue(value []byte, options map[string]dbus.Variant) *dbus.Error {
	if c.char.OnWrite == nil {
		return dbus.MakeFailedError(errors.New("characteristic is not writable"))
	}
	c.char.OnWrite(value)
	return nil
}

func (c *charObject) StartNotify() *dbus.Error {
	c.char.mu.Lock()
	already := c.char.notifying
	c.char.notifying = true
	c.char.mu.Unlock()
	if already {
		return nil
	}
	if c.char.props != nil {
		c.char.props.SetMust(characteristicInterface, "Notifying", true)
		if c.char.OnRead != nil {
			//	push the current value immediately, then the notify loop takes over
			c.char.props.SetMust(characteristicInterface, "Value", c.char.OnRead())
		}
	}
	return nil
}

func (c *charObject) StopNotify() *dbus.Error {
	c.char.mu.Lock()
	c.char.notifying = false
	c.char.mu.Unlock()
	if c.char.props != nil {
		c.char.props.SetMust(characteristicInterface, "Notifying", false)
	}
	return nil
}

type descriptorObject struct {
	description string
}

func (d *descriptorObject) ReadValue(options map[string]dbus.Variant) ([]byte, *dbus.Error) {
	return []byte(d.description), nil
}
