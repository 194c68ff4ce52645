package ble

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/prop"
)

func TestGetManagedObjects(t *testing.T) {
	app := &Application{
		objects: map[dbus.ObjectPath]map[string]map[string]*prop.Prop{
			"/ns/application1/service0": {
				serviceInterface: {
					"UUID":    {Value: "00000000-b1b6-417b-af10-da8b3de984be"},
					"Primary": {Value: true},
				},
			},
			"/ns/application1/service0/char0": {
				characteristicInterface: {
					"UUID":  {Value: "00000001-b1b6-417b-af10-da8b3de984be"},
					"Flags": {Value: []string{"read", "notify"}},
				},
			},
		},
	}

	managed, dbusErr := app.GetManagedObjects()
	if dbusErr != nil {
		t.Fatal(dbusErr)
	}
	if len(managed) != 2 {
		t.Fatalf("%d objects", len(managed))
	}
	svc := managed["/ns/application1/service0"][serviceInterface]
	if svc == nil {
		t.Fatal("service interface missing")
	}
	var primary bool
	if err := svc["Primary"].Store(&primary); err != nil {
		t.Fatal(err)
	}
	if !primary {
		t.Fatal("service not primary")
	}
}

func TestNotifyWithoutSubscriberIsNoop(t *testing.T) {
	char := &Characteristic{UUID: "00000001-b1b6-417b-af10-da8b3de984be"}
	// no props exported, nobody subscribed: must not panic
	char.Notify([]byte("42"))
	if char.Notifying() {
		t.Fatal("characteristic should not report notifying")
	}
}
