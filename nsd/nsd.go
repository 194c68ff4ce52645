package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/op/go-logging"

	ns "github.com/not-surprised/pi-bluetooth-server"
	"github.com/not-surprised/pi-bluetooth-server/sensor"
)

func useSyslog() bool {
	env := os.Getenv("NS_LOG_SYSLOG")
	if env != "" {
		return env == "true"
	}
	return true
}

var log *logging.Logger = ns.SetupLogging("nsd", logging.INFO, useSyslog())

func main() {
	config, err := ns.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	bounds := config.Bounds()

	// pin the controller's advertising interval before anything starts
	// advertising with it
	interval := config.Interval()
	if err := interval.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := bounds.Writable(); err != nil {
		log.Error("advertising endpoints unavailable:", err)
	} else if err := bounds.Apply(interval.Ticks()); err != nil {
		log.Error("applying advertising interval:", err)
	} else {
		log.Notice("advertising interval", config.IntervalMillis, "ms =", interval.Ticks(), "ticks")
	}

	// a missing sensor degrades its readings to "error" instead of killing
	// the daemon
	timeouts := ns.DefaultTimeouts()
	var brightness, volume sensor.Sensor
	if b, err := sensor.OpenBrightness(timeouts.BrightnessPoll); err != nil {
		log.Error("brightness sensor unavailable:", err)
	} else {
		brightness = b
	}
	if v, err := sensor.OpenVolume(timeouts.VolumeWindow); err != nil {
		log.Error("volume sensor unavailable:", err)
	} else {
		volume = v
	}

	daemon := NewDaemon(config, bounds, brightness, volume)

	daemonSocket, err := ns.DaemonListen()
	if err != nil {
		log.Fatal(err)
	}
	defer daemonSocket.Close()

	controlServer := NewControlServer(daemon)
	go func() {
		err := controlServer.HandleControlHTTP(daemonSocket)
		if err != nil {
			log.Error("controlServer return:", err)
		}
	}()

	peripheral := NewPeripheral(daemon, config)
	if err := peripheral.Start(); err != nil {
		log.Error("BLE peripheral unavailable:", err)
		peripheral = nil
	}

	log.Notice("nsd launched and listening on UNIX socket")

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM)
	sig, ok := <-stopSignal
	if ok {
		log.Notice("stopping with signal", sig)
	}

	if peripheral != nil {
		peripheral.Stop()
	}
	if brightness != nil {
		brightness.Stop()
	}
	if volume != nil {
		volume.Stop()
	}
}
