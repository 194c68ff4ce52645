package main

/*
* CLI to configure the Bluetooth controller and talk to nsd
 */

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli"

	ns "github.com/not-surprised/pi-bluetooth-server"
	"github.com/not-surprised/pi-bluetooth-server/nsdclient"
)

func PrintErr(msg string, args ...interface{}) {
	os.Stderr.WriteString(fmt.Sprintf(msg, args...) + "\n")
}

func PrintFatal(msg string, args ...interface{}) {
	os.Stderr.WriteString(ns.Red(fmt.Sprintf(msg, args...)) + "\n")
	os.Exit(1)
}

func intervalCommand(c *cli.Context) (err error) {
	if !c.Args().Present() {
		PrintFatal("usage: ns interval <milliseconds>")
	}
	millis, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		PrintFatal("%s is not a whole number of milliseconds", c.Args().First())
	}

	var ticks uint64
	if c.Bool("daemon") {
		ticks, err = nsdclient.RequestSetInterval(millis)
		if err != nil {
			PrintFatal(err.Error())
		}
	} else {
		interval := ns.Interval(millis)
		if err = interval.Validate(); err != nil {
			PrintFatal(err.Error())
		}
		config, loadErr := ns.LoadConfig()
		if loadErr != nil {
			PrintFatal(loadErr.Error())
		}
		bounds := config.Bounds()
		if err = bounds.Writable(); err != nil {
			PrintFatal(err.Error())
		}
		ticks = interval.Ticks()
		if err = bounds.Apply(ticks); err != nil {
			PrintFatal(err.Error())
		}
		config.IntervalMillis = millis
		if err = ns.SaveConfig(config); err != nil {
			PrintFatal(err.Error())
		}
	}
	fmt.Println(ns.Green(fmt.Sprintf("Advertising interval set to %d ms (%d ticks) ✔", millis, ticks)))
	return
}

func statusCommand(c *cli.Context) (err error) {
	status, err := nsdclient.RequestStatus()
	if err != nil {
		PrintFatal(err.Error())
	}
	fmt.Println("brightness:", ns.Cyan(status.Brightness))
	fmt.Println("volume:    ", ns.Cyan(status.Volume))
	fmt.Printf("interval:   %s\n",
		ns.Cyan(fmt.Sprintf("%d ms (%d ticks)", status.IntervalMillis, status.IntervalTicks)))
	if status.PausedUntil != 0 {
		fmt.Println(ns.Yellow("volume output frozen until " + formatDeadline(status.PausedUntil)))
	}
	return
}

func pauseCommand(c *cli.Context) (err error) {
	pausedUntil, err := nsdclient.RequestPause(true)
	if err != nil {
		PrintFatal(err.Error())
	}
	fmt.Println(ns.Yellow("Volume output frozen until " + formatDeadline(pausedUntil) + "."))
	return
}

func resumeCommand(c *cli.Context) (err error) {
	if _, err = nsdclient.RequestPause(false); err != nil {
		PrintFatal(err.Error())
	}
	fmt.Println(ns.Green("Volume output live."))
	return
}

func formatDeadline(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).Format("15:04:05")
}

func main() {
	app := cli.NewApp()
	app.Name = "ns"
	app.Usage = "configure the Bluetooth controller and talk to nsd - the ns sensor daemon"
	app.Version = ns.CURRENT_VERSION.String()
	app.Flags = []cli.Flag{}
	app.Commands = []cli.Command{
		cli.Command{
			Name:      "interval",
			Aliases:   []string{"i"},
			Usage:     "set the advertising interval in milliseconds",
			ArgsUsage: "<milliseconds>",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "daemon", Usage: "apply through the running nsd instead of writing debugfs directly"},
			},
			Action: intervalCommand,
		},
		cli.Command{
			Name:    "status",
			Aliases: []string{"s"},
			Action:  statusCommand,
		},
		cli.Command{
			Name:   "pause",
			Action: pauseCommand,
		},
		cli.Command{
			Name:   "resume",
			Action: resumeCommand,
		},
		cli.Command{
			Name:   "restart",
			Action: restartCommand,
		},
	}
	app.Run(os.Args)
}
