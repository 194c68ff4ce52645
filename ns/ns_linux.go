package main

import (
	"os/exec"

	"github.com/urfave/cli"
)

func restartCommand(c *cli.Context) (err error) {
	exec.Command("systemctl", "stop", "nsd").Run()
	exec.Command("systemctl", "start", "nsd").Run()
	PrintErr("Restarted the ns daemon.")
	return
}
