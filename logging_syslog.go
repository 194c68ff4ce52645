//go:build !windows
// +build !windows

package ns

import (
	stdlog "log"
	"log/syslog"

	"github.com/op/go-logging"
)

func getSyslogBackend(prefix string) logging.Backend {
	backend, err := logging.NewSyslogBackendPriority(prefix, syslog.LOG_NOTICE)
	if err != nil {
		return nil
	}
	logging.SetFormatter(syslogFormat)
	//	direct panic output to syslog as well
	stdlog.SetOutput(backend.Writer)
	return backend
}
