package ns

import (
	"bufio"
	"net"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Find home directory of logged-in user even when run as sudo
func NsDirFile(file string) (fullPath string, err error) {
	userName := os.Getenv("SUDO_USER")
	if userName == "" {
		userName = os.Getenv("USER")
	}
	user, err := user.Lookup(userName)
	var userHome string
	if err == nil && user != nil {
		userHome = user.HomeDir
	} else {
		log.Notice("falling back to $HOME")
		userHome = os.Getenv("HOME")
		err = nil
	}

	nsPath := filepath.Join(userHome, ".ns")
	err = os.MkdirAll(nsPath, os.FileMode(0700))
	fullPath = filepath.Join(nsPath, file)
	return
}

const DAEMON_SOCKET_FILENAME = "nsd.sock"

func DaemonListen() (listener net.Listener, err error) {
	socketPath, err := NsDirFile(DAEMON_SOCKET_FILENAME)
	if err != nil {
		return
	}
	//	delete UNIX socket in case daemon was not killed cleanly
	_ = os.Remove(socketPath)
	listener, err = net.Listen("unix", socketPath)
	return
}

func DaemonDial() (conn net.Conn, err error) {
	socketPath, err := NsDirFile(DAEMON_SOCKET_FILENAME)
	if err != nil {
		return
	}
	conn, err = net.Dial("unix", socketPath)
	if err != nil {
		err = ErrConnectingToDaemon
	}
	return
}

func pingDaemon() (err error) {
	conn, err := DaemonDial()
	if err != nil {
		return
	}
	defer conn.Close()

	pingRequest, err := http.NewRequest("GET", "/ping", nil)
	if err != nil {
		return
	}
	err = pingRequest.Write(conn)
	if err != nil {
		return
	}
	responseReader := bufio.NewReader(conn)
	httpResponse, err := http.ReadResponse(responseReader, pingRequest)
	if err != nil {
		err = errors.Wrap(err, "daemon read error")
		return
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		err = errors.New("ping error: non-200 status code from daemon")
		return
	}
	return
}

func DaemonDialWithTimeout() (conn net.Conn, err error) {
	done := make(chan error, 1)
	go func() {
		done <- pingDaemon()
	}()

	select {
	case err = <-done:
	case <-time.After(DefaultTimeouts().DaemonPing):
		err = ErrConnectingToDaemon
	}
	if err != nil {
		return
	}

	conn, err = DaemonDial()
	return
}
