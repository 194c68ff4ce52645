// Package nsdclient talks to the ns daemon over its unix control socket.
package nsdclient

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"

	"github.com/pkg/errors"

	ns "github.com/not-surprised/pi-bluetooth-server"
)

func RequestStatus() (status ns.StatusResponse, err error) {
	request, err := ns.NewRequest()
	if err != nil {
		return
	}
	request.StatusRequest = &ns.StatusRequest{}

	response, err := makeRequest(request)
	if err != nil {
		return
	}
	if response.StatusResponse == nil {
		err = errors.New("response missing status")
		return
	}
	status = *response.StatusResponse
	return
}

// RequestSetInterval asks the daemon to reconfigure the controller's
// advertising interval, returning the tick value it wrote.
func RequestSetInterval(millis uint64) (ticks uint64, err error) {
	request, err := ns.NewRequest()
	if err != nil {
		return
	}
	request.IntervalRequest = &ns.IntervalRequest{Millis: millis}

	response, err := makeRequest(request)
	if err != nil {
		return
	}
	if response.IntervalResponse == nil {
		err = errors.New("response missing interval result")
		return
	}
	if response.IntervalResponse.Error != nil {
		err = errors.New(*response.IntervalResponse.Error)
		return
	}
	ticks = response.IntervalResponse.Ticks
	return
}

// RequestPause freezes (pause=true) or unfreezes the volume readout.
// Returns the unix time the freeze expires, zero when unfrozen.
func RequestPause(pause bool) (pausedUntil int64, err error) {
	request, err := ns.NewRequest()
	if err != nil {
		return
	}
	request.PauseRequest = &ns.PauseRequest{Pause: pause}

	response, err := makeRequest(request)
	if err != nil {
		return
	}
	if response.PauseResponse == nil {
		err = errors.New("response missing pause result")
		return
	}
	pausedUntil = response.PauseResponse.PausedUntil
	return
}

func makeRequest(request ns.Request) (response ns.Response, err error) {
	conn, err := ns.DaemonDialWithTimeout()
	if err != nil {
		err = ns.ErrConnectingToDaemon
		return
	}
	defer conn.Close()
	response, err = makeRequestOver(conn, request)
	return
}

func makeRequestOver(conn net.Conn, request ns.Request) (response ns.Response, err error) {
	httpRequest, err := request.HTTPRequest()
	if err != nil {
		return
	}
	defer httpRequest.Body.Close()
	err = httpRequest.Write(conn)
	if err != nil {
		err = ns.ErrConnectingToDaemon
		return
	}

	responseReader := bufio.NewReader(conn)
	httpResponse, err := http.ReadResponse(responseReader, httpRequest)
	if err != nil {
		err = ns.ErrConnectingToDaemon
		return
	}
	defer httpResponse.Body.Close()
	if httpResponse.StatusCode != http.StatusOK {
		err = errors.Errorf("daemon error %d", httpResponse.StatusCode)
		return
	}

	err = json.NewDecoder(httpResponse.Body).Decode(&response)
	return
}
