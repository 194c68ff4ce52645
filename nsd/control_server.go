package main

import (
	"encoding/json"
	"net"
	"net/http"

	ns "github.com/not-surprised/pi-bluetooth-server"
)

type ControlServer struct {
	daemon *Daemon
}

func NewControlServer(daemon *Daemon) *ControlServer {
	return &ControlServer{daemon}
}

func (cs *ControlServer) HandleControlHTTP(listener net.Listener) (err error) {
	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/ping", cs.handlePing)
	httpMux.HandleFunc("/control", cs.handleControl)
	err = http.Serve(listener, httpMux)
	return
}

func (cs *ControlServer) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// route a control request to the daemon
func (cs *ControlServer) handleControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var request ns.Request
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	response := ns.Response{
		RequestID: request.RequestID,
		Version:   ns.CURRENT_VERSION,
	}

	switch {
	case request.StatusRequest != nil:
		status := cs.daemon.Status()
		response.StatusResponse = &status

	case request.IntervalRequest != nil:
		intervalResponse := ns.IntervalResponse{}
		ticks, err := cs.daemon.SetInterval(request.IntervalRequest.Millis)
		if err != nil {
			log.Error("interval request error:", err)
			message := err.Error()
			intervalResponse.Error = &message
		} else {
			log.Notice("advertising interval set to", request.IntervalRequest.Millis, "ms")
			intervalResponse.Ticks = ticks
		}
		response.IntervalResponse = &intervalResponse

	case request.PauseRequest != nil:
		pausedUntil := cs.daemon.SetPaused(request.PauseRequest.Pause)
		response.PauseResponse = &ns.PauseResponse{PausedUntil: pausedUntil}

	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error(err)
	}
}
