package ns

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/blang/semver"
	uuid "github.com/satori/go.uuid"
)

type Request struct {
	RequestID       string           `json:"request_id"`
	UnixSeconds     int64            `json:"unix_seconds"`
	Version         semver.Version   `json:"v"`
	IntervalRequest *IntervalRequest `json:"interval_request,omitempty"`
	PauseRequest    *PauseRequest    `json:"pause_request,omitempty"`
	StatusRequest   *StatusRequest   `json:"status_request,omitempty"`
}

func NewRequest() (request Request, err error) {
	request = Request{
		RequestID:   uuid.NewV4().String(),
		UnixSeconds: time.Now().Unix(),
		Version:     CURRENT_VERSION,
	}
	return
}

type Response struct {
	RequestID        string            `json:"request_id"`
	Version          semver.Version    `json:"v"`
	IntervalResponse *IntervalResponse `json:"interval_response,omitempty"`
	PauseResponse    *PauseResponse    `json:"pause_response,omitempty"`
	StatusResponse   *StatusResponse   `json:"status_response,omitempty"`
}

// IntervalRequest asks the daemon to reconfigure the controller's advertising
// interval.
type IntervalRequest struct {
	Millis uint64 `json:"ms"`
}

type IntervalResponse struct {
	Ticks uint64  `json:"ticks"`
	Error *string `json:"error,omitempty"`
}

// PauseRequest freezes (or unfreezes) the volume readout.
type PauseRequest struct {
	Pause bool `json:"pause"`
}

type PauseResponse struct {
	//	unix seconds; zero when not paused
	PausedUntil int64 `json:"paused_until"`
}

type StatusRequest struct{}

type StatusResponse struct {
	//	readings formatted to five significant figures, "error" on failure
	Brightness     string `json:"brightness"`
	Volume         string `json:"volume"`
	IntervalMillis uint64 `json:"interval_ms"`
	IntervalTicks  uint64 `json:"interval_ticks"`
	PausedUntil    int64  `json:"paused_until"`
}

func (request Request) HTTPRequest() (httpRequest *http.Request, err error) {
	requestJson, err := json.Marshal(request)
	if err != nil {
		return
	}
	httpRequest, err = http.NewRequest("PUT", "/control", bytes.NewReader(requestJson))
	if err != nil {
		return
	}
	return
}
