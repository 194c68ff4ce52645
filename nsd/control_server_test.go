package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	ns "github.com/not-surprised/pi-bluetooth-server"
)

type fakeSensor struct {
	value float64
	err   error
}

func (f *fakeSensor) Name() string           { return "fake" }
func (f *fakeSensor) Read() (float64, error) { return f.value, f.err }
func (f *fakeSensor) Stop()                  {}

func testBounds(t *testing.T) ns.AdvertisingBounds {
	dir := t.TempDir()
	bounds := ns.AdvertisingBounds{
		Min: filepath.Join(dir, "adv_min_interval"),
		Max: filepath.Join(dir, "adv_max_interval"),
	}
	for _, path := range []string{bounds.Min, bounds.Max} {
		if err := os.WriteFile(path, []byte("1280"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	return bounds
}

func testDaemon(t *testing.T) (*Daemon, *fakeSensor, *fakeSensor) {
	t.Setenv("SUDO_USER", "")
	t.Setenv("USER", "ns-test-nonexistent")
	t.Setenv("HOME", t.TempDir())
	brightness := &fakeSensor{value: 12.345678}
	volume := &fakeSensor{value: 40}
	daemon := NewDaemon(ns.DefaultConfig(), testBounds(t), brightness, volume)
	return daemon, brightness, volume
}

func roundTrip(t *testing.T, cs *ControlServer, request ns.Request) ns.Response {
	httpRequest, err := request.HTTPRequest()
	if err != nil {
		t.Fatal(err)
	}
	recorder := httptest.NewRecorder()
	cs.handleControl(recorder, httpRequest)
	resp := recorder.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var response ns.Response
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response.RequestID != request.RequestID {
		t.Fatalf("response id %q for request %q", response.RequestID, request.RequestID)
	}
	return response
}

func TestControlServerPing(t *testing.T) {
	daemon, _, _ := testDaemon(t)
	cs := NewControlServer(daemon)
	pingRequest, err := http.NewRequest("GET", "/ping", nil)
	if err != nil {
		t.Fatal(err)
	}
	recorder := httptest.NewRecorder()
	cs.handlePing(recorder, pingRequest)
	if recorder.Result().StatusCode != http.StatusOK {
		t.Fatal("non-200 status")
	}
}

func TestControlServerStatus(t *testing.T) {
	daemon, _, _ := testDaemon(t)
	cs := NewControlServer(daemon)
	request, err := ns.NewRequest()
	if err != nil {
		t.Fatal(err)
	}
	request.StatusRequest = &ns.StatusRequest{}

	response := roundTrip(t, cs, request)
	if response.StatusResponse == nil {
		t.Fatal("missing status response")
	}
	status := *response.StatusResponse
	if status.Brightness != "12.346" {
		t.Fatalf("brightness %q", status.Brightness)
	}
	if status.Volume != "40" {
		t.Fatalf("volume %q", status.Volume)
	}
	if status.IntervalMillis != 200 || status.IntervalTicks != 320 {
		t.Fatalf("interval %d ms / %d ticks", status.IntervalMillis, status.IntervalTicks)
	}
	if status.PausedUntil != 0 {
		t.Fatal("fresh daemon should not be paused")
	}
}

func TestControlServerSetInterval(t *testing.T) {
	daemon, _, _ := testDaemon(t)
	cs := NewControlServer(daemon)
	request, err := ns.NewRequest()
	if err != nil {
		t.Fatal(err)
	}
	request.IntervalRequest = &ns.IntervalRequest{Millis: 200}

	response := roundTrip(t, cs, request)
	if response.IntervalResponse == nil {
		t.Fatal("missing interval response")
	}
	if response.IntervalResponse.Error != nil {
		t.Fatal(*response.IntervalResponse.Error)
	}
	if response.IntervalResponse.Ticks != 320 {
		t.Fatalf("ticks %d", response.IntervalResponse.Ticks)
	}
	for _, path := range []string{daemon.bounds.Min, daemon.bounds.Max} {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "320" {
			t.Fatalf("endpoint %s content %q", path, content)
		}
	}
}

func TestControlServerRejectsOutOfRangeInterval(t *testing.T) {
	daemon, _, _ := testDaemon(t)
	cs := NewControlServer(daemon)
	request, err := ns.NewRequest()
	if err != nil {
		t.Fatal(err)
	}
	request.IntervalRequest = &ns.IntervalRequest{Millis: 11000}

	response := roundTrip(t, cs, request)
	if response.IntervalResponse == nil || response.IntervalResponse.Error == nil {
		t.Fatal("expected a range error")
	}
	// no write may happen on a rejected interval
	for _, path := range []string{daemon.bounds.Min, daemon.bounds.Max} {
		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(content) != "1280" {
			t.Fatalf("endpoint %s was written: %q", path, content)
		}
	}
}

func TestControlServerPauseFreezesVolume(t *testing.T) {
	daemon, _, volume := testDaemon(t)
	cs := NewControlServer(daemon)

	if got := daemon.VolumeReading(); got != "40" {
		t.Fatalf("live reading %q", got)
	}

	request, err := ns.NewRequest()
	if err != nil {
		t.Fatal(err)
	}
	request.PauseRequest = &ns.PauseRequest{Pause: true}
	response := roundTrip(t, cs, request)
	if response.PauseResponse == nil || response.PauseResponse.PausedUntil == 0 {
		t.Fatal("missing pause deadline")
	}

	volume.value = 90
	if got := daemon.VolumeReading(); got != "40" {
		t.Fatalf("paused reading %q, want frozen 40", got)
	}

	resume, err := ns.NewRequest()
	if err != nil {
		t.Fatal(err)
	}
	resume.PauseRequest = &ns.PauseRequest{Pause: false}
	response = roundTrip(t, cs, resume)
	if response.PauseResponse == nil || response.PauseResponse.PausedUntil != 0 {
		t.Fatal("resume should clear the deadline")
	}
	if got := daemon.VolumeReading(); got != "90" {
		t.Fatalf("resumed reading %q", got)
	}
}

func TestControlServerRejectsEmptyRequest(t *testing.T) {
	daemon, _, _ := testDaemon(t)
	cs := NewControlServer(daemon)
	request, err := ns.NewRequest()
	if err != nil {
		t.Fatal(err)
	}
	httpRequest, err := request.HTTPRequest()
	if err != nil {
		t.Fatal(err)
	}
	recorder := httptest.NewRecorder()
	cs.handleControl(recorder, httpRequest)
	if recorder.Result().StatusCode != http.StatusBadRequest {
		t.Fatal("empty request should be rejected")
	}
}

func TestSensorErrorReading(t *testing.T) {
	daemon, brightness, _ := testDaemon(t)
	brightness.err = os.ErrDeadlineExceeded
	if got := daemon.BrightnessReading(); got != "error" {
		t.Fatalf("failing sensor reads %q", got)
	}
	noSensors := NewDaemon(ns.DefaultConfig(), testBounds(t), nil, nil)
	if got := noSensors.BrightnessReading(); got != "error" {
		t.Fatalf("missing sensor reads %q", got)
	}
	if got := noSensors.VolumeReading(); got != "error" {
		t.Fatalf("missing sensor reads %q", got)
	}
}
