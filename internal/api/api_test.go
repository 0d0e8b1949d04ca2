package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/micro-nova/pico-emu/internal/api"
	"github.com/micro-nova/pico-emu/internal/auth"
	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/identity"
	"github.com/micro-nova/pico-emu/internal/machine"
	"github.com/micro-nova/pico-emu/internal/state"
)

// recorder collects events emitted from server goroutines.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) observe(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) ofType(typ string) []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Event
	for _, ev := range r.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

type testEnv struct {
	srv   *httptest.Server
	board *machine.Board
	rec   *recorder
}

// newTestServer spins up a full router over a fresh board in open mode.
func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	rec := &recorder{}
	bus := events.NewBus()
	ch := events.NewChannel(nil)
	ch.AddObserver(rec.observe)
	ch.AddObserver(bus.Publish)

	store := state.New(ch, state.Options{ThrottleWindow: -1})
	opts := machine.DefaultOptions()
	opts.Seed = 7
	board := machine.NewBoard(store, opts)

	authSvc, err := auth.NewService(t.TempDir(), "")
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}

	info := func() identity.Info {
		return identity.Info{Hostname: "test", Version: identity.DefaultVersion, Board: board.Name()}
	}
	router := api.NewRouter(board, authSvc, bus, info)
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		authSvc.Close()
	})
	return &testEnv{srv: srv, board: board, rec: rec}
}

// do is a convenience helper for making requests to the test server.
func do(t *testing.T, srv *httptest.Server, method, path, body string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != "" {
		bodyReader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("NewRequest %s %s: %v", method, path, err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do %s %s: %v", method, path, err)
	}
	return resp
}

// decodeJSON reads and decodes a JSON response body into v.
func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
}

// requireStatus fails the test if the response status doesn't match.
func requireStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, expected, body)
	}
}

// --- Tests ---

func TestGetPins(t *testing.T) {
	env := newTestServer(t)
	env.board.Pin("LED", machine.PinOut, machine.WithValue(1))
	env.board.Pin("GP2", machine.PinIn)

	resp := do(t, env.srv, "GET", "/api/pins", "")
	requireStatus(t, resp, http.StatusOK)

	var got struct {
		Pins []state.PinState `json:"pins"`
	}
	decodeJSON(t, resp, &got)
	if len(got.Pins) != 2 {
		t.Fatalf("pins = %v, want 2 entries", got.Pins)
	}
	if got.Pins[0].ID != "GP2" || got.Pins[1].ID != "LED" {
		t.Errorf("pins not sorted by id: %v", got.Pins)
	}
	if got.Pins[1].Value != 1 || got.Pins[1].Mode != state.ModeOut {
		t.Errorf("LED = %+v, want OUT/1", got.Pins[1])
	}
}

func TestSetPin_InjectsAndQueuesIRQ(t *testing.T) {
	env := newTestServer(t)
	btn := env.board.Pin("GP14", machine.PinIn, machine.WithPull(machine.PullDown))
	fired := 0
	btn.IRQ(func(*machine.Pin) { fired++ }, machine.IRQRising)

	resp := do(t, env.srv, "PUT", "/api/pins/GP14", `{"value": 1}`)
	requireStatus(t, resp, http.StatusOK)

	var got map[string]interface{}
	decodeJSON(t, resp, &got)
	if got["value"] != float64(1) {
		t.Errorf("value = %v, want 1", got["value"])
	}
	if btn.Value() != 1 {
		t.Errorf("pin value = %d, want 1", btn.Value())
	}
	if n := env.board.Pump(); n != 1 || fired != 1 {
		t.Errorf("Pump() = %d, fired = %d; want 1, 1", n, fired)
	}
}

func TestSetPin_MissingValue(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "PUT", "/api/pins/GP0", `{}`)
	requireStatus(t, resp, http.StatusBadRequest)

	var appErr api.AppError
	decodeJSON(t, resp, &appErr)
	if appErr.Code != "BAD_REQUEST" || appErr.Field != "value" {
		t.Errorf("error = %+v, want BAD_REQUEST on field value", appErr)
	}
}

func TestSetPin_InvalidJSON(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "PUT", "/api/pins/GP0", `{not valid json`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestADCOverride(t *testing.T) {
	env := newTestServer(t)
	adc := env.board.ADC("26")

	resp := do(t, env.srv, "PUT", "/api/adc/26", `{"value": 70000}`)
	requireStatus(t, resp, http.StatusOK)
	var got map[string]interface{}
	decodeJSON(t, resp, &got)
	if got["value"] != float64(65535) {
		t.Errorf("value = %v, want clamp to 65535", got["value"])
	}
	if v := adc.ReadU16(); v != 65535 {
		t.Errorf("ReadU16() = %d, want 65535", v)
	}

	resp = do(t, env.srv, "DELETE", "/api/adc/26", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	if _, ok := env.board.Store().ADCValue("26"); ok {
		t.Error("override still present after DELETE")
	}
}

func TestI2CDevices(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "PUT", "/api/i2c/0/devices", `{"devices": [104, 60]}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = do(t, env.srv, "POST", "/api/i2c/0/devices/0x76", "")
	requireStatus(t, resp, http.StatusOK)
	var got struct {
		Devices []int `json:"devices"`
	}
	decodeJSON(t, resp, &got)
	if len(got.Devices) != 3 {
		t.Errorf("devices = %v, want 3", got.Devices)
	}

	i2c := env.board.I2C(0, machine.I2COptions{})
	found := i2c.Scan()
	want := []int{104, 60, 118}
	if len(found) != len(want) {
		t.Fatalf("Scan() = %v, want %v", found, want)
	}
	for i := range want {
		if found[i] != want[i] {
			t.Errorf("Scan()[%d] = %d, want %d", i, found[i], want[i])
		}
	}
}

func TestI2CDevices_BadAddress(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "PUT", "/api/i2c/0/devices", `{"devices": [200]}`)
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = do(t, env.srv, "POST", "/api/i2c/0/devices/0x80", "")
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestI2CResponse(t *testing.T) {
	env := newTestServer(t)
	i2c := env.board.I2C(0, machine.I2COptions{})

	resp := do(t, env.srv, "PUT", "/api/i2c/0/104/response?memaddr=0x75", "71\n")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	got, err := i2c.ReadFromMem(104, 0x75, 1)
	if err != nil {
		t.Fatalf("ReadFromMem: %v", err)
	}
	if len(got) != 1 || got[0] != 0x71 {
		t.Errorf("ReadFromMem = %x, want 71", got)
	}

	resp = do(t, env.srv, "PUT", "/api/i2c/0/104/response", "zz")
	requireStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestI2CAutoRespond(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "PUT", "/api/i2c/auto_respond", `{"enabled": false}`)
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if env.board.Store().I2CAutoRespond() {
		t.Error("auto-respond still enabled")
	}
	evs := env.rec.ofType("i2c_auto_respond")
	if len(evs) != 1 || evs[0].Get("enabled") != false {
		t.Errorf("i2c_auto_respond events = %v", evs)
	}
}

func TestUARTInject(t *testing.T) {
	env := newTestServer(t)
	u := env.board.UART(1, machine.UARTOptions{Baudrate: 9600})

	resp := do(t, env.srv, "POST", "/api/uart/1/rx", "AT\r\n")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	if line := u.ReadLine(); string(line) != "AT\r\n" {
		t.Errorf("ReadLine() = %q, want %q", line, "AT\r\n")
	}

	resp = do(t, env.srv, "POST", "/api/uart/5/rx", "x")
	requireStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestReset(t *testing.T) {
	env := newTestServer(t)
	env.board.Pin("LED", machine.PinOut, machine.WithValue(1))

	resp := do(t, env.srv, "POST", "/api/reset", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	if n := len(env.board.Store().Snapshot()); n != 0 {
		t.Errorf("snapshot has %d pins after reset, want 0", n)
	}
	if len(env.rec.ofType("reset")) != 1 {
		t.Error("expected one reset event")
	}
}

func TestGetInfo(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "GET", "/api/info", "")
	requireStatus(t, resp, http.StatusOK)
	var info identity.Info
	decodeJSON(t, resp, &info)
	if info.Board != "pico" || info.Version != identity.DefaultVersion {
		t.Errorf("info = %+v", info)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, env.srv, "OPTIONS", "/api/pins/GP0", "")
	requireStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "api-key") {
		t.Errorf("Access-Control-Allow-Headers = %q, want api-key", got)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	bus := events.NewBus()
	store := state.New(nil, state.Options{})
	board := machine.NewBoard(store, machine.DefaultOptions())
	authSvc, err := auth.NewService(t.TempDir(), "s3cret")
	if err != nil {
		t.Fatalf("auth.NewService: %v", err)
	}
	srv := httptest.NewServer(api.NewRouter(board, authSvc, bus, func() identity.Info { return identity.Info{} }))
	t.Cleanup(func() {
		srv.Close()
		authSvc.Close()
	})

	resp := do(t, srv, "GET", "/api/pins", "")
	requireStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = do(t, srv, "GET", "/api/pins?api-key=s3cret", "")
	requireStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestSSESubscribe(t *testing.T) {
	env := newTestServer(t)
	env.board.Pin("LED", machine.PinOut)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/subscribe", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	client := &http.Client{
		Transport: &http.Transport{
			DisableCompression: true,
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	next := func() events.Event {
		t.Helper()
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var ev events.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("SSE data is not an event: %v", err)
			}
			return ev
		}
		t.Fatalf("SSE stream ended: %v", scanner.Err())
		return events.Event{}
	}

	if ev := next(); ev.Type != "snapshot" {
		t.Fatalf("first SSE event = %q, want snapshot", ev.Type)
	}

	put := do(t, env.srv, "PUT", "/api/pins/LED", `{"value": 1}`)
	requireStatus(t, put, http.StatusOK)
	put.Body.Close()

	ev := next()
	if ev.Type != "pin_update" || ev.Get("pin") != "LED" || ev.Get("value") != float64(1) {
		t.Errorf("SSE event = %+v, want pin_update LED=1", ev)
	}
}

func TestSSESubscribe_TypeFilter(t *testing.T) {
	env := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.srv.URL+"/api/subscribe?types=i2c_auto_respond", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := env.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var got []string
	for scanner.Scan() && len(got) < 2 {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev events.Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			t.Fatalf("SSE data is not an event: %v", err)
		}
		got = append(got, ev.Type)
		if len(got) == 1 {
			// Filtered out, then delivered.
			r := do(t, env.srv, "PUT", "/api/pins/LED", `{"value": 1}`)
			r.Body.Close()
			r = do(t, env.srv, "PUT", "/api/i2c/auto_respond", `{"enabled": false}`)
			r.Body.Close()
		}
	}
	if len(got) != 2 || got[0] != "snapshot" || got[1] != "i2c_auto_respond" {
		t.Errorf("SSE types = %v, want [snapshot i2c_auto_respond]", got)
	}
}
