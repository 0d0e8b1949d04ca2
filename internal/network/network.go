// Package network simulates the MicroPython `network` module. Connections
// always succeed and report a fixed private address plan.
package network

import (
	"github.com/micro-nova/pico-emu/internal/events"
	"github.com/micro-nova/pico-emu/internal/machine"
)

// Interfaces.
const (
	STAIF = 0
	APIF  = 1
)

// Link status codes.
const (
	StatIdle          = 0
	StatConnecting    = 1
	StatGotIP         = 3
	StatWrongPassword = 4
	StatNoAPFound     = 5
)

const simulatedRSSI = -50

// IfConfig is the (ip, subnet, gateway, dns) tuple.
type IfConfig struct {
	IP, Subnet, Gateway, DNS string
}

func (c IfConfig) list() []string { return []string{c.IP, c.Subnet, c.Gateway, c.DNS} }

var defaultIfConfig = IfConfig{
	IP:      "192.168.1.100",
	Subnet:  "255.255.255.0",
	Gateway: "192.168.1.1",
	DNS:     "8.8.8.8",
}

// ScanResult is one access point seen by Scan.
type ScanResult struct {
	SSID     []byte
	BSSID    []byte
	Channel  int
	RSSI     int
	Security int
	Hidden   bool
}

// WLAN is a wireless interface façade.
type WLAN struct {
	b         *machine.Board
	iface     int
	active    bool
	connected bool
	ssid      string
	cfg       IfConfig
	channel   int
}

// NewWLAN opens interface iface (STAIF or APIF).
func NewWLAN(b *machine.Board, iface int) *WLAN {
	b.Store().Emit("wlan_init", events.Fields{"interface": iface})
	return &WLAN{b: b, iface: iface, cfg: defaultIfConfig, channel: 6}
}

// Active reports whether the interface is up.
func (w *WLAN) Active() bool { return w.active }

// SetActive brings the interface up or down.
func (w *WLAN) SetActive(on bool) {
	w.active = on
	w.emit("wlan_active", events.Fields{"active": on})
}

// Connect joins ssid. It always succeeds.
func (w *WLAN) Connect(ssid, password string) {
	w.ssid = ssid
	w.connected = true
	w.emit("wlan_connect", events.Fields{
		"ssid":    ssid,
		"ip":      w.cfg.IP,
		"subnet":  w.cfg.Subnet,
		"gateway": w.cfg.Gateway,
	})
}

// Disconnect leaves the current network.
func (w *WLAN) Disconnect() {
	w.connected = false
	w.ssid = ""
	w.emit("wlan_disconnect", nil)
}

// IsConnected reports whether Connect succeeded and Disconnect was not called.
func (w *WLAN) IsConnected() bool { return w.connected }

// Status returns the link status code.
func (w *WLAN) Status() int {
	if w.connected {
		return StatGotIP
	}
	return StatIdle
}

// RSSI returns the signal strength in dBm.
func (w *WLAN) RSSI() int { return simulatedRSSI }

// IfConfig returns the address configuration.
func (w *WLAN) IfConfig() IfConfig { return w.cfg }

// SetIfConfig replaces the address configuration.
func (w *WLAN) SetIfConfig(c IfConfig) {
	w.cfg = c
	w.emit("wlan_ifconfig", events.Fields{"config": c.list()})
}

// Config returns a named parameter, or nil for unknown names.
func (w *WLAN) Config(name string) any {
	switch name {
	case "essid", "ssid":
		return w.ssid
	case "channel":
		return w.channel
	case "mac":
		return []byte{0x28, 0xcd, 0xc1, 0x00, 0x00, byte(w.iface)}
	case "hostname":
		return Hostname("")
	}
	return nil
}

// SetConfig updates named parameters. Only essid/ssid and channel are kept.
func (w *WLAN) SetConfig(params map[string]any) {
	for k, v := range params {
		switch k {
		case "essid", "ssid":
			if s, ok := v.(string); ok {
				w.ssid = s
			}
		case "channel":
			if c, ok := v.(int); ok {
				w.channel = c
			}
		}
	}
}

// Scan lists the access points in range.
func (w *WLAN) Scan() []ScanResult {
	w.emit("wlan_scan", nil)
	return []ScanResult{
		{SSID: []byte("MockNetwork1"), BSSID: []byte{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}, Channel: 6, RSSI: -45, Security: 3},
		{SSID: []byte("MockNetwork2"), BSSID: []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}, Channel: 11, RSSI: -60, Security: 4},
	}
}

func (w *WLAN) emit(typ string, f events.Fields) {
	if f == nil {
		f = events.Fields{}
	}
	f["interface"] = w.iface
	w.b.Store().Emit(typ, f)
}

// LAN is a wired interface façade. It never gets a link.
type LAN struct {
	active bool
}

// NewLAN opens the wired interface.
func NewLAN(b *machine.Board) *LAN {
	b.Store().Emit("lan_init", nil)
	return &LAN{}
}

func (l *LAN) Active() bool { return l.active }
func (l *LAN) SetActive(on bool) { l.active = on }
func (l *LAN) IsConnected() bool { return false }
func (l *LAN) IfConfig() IfConfig { return IfConfig{"0.0.0.0", "0.0.0.0", "0.0.0.0", "0.0.0.0"} }

// Hostname returns name, or the default hostname when name is empty.
func Hostname(name string) string {
	if name == "" {
		return "micropython"
	}
	return name
}

// Country returns code, or the default regulatory domain when code is empty.
func Country(code string) string {
	if code == "" {
		return "US"
	}
	return code
}
