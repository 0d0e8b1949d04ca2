package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/micro-nova/pico-emu/internal/state"
)

// Inputs describe simulated external stimulus: what sensors read and which
// I2C devices answer. The file is JSON:
//
//	{
//	  "adc": {"26": 12000},
//	  "i2c_devices": {"0": [104, 60]},
//	  "i2c_responses": [{"bus": 0, "addr": 104, "memaddr": 117, "data": "68"}],
//	  "auto_respond": true
//	}
type Inputs struct {
	ADC          map[string]int   `json:"adc,omitempty"`
	I2CDevices   map[string][]int `json:"i2c_devices,omitempty"`
	I2CResponses []I2CResponse    `json:"i2c_responses,omitempty"`
	AutoRespond  *bool            `json:"auto_respond,omitempty"`
}

// I2CResponse is one canned read result. A nil MemAddr matches plain reads.
type I2CResponse struct {
	Bus     int    `json:"bus"`
	Addr    int    `json:"addr"`
	MemAddr *int   `json:"memaddr,omitempty"`
	Data    string `json:"data"`
}

// LoadInputs reads and validates an inputs file.
func LoadInputs(path string) (*Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var in Inputs
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := in.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &in, nil
}

func (in *Inputs) validate() error {
	for bus := range in.I2CDevices {
		if _, err := strconv.Atoi(bus); err != nil {
			return fmt.Errorf("i2c bus %q is not a number", bus)
		}
	}
	for i, r := range in.I2CResponses {
		if _, err := hex.DecodeString(r.Data); err != nil {
			return fmt.Errorf("i2c_responses[%d]: %w", i, err)
		}
	}
	return nil
}

// Apply pushes the inputs into s. Buses and ADC channels are applied in
// sorted order so the resulting events are deterministic.
func (in *Inputs) Apply(s *state.Store) error {
	if err := in.validate(); err != nil {
		return err
	}
	if in.AutoRespond != nil {
		s.SetI2CAutoRespond(*in.AutoRespond)
	}

	for _, id := range sortedKeys(in.ADC) {
		s.SetADCValue(id, in.ADC[id])
	}

	for _, key := range sortedKeys(in.I2CDevices) {
		bus, _ := strconv.Atoi(key)
		s.SetI2CDevices(bus, in.I2CDevices[key])
	}

	for _, r := range in.I2CResponses {
		data, _ := hex.DecodeString(r.Data)
		mem := state.NoMemAddr
		if r.MemAddr != nil {
			mem = *r.MemAddr
		}
		s.SetI2CResponse(r.Bus, r.Addr, data, mem)
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
