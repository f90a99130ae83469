//go:build !linux

package qhw

import "fmt"

// Device is only available on Linux, where the controller register space can
// be memory-mapped. Other platforms run against the simulator.
type Device struct{}

func OpenDevice(path string, cellCount int) (*Device, error) {
	return nil, fmt.Errorf("hardware backend requires linux, use the simulator")
}

func (d *Device) Close() error      { return nil }
func (d *Device) Cells() []*Cell    { return nil }
func (d *Device) AnyBusy() bool     { return false }
func (d *Device) WaitWhileBusy()    {}
func (d *Device) Start(cells []int) {}
