// Copyright (c) 2026 Sensormux
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ble

import (
	"fmt"
	"log"
	"sync/atomic"

	"tinygo.org/x/bluetooth"
)

// Nordic UART-style service and TX characteristic; the host-side receiver
// subscribes to these fixed identifiers.
const (
	serviceUUIDStr = "6e400001-b5a3-f393-e0a9-e50e24dcca9e"
	txCharUUIDStr  = "6e400003-b5a3-f393-e0a9-e50e24dcca9e"
)

// peripheral owns the advertising BLE endpoint and the notify
// characteristic.
type peripheral struct {
	txChar    bluetooth.Characteristic
	connected atomic.Bool
}

func newPeripheral(name string) (*peripheral, error) {
	serviceUUID, err := bluetooth.ParseUUID(serviceUUIDStr)
	if err != nil {
		return nil, fmt.Errorf("ble: service UUID: %w", err)
	}
	txUUID, err := bluetooth.ParseUUID(txCharUUIDStr)
	if err != nil {
		return nil, fmt.Errorf("ble: characteristic UUID: %w", err)
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("ble: enable adapter: %w", err)
	}

	p := &peripheral{}
	adapter.SetConnectHandler(func(device bluetooth.Device, connected bool) {
		p.connected.Store(connected)
		if connected {
			log.Printf("ble: central %s connected", device.Address)
		} else {
			log.Printf("ble: central %s disconnected", device.Address)
		}
	})

	if err := adapter.AddService(&bluetooth.Service{
		UUID: serviceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{{
			Handle: &p.txChar,
			UUID:   txUUID,
			Flags:  bluetooth.CharacteristicNotifyPermission | bluetooth.CharacteristicReadPermission,
		}},
	}); err != nil {
		return nil, fmt.Errorf("ble: register service: %w", err)
	}

	adv := adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    name,
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
	}); err != nil {
		return nil, fmt.Errorf("ble: configure advertisement: %w", err)
	}
	if err := adv.Start(); err != nil {
		return nil, fmt.Errorf("ble: start advertising: %w", err)
	}
	log.Printf("ble: advertising as %q", name)
	return p, nil
}

func (p *peripheral) Connected() bool {
	return p.connected.Load()
}

// Notify writes the payload to the TX characteristic, which notifies every
// subscribed central.
func (p *peripheral) Notify(buf []byte) error {
	_, err := p.txChar.Write(buf)
	return err
}
