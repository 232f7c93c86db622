// Copyright 2025 WLANProbe Contributors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package radio abstracts the wireless hardware consumed by the capture
// session: mode and channel control, raw frame injection, and an
// asynchronous receive callback.
package radio

// RxInfo receive-signal metadata delivered with each raw frame
type RxInfo struct {
	Length int // total over-the-air frame length in bytes
	Signal int // received signal strength in dBm, 0 when the driver does not report it
}

// ReceiveCallback is invoked by the radio on its own goroutine for every
// frame delivered in promiscuous mode. The frame slice is only valid for
// the duration of the call; bytes that must survive have to be copied.
type ReceiveCallback func(frame []byte, info RxInfo)

// Radio is the hardware boundary of the capture session. All operations
// are synchronous except the receive callback. The session owns the radio
// exclusively between locking a channel and restoring normal operation.
type Radio interface {
	// SetPromiscuous toggles delivery of all frames on the tuned channel
	SetPromiscuous(enabled bool) error
	// SetChannel tunes the radio to a 2.4 GHz channel
	SetChannel(channel int) error
	// Start brings the radio up in its current mode
	Start() error
	// Stop halts frame delivery and releases the underlying handle
	Stop() error
	// TransmitRaw injects one raw 802.11 frame, best effort with no
	// delivery confirmation
	TransmitRaw(frame []byte) error
	// RegisterReceiveCallback installs cb and returns the previously
	// registered callback (nil when there was none)
	RegisterReceiveCallback(cb ReceiveCallback) ReceiveCallback
	// LocalAddress reports the radio's own hardware address
	LocalAddress() ([6]byte, error)
}
