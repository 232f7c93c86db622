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

package radio

import (
	"encoding/binary"
	"fmt"
	"net"
	"os/exec"
	"sync"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/utils"
)

const (
	rxSnapLen = 65535
	// minRadiotapLen version, pad and the 2-byte length field plus the
	// mandatory present-flags word
	minRadiotapLen = 8
)

// pcapRadio drives a monitor-mode capable wireless interface through
// libpcap for frame I/O and the iproute2/iw tools for mode and channel
// control. Requires root.
type pcapRadio struct {
	iface string

	lock        sync.Mutex
	handle      *pcap.Handle
	callback    ReceiveCallback
	promiscuous bool
}

// NewPcapRadio returns a Radio bound to the named wireless interface. The
// interface stays untouched until Start is called.
func NewPcapRadio(iface string) Radio {
	return &pcapRadio{iface: iface}
}

// runControl shells out for interface mode control the way iw(8) expects it
func runControl(args ...string) error {
	cmd := exec.Command(args[0], args[1:]...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("'%s' failed: %v, output: %s", cmd.String(), err, string(out))
	}
	return nil
}

func (r *pcapRadio) SetPromiscuous(enabled bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.promiscuous == enabled {
		return nil
	}
	mode := "managed"
	if enabled {
		mode = "monitor"
	}
	steps := [][]string{
		{"ip", "link", "set", r.iface, "down"},
		{"iw", "dev", r.iface, "set", "type", mode},
		{"ip", "link", "set", r.iface, "up"},
	}
	for _, step := range steps {
		if err := runControl(step...); err != nil {
			return err
		}
	}
	r.promiscuous = enabled
	return nil
}

func (r *pcapRadio) SetChannel(channel int) error {
	return runControl("iw", "dev", r.iface, "set", "channel", fmt.Sprintf("%d", channel))
}

func (r *pcapRadio) Start() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.handle != nil {
		return nil
	}
	handle, err := pcap.OpenLive(r.iface, rxSnapLen, r.promiscuous, pcap.BlockForever)
	if err != nil {
		return fmt.Errorf("unable to open '%s': %w", r.iface, err)
	}
	r.handle = handle
	// monitor-mode drivers usually prepend a radiotap pseudo-header to every
	// frame; the capture pipeline wants the bare 802.11 bytes
	radiotap := handle.LinkType() == layers.LinkTypeIEEE80211Radio
	utils.SafeAsync(func() {
		r.receiveLoop(handle, radiotap)
	})
	return nil
}

func (r *pcapRadio) Stop() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.handle == nil {
		return nil
	}
	r.handle.Close() // ends the receive loop
	r.handle = nil
	return nil
}

func (r *pcapRadio) TransmitRaw(frame []byte) error {
	r.lock.Lock()
	handle := r.handle
	r.lock.Unlock()
	if handle == nil {
		return fmt.Errorf("radio '%s' is not started", r.iface)
	}
	return handle.WritePacketData(frame)
}

func (r *pcapRadio) RegisterReceiveCallback(cb ReceiveCallback) ReceiveCallback {
	r.lock.Lock()
	defer r.lock.Unlock()
	prev := r.callback
	r.callback = cb
	return prev
}

func (r *pcapRadio) LocalAddress() ([6]byte, error) {
	var addr [6]byte
	ifc, err := net.InterfaceByName(r.iface)
	if err != nil {
		return addr, err
	}
	if len(ifc.HardwareAddr) != 6 {
		return addr, fmt.Errorf("interface '%s' has no 6-byte hardware address", r.iface)
	}
	copy(addr[:], ifc.HardwareAddr)
	return addr, nil
}

// stripRadiotap drops the variable-length radiotap pseudo-header, leaving the
// 802.11 frame. Returns nil when the header is malformed or longer than the
// packet itself.
func stripRadiotap(data []byte) []byte {
	if len(data) < minRadiotapLen {
		return nil
	}
	headerLen := int(binary.LittleEndian.Uint16(data[2:4]))
	if headerLen < minRadiotapLen || headerLen > len(data) {
		return nil
	}
	return data[headerLen:]
}

// receiveLoop pumps frames from libpcap into the registered callback until
// the handle is closed
func (r *pcapRadio) receiveLoop(handle *pcap.Handle, radiotap bool) {
	for {
		data, _, err := handle.ReadPacketData()
		if err != nil {
			log.Debugf("receive loop on '%s' finished: %v", r.iface, err)
			return
		}
		if radiotap {
			if data = stripRadiotap(data); data == nil {
				continue
			}
		}
		r.lock.Lock()
		cb := r.callback
		r.lock.Unlock()
		if cb != nil {
			cb(data, RxInfo{Length: len(data)})
		}
	}
}
