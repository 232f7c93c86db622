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

package entities

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/wlanprobe/wifi-handshake-agent/view"
)

// CaptureSessionConfig
// capture request parameters for internal usage, one instance per session
type CaptureSessionConfig struct {
	CaptureServiceConfig
	Bssid    [6]byte       // target AP hardware address
	Channel  int           // target channel, 1..13
	Duration time.Duration // how long to deauth and sniff
	Id       string        // session identifier
	FileName string        // capture file name (without path)
}

// MakeCaptureSessionConfig
// converts externally sent input parameters into internally used ones.
// All validation happens here, before any radio action.
func MakeCaptureSessionConfig(request view.CaptureRequest, serviceConfig CaptureServiceConfig, id string) (CaptureSessionConfig, error) {
	ret := CaptureSessionConfig{
		CaptureServiceConfig: serviceConfig,
		Channel:              request.Channel,
		Duration:             view.DefaultCaptureDuration,
		Id:                   id,
	}
	hw, err := net.ParseMAC(request.Bssid)
	if err != nil {
		return ret, fmt.Errorf("invalid bssid '%s': %v", request.Bssid, err)
	}
	if len(hw) != 6 {
		return ret, fmt.Errorf("invalid bssid '%s': expected 6 bytes, got %d", request.Bssid, len(hw))
	}
	copy(ret.Bssid[:], hw)
	if request.Channel < view.MinChannel || request.Channel > view.MaxChannel {
		return ret, fmt.Errorf("channel %d out of range %d..%d", request.Channel, view.MinChannel, view.MaxChannel)
	}
	if request.Duration != view.EmptyString {
		ret.Duration, err = time.ParseDuration(request.Duration)
		if err != nil {
			return ret, fmt.Errorf("invalid duration '%s': %v", request.Duration, err)
		}
	}
	if ret.Duration < view.MinCaptureDuration || ret.Duration > view.MaxCaptureDuration {
		return ret, fmt.Errorf("duration %s out of range %s..%s", ret.Duration,
			view.MinCaptureDuration, view.MaxCaptureDuration)
	}
	ret.FileName = fmt.Sprintf("handshake_%s_%s%s", BssidFileToken(ret.Bssid), id, view.PcapSuffix)
	return ret, nil
}

// BssidString formats the 6-byte address in the usual colon notation
func BssidString(bssid [6]byte) string {
	return net.HardwareAddr(bssid[:]).String()
}

// BssidFileToken formats the address for use inside a file name
func BssidFileToken(bssid [6]byte) string {
	return strings.ReplaceAll(BssidString(bssid), ":", "")
}
