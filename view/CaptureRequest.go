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

package view

import "time"

// CaptureRequest
// received handshake capture request
type CaptureRequest struct {
	Bssid    string `json:"bssid"`              // target AP hardware address, "aa:bb:cc:dd:ee:ff"
	Channel  int    `json:"channel"`            // 2.4 GHz channel the AP sits on, 1..13
	Duration string `json:"duration,omitempty"` // time.ParseDuration format, e.g. "20s"
}

// AccessPoint
// one row of a wireless scan result
type AccessPoint struct {
	Ssid     string    `json:"ssid"`
	Bssid    string    `json:"bssid"`
	Channel  int       `json:"channel"`
	Signal   float64   `json:"signal_dbm"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// CaptureFileInfo
// one stored capture file as reported to clients
type CaptureFileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Records  int       `json:"records"`
	Modified time.Time `json:"modified"`
}
