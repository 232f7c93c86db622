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

const (
	EmptyString  = ""
	ApiKeyHeader = "api-key"
	// PcapSuffix file name suffix for stored captures
	PcapSuffix = ".pcap"
	// DefaultCaptureDuration how long to keep deauthing and sniffing when the
	// request does not say otherwise
	DefaultCaptureDuration = time.Second * 20
	MinCaptureDuration     = time.Second * 1
	MaxCaptureDuration     = time.Minute * 5
	// DeauthInterval pause between spoofed deauthentication frames (~100 fps)
	DeauthInterval = time.Millisecond * 10
	// MinChannel / MaxChannel 2.4 GHz channel range accepted for capture requests
	MinChannel = 1
	MaxChannel = 13
	// ScanCacheTTL how long a scan result stays served from cache
	ScanCacheTTL = time.Second * 30
)
