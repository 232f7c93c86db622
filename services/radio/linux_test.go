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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// radiotapPacket prepends a radiotap header of the given length to the frame
func radiotapPacket(headerLen int, frame []byte) []byte {
	packet := make([]byte, headerLen+len(frame))
	binary.LittleEndian.PutUint16(packet[2:4], uint16(headerLen))
	copy(packet[headerLen:], frame)
	return packet
}

func TestStripRadiotap(t *testing.T) {
	frame := []byte{0xC0, 0x00, 0x01, 0x02, 0x03}

	for _, headerLen := range []int{8, 13, 36} {
		stripped := stripRadiotap(radiotapPacket(headerLen, frame))
		require.NotNil(t, stripped, "header length %d", headerLen)
		assert.Equal(t, frame, stripped)
	}

	// a header covering the whole packet leaves an empty frame
	assert.Len(t, stripRadiotap(radiotapPacket(8, nil)), 0)
}

func TestStripRadiotapRejectsMalformedHeaders(t *testing.T) {
	// too short to hold the fixed radiotap preamble
	assert.Nil(t, stripRadiotap(nil))
	assert.Nil(t, stripRadiotap(make([]byte, 7)))

	// declared length below the fixed preamble
	bogus := make([]byte, 16)
	binary.LittleEndian.PutUint16(bogus[2:4], 4)
	assert.Nil(t, stripRadiotap(bogus))

	// declared length past the end of the packet
	binary.LittleEndian.PutUint16(bogus[2:4], 64)
	assert.Nil(t, stripRadiotap(bogus))
}
