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

package pcapfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterHeaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "header.pcap")
	w, err := NewWriter(path)
	require.NoError(t, err)
	assert.NoError(t, w.Close())

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	r, err := NewReader(fh)
	require.NoError(t, err)
	hdr := r.Header()
	assert.Equal(t, MagicMicroseconds, hdr.Magic)
	assert.Equal(t, VersionMajor, hdr.VersionMajor)
	assert.Equal(t, VersionMinor, hdr.VersionMinor)
	assert.Equal(t, SnapLen, hdr.SnapLen)
	assert.Equal(t, LinkTypeIEEE80211, hdr.LinkType)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err, "file with no records ends cleanly")
}

func TestWriterRecordRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.pcap")
	w, err := NewWriter(path)
	require.NoError(t, err)
	frames := [][]byte{
		{0x01},
		{0xAA, 0xBB, 0xCC},
		make([]byte, 256),
	}
	base := time.Date(2025, 6, 1, 12, 0, 0, 123456000, time.UTC)
	for i, frame := range frames {
		require.NoError(t, w.WriteFrame(frame, base.Add(time.Duration(i)*time.Second)))
	}
	require.NoError(t, w.Close())

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	r, err := NewReader(fh)
	require.NoError(t, err)
	for i, frame := range frames {
		rec, err := r.Next()
		require.NoError(t, err)
		assert.Equal(t, frame, rec.Data, "record %d payload", i)
		assert.Equal(t, uint32(len(frame)), rec.CapturedLen)
		assert.Equal(t, rec.CapturedLen, rec.OriginalLen, "no truncation is performed")
		expected := base.Add(time.Duration(i) * time.Second)
		assert.Equal(t, expected.Unix(), rec.Timestamp.Unix())
		assert.Equal(t, expected.Nanosecond()/1000, rec.Timestamp.Nanosecond()/1000)
	}
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

// a standard pcap reader must accept the produced files as-is
func TestWriterCompatibleWithStandardReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "compat.pcap")
	w, err := NewWriter(path)
	require.NoError(t, err)
	frame := []byte{0x08, 0x00, 0x00, 0x00, 0xDE, 0xAD, 0xBE, 0xEF}
	require.NoError(t, w.WriteFrame(frame, time.Now()))
	require.NoError(t, w.Close())

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	r, err := pcapgo.NewReader(fh)
	require.NoError(t, err)
	assert.Equal(t, layers.LinkType(105), r.LinkType())
	data, ci, err := r.ReadPacketData()
	require.NoError(t, err)
	assert.Equal(t, frame, data)
	assert.Equal(t, len(frame), ci.CaptureLength)
	assert.Equal(t, len(frame), ci.Length)
	_, _, err = r.ReadPacketData()
	assert.Equal(t, io.EOF, err)
}

func TestWriterCloseIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "close.pcap")
	w, err := NewWriter(path)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
	assert.Error(t, w.WriteFrame([]byte{0x01}, time.Now()), "write after close must fail")
}

func TestNewWriterFailsWithoutDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "capture.pcap")
	w, err := NewWriter(path)
	assert.Error(t, err)
	assert.Nil(t, w)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file may be left behind")
}

// the radio callback may be re-entered while a write is in flight; records
// must never interleave
func TestWriterSerializesConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "concurrent.pcap")
	w, err := NewWriter(path)
	require.NoError(t, err)

	const writers = 8
	const perWriter = 50
	var wg sync.WaitGroup
	for g := 0; g < writers; g++ {
		wg.Add(1)
		go func(tag byte) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				frame := make([]byte, 32)
				for j := range frame {
					frame[j] = tag
				}
				assert.NoError(t, w.WriteFrame(frame, time.Now()))
			}
		}(byte(g + 1))
	}
	wg.Wait()
	require.NoError(t, w.Close())

	fh, err := os.Open(path)
	require.NoError(t, err)
	defer fh.Close()
	r, err := NewReader(fh)
	require.NoError(t, err)
	seen := make(map[byte]int)
	for {
		rec, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.Len(t, rec.Data, 32)
		tag := rec.Data[0]
		for j, b := range rec.Data {
			require.Equal(t, tag, b, fmt.Sprintf("byte %d of a record written by goroutine %d", j, tag))
		}
		seen[tag]++
	}
	assert.Len(t, seen, writers)
	for tag, n := range seen {
		assert.Equal(t, perWriter, n, "records written by goroutine %d", tag)
	}
}

func TestCountRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "count.pcap")
	w, err := NewWriter(path)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, w.WriteFrame([]byte{byte(i)}, time.Now()))
	}
	require.NoError(t, w.Close())
	n, err := CountRecords(path)
	assert.NoError(t, err)
	assert.Equal(t, 5, n)
}
