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

// Package pcapfile reads and writes classic little-endian pcap files
// carrying raw 802.11 frames.
package pcapfile

import (
	"encoding/binary"
	"fmt"
	"os"
	"sync"
	"time"
)

const (
	// MagicMicroseconds classic pcap magic for microsecond timestamps
	MagicMicroseconds = uint32(0xA1B2C3D4)
	VersionMajor      = uint16(2)
	VersionMinor      = uint16(4)
	// SnapLen maximum per-record capture length advertised in the header
	SnapLen = uint32(0x0000FFFF)
	// LinkTypeIEEE80211 raw 802.11 frames without radiotap
	LinkTypeIEEE80211 = uint32(105)

	fileHeaderLen   = 24
	recordHeaderLen = 16
)

// file starting header
type fileHeader struct {
	Magic        uint32 // file type magic
	VersionMajor uint16 // major version, 2 for now
	VersionMinor uint16 // minor version, 4 for now
	ThisZone     int32  // gmt to local correction; this is always 0
	SigFigs      uint32 // accuracy of timestamps; this is always 0
	SnapLen      uint32 // snapshot length (maximum stored frame size)
	LinkType     uint32 // link layer type, 105 (LINKTYPE_IEEE802_11)
}

// per-frame record header
type recordHeader struct {
	TsSec   uint32 // timestamp seconds
	TsUsec  uint32 // timestamp microseconds
	InclLen uint32 // captured frame length
	OrigLen uint32 // original frame length
}

// Writer appends timestamped frame records to a capture file. WriteFrame is
// safe for concurrent use: the radio delivers frames on its own goroutine
// and interleaved record headers would corrupt the file.
type Writer struct {
	lock   sync.Mutex
	file   *os.File
	closed bool
}

// NewWriter
// creates the capture file and writes the 24-byte global header. A header
// that cannot be written in full leaves no usable partial file behind.
func NewWriter(path string) (*Writer, error) {
	fh, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to create capture file '%s': %w", path, err)
	}
	hdr := fileHeader{
		Magic:        MagicMicroseconds,
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
		ThisZone:     0,
		SigFigs:      0,
		SnapLen:      SnapLen,
		LinkType:     LinkTypeIEEE80211,
	}
	if err = binary.Write(fh, binary.LittleEndian, &hdr); err != nil {
		_ = fh.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("unable to write capture file header: %w", err)
	}
	return &Writer{file: fh}, nil
}

// WriteFrame
// appends one record header plus the raw frame bytes, synced to disk before
// returning. The process may be power-cycled at any moment and the file must
// stay a valid prefix of records; no record is ever written partially on
// purpose, and a short write is reported as an error without repair.
func (w *Writer) WriteFrame(data []byte, ts time.Time) error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return fmt.Errorf("capture writer already closed")
	}
	hdr := recordHeader{
		TsSec:   uint32(ts.Unix()),
		TsUsec:  uint32(ts.Nanosecond() / 1000),
		InclLen: uint32(len(data)),
		OrigLen: uint32(len(data)),
	}
	if err := binary.Write(w.file, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("unable to write record header: %w", err)
	}
	n, err := w.file.Write(data)
	if err != nil {
		return fmt.Errorf("unable to write %d frame bytes: %w", len(data), err)
	}
	if n != len(data) {
		return fmt.Errorf("short frame write: %d of %d bytes", n, len(data))
	}
	return w.file.Sync()
}

// Close
// flushes and releases the file. Safe to call more than once.
func (w *Writer) Close() error {
	w.lock.Lock()
	defer w.lock.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.file.Sync(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
