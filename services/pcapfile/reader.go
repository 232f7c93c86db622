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
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"
)

// Header exported view of a parsed capture file header
type Header struct {
	Magic        uint32
	VersionMajor uint16
	VersionMinor uint16
	SnapLen      uint32
	LinkType     uint32
}

// Record one frame read back from a capture file
type Record struct {
	Timestamp   time.Time
	CapturedLen uint32
	OriginalLen uint32
	Data        []byte
}

// Reader iterates over the records of a capture file written by Writer or
// any conformant pcap producer.
type Reader struct {
	src    io.Reader
	header Header
}

// NewReader
// parses and validates the global header
func NewReader(src io.Reader) (*Reader, error) {
	var hdr fileHeader
	if err := binary.Read(src, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("unable to read capture file header: %w", err)
	}
	if hdr.Magic != MagicMicroseconds {
		return nil, fmt.Errorf("unexpected capture file magic %#x", hdr.Magic)
	}
	return &Reader{
		src: src,
		header: Header{
			Magic:        hdr.Magic,
			VersionMajor: hdr.VersionMajor,
			VersionMinor: hdr.VersionMinor,
			SnapLen:      hdr.SnapLen,
			LinkType:     hdr.LinkType,
		},
	}, nil
}

// Header returns the parsed global header
func (r *Reader) Header() Header {
	return r.header
}

// Next
// reads one record; io.EOF signals a clean end of file
func (r *Reader) Next() (Record, error) {
	var hdr recordHeader
	if err := binary.Read(r.src, binary.LittleEndian, &hdr); err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("unable to read record header: %w", err)
	}
	if hdr.InclLen > r.header.SnapLen {
		return Record{}, fmt.Errorf("record length %d exceeds snap length %d", hdr.InclLen, r.header.SnapLen)
	}
	data := make([]byte, hdr.InclLen)
	if _, err := io.ReadFull(r.src, data); err != nil {
		return Record{}, fmt.Errorf("truncated record payload: %w", err)
	}
	return Record{
		Timestamp:   time.Unix(int64(hdr.TsSec), int64(hdr.TsUsec)*1000),
		CapturedLen: hdr.InclLen,
		OriginalLen: hdr.OrigLen,
		Data:        data,
	}, nil
}

// CountRecords
// walks a stored capture file and returns the number of complete records.
// Used by the file listing; a trailing partial record counts as corruption.
func CountRecords(path string) (int, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func(fh *os.File) {
		_ = fh.Close()
	}(fh)
	reader, err := NewReader(fh)
	if err != nil {
		return 0, err
	}
	count := 0
	for {
		if _, err = reader.Next(); err != nil {
			if err == io.EOF {
				return count, nil
			}
			return count, err
		}
		count++
	}
}
