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

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlanprobe/wifi-handshake-agent/services/pcapfile"
)

// writeCapture creates a real capture file with the given number of records
func writeCapture(t *testing.T, dir, name string, records int) string {
	t.Helper()
	fullPath := filepath.Join(dir, name)
	writer, err := pcapfile.NewWriter(fullPath)
	require.NoError(t, err)
	frame := make([]byte, 40)
	frame[0] = 0x08
	for i := 0; i < records; i++ {
		require.NoError(t, writer.WriteFrame(frame, time.Now()))
	}
	require.NoError(t, writer.Close())
	return fullPath
}

func TestListCaptures(t *testing.T) {
	dir := t.TempDir()
	writeCapture(t, dir, "handshake_one.pcap", 2)
	writeCapture(t, dir, "handshake_two.pcap", 0)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.pcap"), 0755))

	cf := NewCaptureFiles(dir, false)
	captures, err := cf.ListCaptures()
	require.NoError(t, err)
	require.Len(t, captures, 2, "only plain .pcap files are listed")

	byName := map[string]int{}
	for _, capture := range captures {
		byName[capture.Name] = capture.Records
		assert.Greater(t, capture.Size, int64(0))
		assert.False(t, capture.Modified.IsZero())
	}
	assert.Equal(t, 2, byName["handshake_one.pcap"])
	assert.Equal(t, 0, byName["handshake_two.pcap"])
}

func TestResolveCapture(t *testing.T) {
	dir := t.TempDir()
	fullPath := writeCapture(t, dir, "handshake.pcap", 1)

	cf := NewCaptureFiles(dir, false)
	resolved, info, err := cf.ResolveCapture("handshake.pcap")
	require.NoError(t, err)
	assert.Equal(t, fullPath, resolved)
	assert.Equal(t, 1, info.Records)

	_, _, err = cf.ResolveCapture("missing.pcap")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestResolveCaptureRejectsUnsafeNames(t *testing.T) {
	cf := NewCaptureFiles(t.TempDir(), false)
	for _, name := range []string{
		"",
		"no-suffix",
		"../escape.pcap",
		"sub/dir.pcap",
		"..pcap",
	} {
		_, _, err := cf.ResolveCapture(name)
		assert.ErrorIs(t, err, ErrUnsafeName, "name %q must be rejected", name)
	}
}

func TestDeleteCapture(t *testing.T) {
	dir := t.TempDir()
	fullPath := writeCapture(t, dir, "handshake.pcap", 1)

	cf := NewCaptureFiles(dir, false)
	require.NoError(t, cf.DeleteCapture("handshake.pcap"))
	_, err := os.Stat(fullPath)
	assert.True(t, os.IsNotExist(err))

	assert.ErrorIs(t, cf.DeleteCapture("handshake.pcap"), ErrFileNotFound)
	assert.ErrorIs(t, cf.DeleteCapture("../../etc/passwd.pcap"), ErrUnsafeName)
}

func TestCleanupAfterDownload(t *testing.T) {
	dir := t.TempDir()
	fullPath := writeCapture(t, dir, "handshake.pcap", 1)

	NewCaptureFiles(dir, false).CleanupAfterDownload("handshake.pcap")
	_, err := os.Stat(fullPath)
	require.NoError(t, err, "auto-clean disabled, file must stay")

	NewCaptureFiles(dir, true).CleanupAfterDownload("handshake.pcap")
	_, err = os.Stat(fullPath)
	assert.True(t, os.IsNotExist(err))
}
