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

// Package storage manages the capture files accumulated in the work
// directory: listing, download path resolution and housekeeping deletes.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/services/pcapfile"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

var (
	ErrFileNotFound = fmt.Errorf("capture file not found")
	ErrUnsafeName   = fmt.Errorf("capture file name is not acceptable")
)

type CaptureFiles interface {
	// ListCaptures enumerates stored capture files with record counts
	ListCaptures() ([]view.CaptureFileInfo, error)
	// ResolveCapture maps a bare file name to a full path for download
	ResolveCapture(name string) (string, view.CaptureFileInfo, error)
	// DeleteCapture removes one stored capture file
	DeleteCapture(name string) error
	// CleanupAfterDownload removes the file when auto-clean is enabled
	CleanupAfterDownload(name string)
}

type captureFiles struct {
	workDirectory string
	autoClean     bool
}

// NewCaptureFiles
// creates the housekeeping service over one directory. With autoClean set
// a capture file is removed right after a successful download.
func NewCaptureFiles(workDirectory string, autoClean bool) CaptureFiles {
	return &captureFiles{workDirectory: workDirectory, autoClean: autoClean}
}

func (cf *captureFiles) ListCaptures() ([]view.CaptureFileInfo, error) {
	entries, err := os.ReadDir(cf.workDirectory)
	if err != nil {
		return nil, fmt.Errorf("unable to read capture directory '%s': %v", cf.workDirectory, err)
	}
	captures := make([]view.CaptureFileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), view.PcapSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Warnf("unable to stat '%s': %v", entry.Name(), err)
			continue
		}
		records, err := pcapfile.CountRecords(filepath.Join(cf.workDirectory, entry.Name()))
		if err != nil {
			// a capture being written right now has a volatile tail
			log.Debugf("unable to count records of '%s': %v", entry.Name(), err)
			records = -1
		}
		captures = append(captures, view.CaptureFileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Records:  records,
			Modified: info.ModTime(),
		})
	}
	return captures, nil
}

func (cf *captureFiles) ResolveCapture(name string) (string, view.CaptureFileInfo, error) {
	var fileInfo view.CaptureFileInfo
	if err := checkFileName(name); err != nil {
		return view.EmptyString, fileInfo, err
	}
	fullPath := filepath.Join(cf.workDirectory, name)
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return view.EmptyString, fileInfo, ErrFileNotFound
		}
		return view.EmptyString, fileInfo, fmt.Errorf("unable to stat '%s': %v", name, err)
	}
	records, err := pcapfile.CountRecords(fullPath)
	if err != nil {
		records = -1
	}
	fileInfo = view.CaptureFileInfo{
		Name:     name,
		Size:     info.Size(),
		Records:  records,
		Modified: info.ModTime(),
	}
	return fullPath, fileInfo, nil
}

func (cf *captureFiles) DeleteCapture(name string) error {
	if err := checkFileName(name); err != nil {
		return err
	}
	fullPath := filepath.Join(cf.workDirectory, name)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return ErrFileNotFound
		}
		return fmt.Errorf("unable to delete '%s': %v", name, err)
	}
	log.Infof("capture file '%s' deleted", name)
	return nil
}

func (cf *captureFiles) CleanupAfterDownload(name string) {
	if !cf.autoClean {
		return
	}
	if err := cf.DeleteCapture(name); err != nil {
		log.Warnf("auto-clean of '%s' failed: %v", name, err)
	}
}

// checkFileName rejects anything that could escape the capture directory
func checkFileName(name string) error {
	if name == view.EmptyString || !strings.HasSuffix(name, view.PcapSuffix) {
		return ErrUnsafeName
	}
	if name != filepath.Base(name) || strings.Contains(name, "..") {
		return ErrUnsafeName
	}
	return nil
}
