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

// Package known_networks keeps every access point ever seen by a scan in a
// small on-disk key-value store, so targets stay selectable after a reboot
// without re-scanning.
package known_networks

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/akrylysov/pogreb"
	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/view"
)

const storeName = "known_networks"

type KnownNetworks interface {
	// RecordAccessPoint inserts or refreshes one observed access point
	RecordAccessPoint(ap view.AccessPoint) error
	// GetAccessPoint looks up a single access point by BSSID
	GetAccessPoint(bssid string) (view.AccessPoint, bool, error)
	// ListAccessPoints returns every stored access point
	ListAccessPoints() ([]view.AccessPoint, error)
	// Count reports how many access points are stored, -1 after Close
	Count() int
	Close() error
}

// knownNetworks
// implementation for public interface
type knownNetworks struct {
	db        *pogreb.DB
	storePath string
}

// NewKnownNetworks
// opens (or creates) the store under the given directory. The store is
// persistent; Close keeps the files for the next run.
func NewKnownNetworks(dataDir string) (KnownNetworks, error) {
	storePath := filepath.Join(dataDir, storeName)
	db, err := pogreb.Open(storePath, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to open network store at '%s': %v", storePath, err)
	}
	log.Debugf("network store at '%s' holds %d record(s)", storePath, db.Count())
	return &knownNetworks{db: db, storePath: storePath}, nil
}

func (kn *knownNetworks) RecordAccessPoint(ap view.AccessPoint) error {
	if kn.db == nil {
		return fmt.Errorf("network store at '%s' is closed", kn.storePath)
	}
	if ap.Bssid == view.EmptyString {
		return fmt.Errorf("refusing to store an access point without a BSSID")
	}
	value, err := json.Marshal(ap)
	if err != nil {
		return fmt.Errorf("unable to serialize access point %s: %v", ap.Bssid, err)
	}
	if err = kn.db.Put(storeKey(ap.Bssid), value); err != nil {
		return fmt.Errorf("unable to store access point %s: %v", ap.Bssid, err)
	}
	return nil
}

func (kn *knownNetworks) GetAccessPoint(bssid string) (view.AccessPoint, bool, error) {
	var ap view.AccessPoint
	if kn.db == nil {
		return ap, false, fmt.Errorf("network store at '%s' is closed", kn.storePath)
	}
	value, err := kn.db.Get(storeKey(bssid))
	if err != nil {
		return ap, false, fmt.Errorf("lookup failed for %s: %v", bssid, err)
	}
	if value == nil {
		return ap, false, nil
	}
	if err = json.Unmarshal(value, &ap); err != nil {
		return ap, false, fmt.Errorf("corrupted record for %s: %v", bssid, err)
	}
	return ap, true, nil
}

func (kn *knownNetworks) ListAccessPoints() ([]view.AccessPoint, error) {
	if kn.db == nil {
		return nil, fmt.Errorf("network store at '%s' is closed", kn.storePath)
	}
	networks := make([]view.AccessPoint, 0, kn.db.Count())
	iterator := kn.db.Items()
	for {
		key, value, err := iterator.Next()
		if err == pogreb.ErrIterationDone {
			return networks, nil
		}
		if err != nil {
			return networks, fmt.Errorf("iteration failed: %v", err)
		}
		var ap view.AccessPoint
		if err = json.Unmarshal(value, &ap); err != nil {
			log.Warnf("skipping corrupted record '%s': %v", string(key), err)
			continue
		}
		networks = append(networks, ap)
	}
}

func (kn *knownNetworks) Count() int {
	if kn.db == nil {
		return -1
	}
	return int(kn.db.Count())
}

func (kn *knownNetworks) Close() error {
	if kn.db == nil {
		return nil
	}
	recCnt := kn.db.Count()
	err := kn.db.Close()
	kn.db = nil
	if err != nil {
		return fmt.Errorf("unable to close network store at '%s': %v", kn.storePath, err)
	}
	log.Debugf("network store at '%s' closed (%d record(s))", kn.storePath, recCnt)
	return nil
}

func storeKey(bssid string) []byte {
	return []byte(strings.ToLower(bssid))
}
