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

// Package scanner discovers nearby access points with the system 'iw'
// utility. Scan results are cached for a short time because a scan takes
// the radio away from its current channel for several seconds.
package scanner

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shaj13/libcache"
	_ "github.com/shaj13/libcache/lru"
	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/view"
)

const (
	cacheSize     = 2
	cacheKey      = "last-scan"
	scanTimeLimit = time.Second * 30
)

var (
	bssLine    = regexp.MustCompile(`^BSS ([0-9a-fA-F:]{17})`)
	signalLine = regexp.MustCompile(`signal:\s+(-?[0-9.]+)\s+dBm`)
	ssidLine   = regexp.MustCompile(`SSID:\s?(.*)$`)
	dsChannel  = regexp.MustCompile(`DS Parameter set:\s+channel\s+(\d+)`)
	htChannel  = regexp.MustCompile(`\*\s+primary channel:\s+(\d+)`)
)

// Sink receives every access point observed during a scan
type Sink interface {
	RecordAccessPoint(ap view.AccessPoint) error
}

type Scanner interface {
	// ScanNetworks returns nearby access points, possibly from cache
	ScanNetworks() ([]view.AccessPoint, error)
}

type networkScanner struct {
	iface   string
	cache   libcache.Cache
	sink    Sink
	runScan func(iface string) ([]byte, error)
}

// NewScanner
// creates a scanner bound to one interface. The sink is optional; when set
// it gets every discovered access point for persistence.
func NewScanner(iface string, sink Sink) Scanner {
	ns := networkScanner{
		iface:   iface,
		cache:   libcache.LRU.New(cacheSize),
		sink:    sink,
		runScan: runIwScan,
	}
	ns.cache.SetTTL(view.ScanCacheTTL)
	return &ns
}

func runIwScan(iface string) ([]byte, error) {
	cmd := exec.Command("iw", "dev", iface, "scan")
	return cmd.Output()
}

func (ns *networkScanner) ScanNetworks() ([]view.AccessPoint, error) {
	if cached, exists := ns.cache.Load(cacheKey); exists {
		if networks, ok := cached.([]view.AccessPoint); ok {
			log.Debugf("returning %d cached scan result(s)", len(networks))
			return networks, nil
		}
	}
	started := time.Now()
	out, err := ns.runScan(ns.iface)
	if err != nil {
		return nil, fmt.Errorf("unable to scan on '%s': %v", ns.iface, err)
	}
	if time.Since(started) > scanTimeLimit {
		log.Warnf("scan on '%s' took %s", ns.iface, time.Since(started))
	}
	networks := parseScanOutput(string(out))
	log.Infof("scan on '%s' found %d network(s)", ns.iface, len(networks))
	if ns.sink != nil {
		for _, ap := range networks {
			if err = ns.sink.RecordAccessPoint(ap); err != nil {
				log.Warnf("unable to record access point %s: %v", ap.Bssid, err)
			}
		}
	}
	ns.cache.Store(cacheKey, networks)
	return networks, nil
}

// parseScanOutput extracts one access point per BSS block of 'iw dev X scan'
func parseScanOutput(out string) []view.AccessPoint {
	var networks []view.AccessPoint
	var current *view.AccessPoint
	now := time.Now()
	for _, line := range strings.Split(out, "\n") {
		if m := bssLine.FindStringSubmatch(line); m != nil {
			if current != nil {
				networks = append(networks, *current)
			}
			current = &view.AccessPoint{Bssid: strings.ToLower(m[1]), LastSeen: now}
			continue
		}
		if current == nil {
			continue
		}
		if m := signalLine.FindStringSubmatch(line); m != nil {
			if signal, err := strconv.ParseFloat(m[1], 64); err == nil {
				current.Signal = signal
			}
			continue
		}
		if m := ssidLine.FindStringSubmatch(line); m != nil {
			current.Ssid = strings.TrimSpace(m[1])
			continue
		}
		if m := dsChannel.FindStringSubmatch(line); m != nil {
			current.Channel, _ = strconv.Atoi(m[1])
			continue
		}
		// HT operation block carries the channel when DS parameters are absent
		if m := htChannel.FindStringSubmatch(line); m != nil && current.Channel == 0 {
			current.Channel, _ = strconv.Atoi(m[1])
		}
	}
	if current != nil {
		networks = append(networks, *current)
	}
	return networks
}
