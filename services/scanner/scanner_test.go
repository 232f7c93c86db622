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

package scanner

import (
	"errors"
	"testing"

	"github.com/shaj13/libcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlanprobe/wifi-handshake-agent/view"
)

const iwScanFixture = `BSS aa:bb:cc:dd:ee:ff(on wlan0) -- associated
	last seen: 123.456s [boottime]
	TSF: 123456789 usec (1d, 10:17:36)
	freq: 2437
	beacon interval: 100 TUs
	capability: ESS Privacy ShortSlotTime (0x0411)
	signal: -45.00 dBm
	SSID: HomeNetwork
	Supported rates: 1.0* 2.0* 5.5* 11.0* 18.0 24.0 36.0 54.0
	DS Parameter set: channel 6
	RSN:	 * Version: 1
		 * Group cipher: CCMP
		 * Pairwise ciphers: CCMP
		 * Authentication suites: PSK
BSS 11:22:33:44:55:66(on wlan0)
	freq: 2412
	signal: -71.50 dBm
	SSID: CoffeeShop Guest
	HT operation:
		 * primary channel: 1
		 * secondary channel offset: no secondary
BSS 99:88:77:66:55:44(on wlan0)
	freq: 2472
	signal: -83.00 dBm
	SSID:
	DS Parameter set: channel 13
`

type memorySink struct {
	recorded []view.AccessPoint
	err      error
}

func (s *memorySink) RecordAccessPoint(ap view.AccessPoint) error {
	if s.err != nil {
		return s.err
	}
	s.recorded = append(s.recorded, ap)
	return nil
}

func makeScanner(sink Sink, runScan func(string) ([]byte, error)) *networkScanner {
	ns := &networkScanner{
		iface:   "wlan0",
		cache:   libcache.LRU.New(cacheSize),
		sink:    sink,
		runScan: runScan,
	}
	ns.cache.SetTTL(view.ScanCacheTTL)
	return ns
}

func TestParseScanOutput(t *testing.T) {
	networks := parseScanOutput(iwScanFixture)
	require.Len(t, networks, 3)

	assert.Equal(t, "aa:bb:cc:dd:ee:ff", networks[0].Bssid)
	assert.Equal(t, "HomeNetwork", networks[0].Ssid)
	assert.Equal(t, 6, networks[0].Channel)
	assert.Equal(t, -45.0, networks[0].Signal)

	assert.Equal(t, "11:22:33:44:55:66", networks[1].Bssid)
	assert.Equal(t, "CoffeeShop Guest", networks[1].Ssid)
	assert.Equal(t, 1, networks[1].Channel, "channel taken from HT operation block")
	assert.Equal(t, -71.5, networks[1].Signal)

	assert.Equal(t, "", networks[2].Ssid, "hidden network keeps an empty name")
	assert.Equal(t, 13, networks[2].Channel)
}

func TestParseScanOutputEmpty(t *testing.T) {
	assert.Empty(t, parseScanOutput(""))
	assert.Empty(t, parseScanOutput("command failed: Network is down (-100)"))
}

func TestScanNetworksCachesResults(t *testing.T) {
	calls := 0
	ns := makeScanner(nil, func(string) ([]byte, error) {
		calls++
		return []byte(iwScanFixture), nil
	})
	first, err := ns.ScanNetworks()
	require.NoError(t, err)
	second, err := ns.ScanNetworks()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestScanNetworksRecordsToSink(t *testing.T) {
	sink := &memorySink{}
	ns := makeScanner(sink, func(string) ([]byte, error) {
		return []byte(iwScanFixture), nil
	})
	networks, err := ns.ScanNetworks()
	require.NoError(t, err)
	assert.Equal(t, networks, sink.recorded)
}

func TestScanNetworksSinkFailureIsNotFatal(t *testing.T) {
	sink := &memorySink{err: errors.New("store closed")}
	ns := makeScanner(sink, func(string) ([]byte, error) {
		return []byte(iwScanFixture), nil
	})
	networks, err := ns.ScanNetworks()
	require.NoError(t, err)
	assert.Len(t, networks, 3)
}

func TestScanNetworksCommandFailure(t *testing.T) {
	ns := makeScanner(nil, func(string) ([]byte, error) {
		return nil, errors.New("operation not permitted")
	})
	_, err := ns.ScanNetworks()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wlan0")
}
