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

package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

type recordingStorage struct {
	lock  sync.Mutex
	files []string
}

func (s *recordingStorage) StoreFile(fileName string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.files = append(s.files, fileName)
}

func (s *recordingStorage) Close() {}

func (s *recordingStorage) stored() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.files...)
}

type recordingNotifier struct {
	lock    sync.Mutex
	results []view.CallResult
}

func (n *recordingNotifier) NotifySessionComplete(result view.CallResult) {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.results = append(n.results, result)
}

func (n *recordingNotifier) sent() []view.CallResult {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]view.CallResult(nil), n.results...)
}

func makeService(t *testing.T, r *fakeRadio) (Capture, *recordingStorage, *recordingNotifier) {
	t.Helper()
	storage := &recordingStorage{}
	notifier := &recordingNotifier{}
	service, err := NewCapture(entities.CaptureServiceConfig{
		NetworkInterface: "wlan0",
		WorkDirectory:    t.TempDir(),
		DeauthInterval:   time.Millisecond * 2,
	}, r, storage, notifier)
	require.NoError(t, err)
	return service, storage, notifier
}

func waitForIdle(t *testing.T, service Capture) view.CallResult {
	t.Helper()
	deadline := time.Now().Add(time.Second * 10)
	for time.Now().Before(deadline) {
		status := service.GetStatus()
		if status.Status == view.RequestStatusCompleted || status.Status == view.RequestStatusFailed {
			return status
		}
		time.Sleep(time.Millisecond * 20)
	}
	t.Fatal("capture did not reach a terminal state in time")
	return view.CallResult{}
}

func TestNewCaptureRejectsUnwritableDirectory(t *testing.T) {
	_, err := NewCapture(entities.CaptureServiceConfig{
		WorkDirectory: "/proc/no/such/place",
	}, &fakeRadio{}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not writable")
}

func TestStartCaptureRejectsBadRequest(t *testing.T) {
	service, _, _ := makeService(t, &fakeRadio{})
	result, err := service.StartCapture(view.CaptureRequest{Bssid: "not-a-mac", Channel: 6})
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidParameters, Kind(err))
	assert.Equal(t, view.RequestStatusFailed, result.Status)
	assert.Equal(t, view.RequestStatusIdle, service.GetStatus().Status)
}

func TestStartCaptureLifecycle(t *testing.T) {
	r := &fakeRadio{}
	service, storage, notifier := makeService(t, r)
	result, err := service.StartCapture(view.CaptureRequest{
		Bssid:    "aa:bb:cc:dd:ee:ff",
		Channel:  6,
		Duration: "1s",
	})
	require.NoError(t, err)
	assert.Equal(t, view.RequestStatusCapturing, result.Status)
	require.NotEmpty(t, result.Id)
	assert.Contains(t, result.FileName, "aabbccddeeff")

	r.deliver(eapolKeyFrame())

	status := waitForIdle(t, service)
	assert.Equal(t, view.RequestStatusCompleted, status.Status)
	assert.Equal(t, result.Id, status.Id)
	assert.Equal(t, 1, status.Frames)

	require.Len(t, storage.stored(), 1)
	assert.Contains(t, storage.stored()[0], result.FileName)
	sent := notifier.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, view.RequestStatusCompleted, sent[0].Status)
}

func TestStartCaptureRejectsConcurrentRequest(t *testing.T) {
	r := &fakeRadio{}
	service, _, _ := makeService(t, r)
	first, err := service.StartCapture(view.CaptureRequest{
		Bssid:    "aa:bb:cc:dd:ee:ff",
		Channel:  1,
		Duration: "1m",
	})
	require.NoError(t, err)

	second, err := service.StartCapture(view.CaptureRequest{
		Bssid:    "11:22:33:44:55:66",
		Channel:  11,
		Duration: "5s",
	})
	require.Error(t, err)
	assert.Equal(t, ErrorKindInvalidState, Kind(err))
	assert.Equal(t, first.Id, second.Id)

	service.StopCapture()
	waitForIdle(t, service)
}

func TestStopCaptureEndsSessionEarly(t *testing.T) {
	r := &fakeRadio{}
	service, _, notifier := makeService(t, r)
	started, err := service.StartCapture(view.CaptureRequest{
		Bssid:    "aa:bb:cc:dd:ee:ff",
		Channel:  6,
		Duration: "1m",
	})
	require.NoError(t, err)

	service.StopCapture()
	status := waitForIdle(t, service)
	assert.Equal(t, view.RequestStatusCompleted, status.Status)
	assert.Equal(t, started.Id, status.Id)
	assert.False(t, r.isPromiscuous())
	require.Len(t, notifier.sent(), 1)
}

func TestStopCaptureWithoutSession(t *testing.T) {
	service, _, _ := makeService(t, &fakeRadio{})
	result := service.StopCapture()
	assert.Equal(t, view.RequestStatusIdle, result.Status)
}

func TestStartCaptureSetupFailure(t *testing.T) {
	r := &fakeRadio{promiscErr: assert.AnError}
	service, storage, _ := makeService(t, r)
	_, err := service.StartCapture(view.CaptureRequest{
		Bssid:    "aa:bb:cc:dd:ee:ff",
		Channel:  6,
		Duration: "1s",
	})
	require.Error(t, err)
	assert.Equal(t, ErrorKindRadioConfig, Kind(err))

	status := waitForIdle(t, service)
	assert.Equal(t, view.RequestStatusFailed, status.Status)
	assert.Empty(t, storage.stored(), "failed captures are not uploaded")
}
