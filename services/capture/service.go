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
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/services/cloud_storage"
	"github.com/wlanprobe/wifi-handshake-agent/services/notify"
	"github.com/wlanprobe/wifi-handshake-agent/services/radio"
	"github.com/wlanprobe/wifi-handshake-agent/utils"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

// startConfirmTimeout how long StartCapture waits for the session to reach
// the injection loop before giving up on a synchronous answer
const startConfirmTimeout = time.Second * 5

// Capture public interface
type Capture interface {
	StartCapture(req view.CaptureRequest) (view.CallResult, error)
	StopCapture() view.CallResult
	GetStatus() view.CallResult
}

// underlying type for public interface
type captureInternal struct {
	serviceConfig entities.CaptureServiceConfig
	radio         radio.Radio
	storage       cloud_storage.CloudStorage
	notifier      notify.Sender

	lock       sync.Mutex
	active     *Session
	activeId   string
	lastResult view.CallResult
}

// NewCapture
// creates a new handshake capture service instance bound to one radio.
// The work directory is probed for writability up front, the same way a
// failing capture would discover it later.
func NewCapture(serviceConfig entities.CaptureServiceConfig, r radio.Radio,
	storage cloud_storage.CloudStorage, notifier notify.Sender) (Capture, error) {
	var returnedError error
	if len(serviceConfig.WorkDirectory) > 1 {
		fileName := path.Join(serviceConfig.WorkDirectory, "test.tst")
		fh, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			returnedError = fmt.Errorf("directory '%s' is not writable, error: %v",
				serviceConfig.WorkDirectory, err)
		} else {
			_ = fh.Close()
			_ = os.Remove(fileName)
		}
	} else {
		returnedError = fmt.Errorf("empty work directory is not allowed")
	}
	return &captureInternal{
		serviceConfig: serviceConfig,
		radio:         r,
		storage:       storage,
		notifier:      notifier,
		lastResult:    view.CallResult{Status: view.RequestStatusIdle},
	}, returnedError
}

// StartCapture
// validates the request, spawns the session goroutine and waits until the
// session either reaches the injection loop or fails during setup. Only one
// session may run at a time; a concurrent request is rejected immediately
// with no radio or file side effects.
func (c *captureInternal) StartCapture(req view.CaptureRequest) (view.CallResult, error) {
	c.lock.Lock()
	if c.active != nil {
		id := c.activeId
		c.lock.Unlock()
		return view.CallResult{Status: view.RequestStatusCapturing, Id: id},
			newError(ErrorKindInvalidState,
				fmt.Sprintf("capture '%s' has already started", id), nil)
	}
	id := utils.MakeUniqueId()
	config, err := entities.MakeCaptureSessionConfig(req, c.serviceConfig, id)
	if err != nil {
		c.lock.Unlock()
		return view.CallResult{Status: view.RequestStatusFailed},
			newError(ErrorKindInvalidParameters, "invalid capture request", err)
	}
	session := NewSession(config, c.radio)
	c.active = session
	c.activeId = id
	c.lock.Unlock()

	done := make(chan error, 1)
	utils.SafeAsync(func() {
		summary, runErr := session.Run()
		c.finish(id, summary, runErr)
		done <- runErr
	})

	select {
	case <-session.Started():
		log.Infof("capture '%s' started for %s on channel %d", id,
			entities.BssidString(config.Bssid), config.Channel)
		return view.CallResult{Status: view.RequestStatusCapturing, Id: id, FileName: config.FileName}, nil
	case runErr := <-done:
		if runErr == nil {
			// a very short session can finish before the confirmation is seen
			return c.GetStatus(), nil
		}
		return view.CallResult{Status: view.RequestStatusFailed, Id: id}, runErr
	case <-time.After(startConfirmTimeout):
		return view.CallResult{Status: view.RequestStatusFailed, Id: id},
			newError(ErrorKindRadioConfig, "capture start not confirmed, timeout exceeded", nil)
	}
}

// StopCapture
// requests an early stop of the active session; teardown still runs in
// full. Stopping an idle service is a no-op reporting the last result.
func (c *captureInternal) StopCapture() view.CallResult {
	c.lock.Lock()
	session := c.active
	id := c.activeId
	c.lock.Unlock()
	if session == nil {
		log.Warnln("no active capture to stop")
		return c.GetStatus()
	}
	session.Stop()
	return view.CallResult{Status: view.SessionStateToReqStatus(session.State()), Id: id}
}

// GetStatus
// returns the current capture status, or the last terminal result when no
// session is active
func (c *captureInternal) GetStatus() view.CallResult {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.active != nil {
		state := c.active.State()
		status := view.SessionStateToReqStatus(state)
		// the terminal result is published once the upload and notification
		// hand-off is done; until then the session still counts as finalizing
		if state == view.StateCompleted || state == view.StateFailed {
			status = view.RequestStatusRestoring
		}
		return view.CallResult{
			Status: status,
			Id:     c.activeId,
			Frames: c.active.Frames(),
		}
	}
	return c.lastResult
}

// finish records the terminal result and hands the file off to the upload
// and notification collaborators
func (c *captureInternal) finish(id string, summary Summary, runErr error) {
	result := view.CallResult{
		Id:       id,
		FileName: summary.FileName,
		Frames:   summary.Frames,
		Status:   view.RequestStatusCompleted,
	}
	if runErr != nil {
		result.Status = view.RequestStatusFailed
		log.Errorf("capture '%s' failed: %v", id, runErr)
	}
	if summary.RestoreWarning != nil {
		result.Warning = summary.RestoreWarning.Error()
	}
	if runErr == nil && summary.FilePath != view.EmptyString && c.storage != nil {
		c.storage.StoreFile(summary.FilePath)
	}
	if c.notifier != nil {
		c.notifier.NotifySessionComplete(result)
	}
	c.lock.Lock()
	c.lastResult = result
	c.active = nil
	c.activeId = view.EmptyString
	c.lock.Unlock()
}
