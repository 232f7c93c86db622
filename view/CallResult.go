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

package view

type RequestStatus string
type SessionState int

// Session state storage type constants
const (
	StateIdle SessionState = iota
	StateChannelLocked
	StateActive
	StateRestoring
	StateCompleted
	StateFailed
)

// Status constant values
const (
	RequestStatusIdle      RequestStatus = "IDLE"
	RequestStatusLocking   RequestStatus = "LOCKING"
	RequestStatusCapturing RequestStatus = "CAPTURING"
	RequestStatusRestoring RequestStatus = "RESTORING"
	RequestStatusCompleted RequestStatus = "COMPLETED"
	RequestStatusFailed    RequestStatus = "FAILED"
)

type CallResult struct {
	Status   RequestStatus `json:"status,omitempty"`
	Id       string        `json:"id,omitempty"`
	FileName string        `json:"file_name,omitempty"`
	Frames   int           `json:"frames,omitempty"`
	Warning  string        `json:"warning,omitempty"`
}

// SessionStateToReqStatus
// converts int state to text
func SessionStateToReqStatus(state SessionState) RequestStatus {
	switch state {
	case StateChannelLocked:
		return RequestStatusLocking
	case StateActive:
		return RequestStatusCapturing
	case StateRestoring:
		return RequestStatusRestoring
	case StateCompleted:
		return RequestStatusCompleted
	case StateFailed:
		return RequestStatusFailed
	default:
		break
	}
	return RequestStatusIdle
}
