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

package entities

// external API route paths
const (
	NetworksPath      = "/api/v1/networks"
	CaptureStartPath  = "/api/v1/capture"
	CaptureStopPath   = "/api/v1/capture/stop"
	CaptureStatusPath = "/api/v1/capture/status"
	CaptureListPath   = "/api/v1/captures"
	CaptureFilePath   = "/api/v1/captures/{name}"
)
