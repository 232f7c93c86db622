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

import "time"

// CaptureServiceConfig static part of the capture configuration
type CaptureServiceConfig struct {
	NetworkInterface string        // wireless interface to drive (monitor-mode capable)
	WorkDirectory    string        // local path to store capture files
	DeauthInterval   time.Duration // pause between spoofed deauthentication frames
	InstanceId       string        // process instance ID for making distinctive capture files
}

// CaptureControllerConfig web surface configuration
type CaptureControllerConfig struct {
	APIkey         string // api-key header value expected on requests
	ProductionMode bool   // when true an empty API key is rejected
	AutoClean      bool   // delete a stored capture after it has been downloaded
}

// MinioStorageCreds S3/Minio storage access parameters
type MinioStorageCreds struct {
	Endpoint        string
	AccessKeyId     string
	SecretAccessKey string
	BucketName      string
	Secure          bool
	IsActive        bool
}

// WebhookConfig capture completion notification target
type WebhookConfig struct {
	URL    string // POST target, empty disables notification
	APIkey string // optional api-key header to send along
}
