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

// Package notify pushes capture completion events to an external webhook.
package notify

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"

	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/utils"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

type Sender interface {
	// NotifySessionComplete posts the session result, fire and forget
	NotifySessionComplete(result view.CallResult)
}

type webhookSender struct {
	config entities.WebhookConfig
}

// NewWebhookSender
// returns a Sender for the configured URL; an empty URL yields a sender
// that drops every event
func NewWebhookSender(config entities.WebhookConfig) Sender {
	if config.URL == view.EmptyString {
		log.Info("no webhook configured, capture completion events are not sent")
	}
	return &webhookSender{config: config}
}

func (s *webhookSender) NotifySessionComplete(result view.CallResult) {
	if s.config.URL == view.EmptyString {
		return
	}
	utils.SafeAsync(func() {
		s.post(result)
	})
}

func (s *webhookSender) post(result view.CallResult) {
	body, err := json.Marshal(result)
	if err != nil {
		log.Errorf("unable to marshal capture result for webhook: %v", err)
		return
	}
	client := resty.New().SetTimeout(time.Second * 30)
	req := client.R().SetHeader("Content-Type", "application/json").SetBody(body)
	if s.config.APIkey != view.EmptyString {
		req.SetHeader(view.ApiKeyHeader, s.config.APIkey)
	}
	resp, err := req.Post(s.config.URL)
	if err != nil {
		log.Errorf("error '%v' during webhook notification to '%s'", err, s.config.URL)
		return
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		log.Errorf("improper status '%d' during webhook notification to '%s'",
			resp.StatusCode(), s.config.URL)
	}
}
