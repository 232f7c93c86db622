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

package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/exception"
	"github.com/wlanprobe/wifi-handshake-agent/services/capture"
	"github.com/wlanprobe/wifi-handshake-agent/services/known_networks"
	"github.com/wlanprobe/wifi-handshake-agent/services/scanner"
	"github.com/wlanprobe/wifi-handshake-agent/services/storage"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

// Service
// an interface to controller
type Service interface {
	OnNetworks(w http.ResponseWriter, r *http.Request)
	OnStartCapture(w http.ResponseWriter, r *http.Request)
	OnStopCapture(w http.ResponseWriter, r *http.Request)
	OnCaptureStatus(w http.ResponseWriter, r *http.Request)
	OnListCaptures(w http.ResponseWriter, r *http.Request)
	OnDownloadCapture(w http.ResponseWriter, r *http.Request)
	OnDeleteCapture(w http.ResponseWriter, r *http.Request)
	OnStatus(w http.ResponseWriter, r *http.Request)
}

type webService struct {
	entities.CaptureControllerConfig
	pkt      capture.Capture // handshake capture service
	networks scanner.Scanner
	known    known_networks.KnownNetworks
	files    storage.CaptureFiles
}

// constants
const (
	requestBodyDeferError = "unable to defer request body. error: %v"
	HttpContentType       = "Content-Type"
	invalidApiKey         = "API key not match"
	emptyApiKey           = "empty API key not allowed in production mode"
	fileNameParam         = "name"
)

// NewWebService
// creates a new web interface instance
func NewWebService(pkt capture.Capture, networks scanner.Scanner, known known_networks.KnownNetworks,
	files storage.CaptureFiles, config entities.CaptureControllerConfig) Service {
	return &webService{
		CaptureControllerConfig: config,
		pkt:                     pkt,
		networks:                networks,
		known:                   known,
		files:                   files,
	}
}

func RespondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set(HttpContentType, "application/json")
	w.WriteHeader(code)
	write, err := w.Write(response)
	if err != nil {
		log.Debugf("%d response bytes written with error: %v", write, err)
	}
}

func RespondWithCustomError(w http.ResponseWriter, err *exception.CustomError) {
	log.Debugf("Request failed. Code = %d. Message = %s. Params: %v. Debug: %s", err.Status, err.Message, err.Params, err.Debug)
	RespondWithJson(w, err.Status, err)
}

// OnNetworks
// returns nearby access points, served from cache when a recent scan exists
func (ws *webService) OnNetworks(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	networks, err := ws.networks.ScanNetworks()
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.UnableToScanNetworks,
			Message: exception.UnableToScanNetworksMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, networks)
}

// OnStartCapture
// try to start a handshake capture (external interface to receive user requests)
func (ws *webService) OnStartCapture(w http.ResponseWriter, r *http.Request) {
	body, err := ws.checkAndGetBody(w, r)
	if err != nil {
		return
	}
	var rb view.CaptureRequest
	err = json.Unmarshal(body, &rb)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return
	}
	// a request may name a known network instead of repeating its channel
	if rb.Channel == 0 && ws.known != nil {
		if ap, found, lookupErr := ws.known.GetAccessPoint(rb.Bssid); lookupErr == nil && found {
			log.Debugf("channel %d taken from the known-network store for %s", ap.Channel, rb.Bssid)
			rb.Channel = ap.Channel
		}
	}
	result, err := ws.pkt.StartCapture(rb)
	if err == nil {
		RespondWithJson(w, http.StatusAccepted, result)
		return
	}
	switch capture.Kind(err) {
	case capture.ErrorKindInvalidParameters:
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
	case capture.ErrorKindInvalidState:
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusConflict,
			Code:    exception.UnableToStartCapture,
			Message: exception.UnableToStartCaptureMsg,
			Params:  map[string]interface{}{"id": result.Id},
			Debug:   err.Error(),
		})
	default:
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.UnableToStartCapture,
			Message: exception.UnableToStartCaptureMsg,
			Debug:   err.Error(),
		})
	}
}

// OnStopCapture
// try to stop the active handshake capture
func (ws *webService) OnStopCapture(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	result := ws.pkt.StopCapture()
	switch result.Status {
	case view.RequestStatusIdle, view.RequestStatusCompleted, view.RequestStatusFailed:
		RespondWithJson(w, http.StatusNotFound, result) // no capture to stop
	default:
		RespondWithJson(w, http.StatusAccepted, result)
	}
}

// OnCaptureStatus
// reports the state of the active or last finished capture
func (ws *webService) OnCaptureStatus(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	RespondWithJson(w, http.StatusOK, ws.pkt.GetStatus())
}

// OnListCaptures
// enumerates stored capture files with their record counts
func (ws *webService) OnListCaptures(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	captures, err := ws.files.ListCaptures()
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusServiceUnavailable,
			Code:    exception.UnableToListCaptures,
			Message: exception.UnableToListCapturesMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, captures)
}

// OnDownloadCapture
// sends one stored capture file as an attachment
func (ws *webService) OnDownloadCapture(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	name := mux.Vars(r)[fileNameParam]
	fullPath, info, err := ws.files.ResolveCapture(name)
	if err != nil {
		ws.respondFileError(w, name, err)
		return
	}
	w.Header().Set(HttpContentType, "application/vnd.tcpdump.pcap")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size))
	http.ServeFile(w, r, fullPath)
	ws.files.CleanupAfterDownload(name)
}

// OnDeleteCapture
// removes one stored capture file
func (ws *webService) OnDeleteCapture(w http.ResponseWriter, r *http.Request) {
	if _, err := ws.checkAndGetBody(w, r); err != nil {
		return
	}
	name := mux.Vars(r)[fileNameParam]
	if err := ws.files.DeleteCapture(name); err != nil {
		ws.respondFileError(w, name, err)
		return
	}
	RespondWithJson(w, http.StatusOK, view.CallResult{FileName: name})
}

// OnStatus
// reports status on TTL requests
func (ws *webService) OnStatus(w http.ResponseWriter, _ *http.Request) {
	RespondWithJson(w, http.StatusOK, "") // always respond OK to calm the watchdogs
}

func (ws *webService) respondFileError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, storage.ErrFileNotFound) || errors.Is(err, storage.ErrUnsafeName) {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.CaptureFileNotFound,
			Message: exception.CaptureFileNotFoundMsg,
			Params:  map[string]interface{}{"name": name},
			Debug:   err.Error(),
		})
		return
	}
	RespondWithCustomError(w, &exception.CustomError{
		Status:  http.StatusServiceUnavailable,
		Code:    exception.UnableToDeleteCapture,
		Message: exception.UnableToDeleteCaptureMsg,
		Params:  map[string]interface{}{"name": name},
		Debug:   err.Error(),
	})
}

// checkAndGetBody
// checks API key and reads body contents
func (ws *webService) checkAndGetBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if ws.APIkey != view.EmptyString {
		apiKeyHeader := r.Header.Get(view.ApiKeyHeader)
		if apiKeyHeader != ws.APIkey {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusUnauthorized,
				Code:    exception.ApiKeyNotFound,
				Message: exception.ApiKeyNotFoundMsg,
				Debug:   invalidApiKey,
			})
			return nil, errors.New(invalidApiKey)
		}
	} else {
		if ws.ProductionMode {
			RespondWithCustomError(w, &exception.CustomError{
				Status:  http.StatusUnauthorized,
				Code:    exception.EmptyParameter,
				Message: exception.EmptyParameterMsg,
				Debug:   emptyApiKey,
			})
			return nil, errors.New(emptyApiKey)
		}
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			log.Debugf(requestBodyDeferError, err)
		}
	}(r.Body)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.BadRequestBody,
			Message: exception.BadRequestBodyMsg,
			Debug:   err.Error(),
		})
		return nil, err
	}
	return body, nil
}
