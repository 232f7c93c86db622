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

package main

import (
	"flag"
	"io"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wlanprobe/wifi-handshake-agent/controllers"
	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/services/capture"
	"github.com/wlanprobe/wifi-handshake-agent/services/cloud_storage"
	"github.com/wlanprobe/wifi-handshake-agent/services/known_networks"
	"github.com/wlanprobe/wifi-handshake-agent/services/notify"
	"github.com/wlanprobe/wifi-handshake-agent/services/radio"
	"github.com/wlanprobe/wifi-handshake-agent/services/scanner"
	"github.com/wlanprobe/wifi-handshake-agent/services/service"
	"github.com/wlanprobe/wifi-handshake-agent/services/storage"
	"github.com/wlanprobe/wifi-handshake-agent/utils"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

type serviceStatusType int

const (
	serviceStatusRunning serviceStatusType = iota
	serviceStatusStart
	serviceStatusRestart
)

const restartServiceInterval = 10 * time.Second

func makeServer(systemInfoService service.SystemInfoService, r *mux.Router) *http.Server {
	listenAddr := systemInfoService.GetListenAddress()

	log.Infof("Listen addr = %s", listenAddr)

	var corsOptions []handlers.CORSOption

	corsOptions = append(corsOptions,
		handlers.AllowedHeaders([]string{
			"Connection",
			"Accept-Encoding",
			"Content-Encoding",
			"X-Requested-With",
			controllers.HttpContentType,
			view.ApiKeyHeader}))

	allowedOrigin := systemInfoService.GetOriginAllowed()
	if allowedOrigin != "" {
		corsOptions = append(corsOptions, handlers.AllowedOrigins([]string{allowedOrigin}))
	}
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet, http.MethodDelete}))

	return &http.Server{
		Handler:      handlers.CompressHandler(handlers.CORS(corsOptions...)(r)),
		Addr:         listenAddr,
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
}

// init
// initialises logging
func init() {
	basePath := os.Getenv("BASE_PATH")
	if basePath == "" {
		basePath = "."
	}
	mw := io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename: path.Join(basePath, "logs", "wifi_handshake_agent.log"),
		MaxSize:  10, // megabytes
	})
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	logLevel, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(mw)
}

func main() {
	actionStr := view.EmptyString
	logLevel := view.EmptyString
	flag.StringVar(&actionStr, "action", view.EmptyString, "What needs to be debugged (scan, list-captures)")
	flag.StringVar(&logLevel, "log-level", "DEBUG", "A logging level: (trace, debug, info, warning, error, fatal, panic)")
	flag.Parse()
	systemInfoService, mandatoryServiceError := service.NewSystemInfoService()
	if mandatoryServiceError != nil {
		log.Fatalf("unable to prepare service configuration '%v'", mandatoryServiceError)
	}
	captureConfig := systemInfoService.GetCaptureConfig()
	cs3 := cloud_storage.NewCloudStorage(systemInfoService.GetMinioCredentials())
	defer cs3.Close() // finish at the end
	known, err := known_networks.NewKnownNetworks(captureConfig.WorkDirectory)
	if err != nil {
		log.Fatalf("unable to open the known-network store: %v", err)
	}
	defer func() {
		if err := known.Close(); err != nil {
			log.Error(err)
		}
	}()
	wifi := radio.NewPcapRadio(captureConfig.NetworkInterface)
	networks := scanner.NewScanner(captureConfig.NetworkInterface, known)
	sender := notify.NewWebhookSender(systemInfoService.GetWebhookConfig())
	controllerConfig := systemInfoService.GetCaptureControllerConfig()
	files := storage.NewCaptureFiles(captureConfig.WorkDirectory, controllerConfig.AutoClean)
	if actionStr == view.EmptyString {
		pkt, err := capture.NewCapture(captureConfig, wifi, cs3, sender)
		if err != nil {
			log.Fatalf("capture created with error '%v'", err)
		}
		ws := controllers.NewWebService(pkt, networks, known, files, controllerConfig)
		failureReportChannel := make(chan string)
		controllerStatus := serviceStatusStart // try to start service
		restartPause := restartServiceInterval // set initial pause
		for {
			if controllerStatus != serviceStatusRunning {
				if controllerStatus == serviceStatusRestart { // when service is restarting
					time.Sleep(restartPause) // make a pause
					restartPause *= 2        // increase interval
				}
				controllerStatus = serviceStatusRunning // mark service as running
				utils.SafeAsync(func() {
					defer func() {
						select {
						case failureReportChannel <- view.EmptyString:
							break // controller failed
						case <-time.After(time.Second * 5): // channel writing timeout
							log.Warnf("unable to notify about controller's failure")
						}
					}()
					r := mux.NewRouter()
					r.SkipClean(true)
					r.UseEncodedPath()
					r.HandleFunc(entities.NetworksPath, ws.OnNetworks).Methods(http.MethodGet)
					r.HandleFunc(entities.CaptureStartPath, ws.OnStartCapture).Methods(http.MethodPost)
					r.HandleFunc(entities.CaptureStopPath, ws.OnStopCapture).Methods(http.MethodPost)
					r.HandleFunc(entities.CaptureStatusPath, ws.OnCaptureStatus).Methods(http.MethodGet)
					r.HandleFunc(entities.CaptureListPath, ws.OnListCaptures).Methods(http.MethodGet)
					r.HandleFunc(entities.CaptureFilePath, ws.OnDownloadCapture).Methods(http.MethodGet)
					r.HandleFunc(entities.CaptureFilePath, ws.OnDeleteCapture).Methods(http.MethodDelete)
					// set TTL reactions
					r.HandleFunc("/live", ws.OnStatus).Methods(http.MethodGet)
					r.HandleFunc("/ready", ws.OnStatus).Methods(http.MethodGet)
					r.HandleFunc("/startup", ws.OnStatus).Methods(http.MethodGet)
					srv := makeServer(systemInfoService, r)
					log.Fatalf("Service fatal error:%v", srv.ListenAndServe())
				})
			}
			select {
			case <-failureReportChannel:
				{
					log.Error("controller failed unexpectedly")
					controllerStatus = serviceStatusRestart // when failed - ask for a restart
				}
			case <-time.After(time.Hour * 24):
				{
					log.Print("Controller is healthy")
					restartPause = restartServiceInterval // reset interval when service is running
				}
			}
		}
	} else {
		log.Printf("Debug mode action %s", actionStr)
		switch strings.ToUpper(logLevel) {
		case "TRACE":
			log.SetLevel(log.TraceLevel)
		case "DEBUG":
			log.SetLevel(log.DebugLevel)
		case "INFO":
			log.SetLevel(log.InfoLevel)
		case "WARNING":
			log.SetLevel(log.WarnLevel)
		case "ERROR":
			log.SetLevel(log.ErrorLevel)
		case "FATAL":
			log.SetLevel(log.FatalLevel)
		default:
			log.SetLevel(log.DebugLevel)
		}
		switch actionStr {
		case "scan":
			{
				log.Println("scanning for networks")
				t1 := time.Now()
				list, err := networks.ScanNetworks()
				t2 := time.Now()
				if err != nil {
					log.Errorf("Error scanning networks: %v", err)
					break
				}
				log.Printf("ScanNetworks takes %v", t2.Sub(t1))
				for _, ap := range list {
					log.Printf("*** %-20s %s ch=%2d %.1f dBm", ap.Ssid, ap.Bssid, ap.Channel, ap.Signal)
				}
				log.Printf("%d known network(s) on disk", known.Count())
			}
		case "list-captures":
			{
				captures, err := files.ListCaptures()
				if err != nil {
					log.Errorf("Error listing captures: %v", err)
					break
				}
				for _, capt := range captures {
					log.Printf("*** %s %d byte(s), %d record(s), %s", capt.Name, capt.Size, capt.Records, capt.Modified)
				}
			}
		default:
			log.Errorf("don't know how to handle action %v", actionStr)
		}
	}
}
