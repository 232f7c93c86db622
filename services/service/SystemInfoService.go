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

package service

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/utils"
	"github.com/wlanprobe/wifi-handshake-agent/view"
)

const (
	ListenAddress        = "LISTEN_ADDRESS"
	OriginAllowed        = "ORIGIN_ALLOWED"
	CaptureInterface     = "CAPTURE_INTERFACE"
	CaptureDirectory     = "CAPTURE_DIRECTORY"
	CaptureAutoClean     = "CAPTURE_AUTO_CLEAN"
	DeauthInterval       = "DEAUTH_INTERVAL"
	APIkey               = "AGENT_API_KEY"
	ProductionMode       = "PRODUCTION_MODE"
	WebhookUrl           = "WEBHOOK_URL"
	WebhookApiKey        = "WEBHOOK_API_KEY"
	MinioAccessKeyId     = "STORAGE_SERVER_USERNAME"
	MinioSecretAccessKey = "STORAGE_SERVER_PASSWORD"
	MinioEndpoint        = "STORAGE_SERVER_URL"
	MinioBucketName      = "STORAGE_SERVER_BUCKET_NAME"
	MinioSecure          = "STORAGE_SERVER_SECURE"
	MinioStorageActive   = "MINIO_STORAGE_ACTIVE"
	CfgDefaultAddress    = ":8080" // default listen address
)

type SystemInfoService interface {
	Init() error
	GetListenAddress() string
	GetOriginAllowed() string
	GetString(name string) string
	GetBool(name string) bool
	GetMinioCredentials() entities.MinioStorageCreds
	GetWebhookConfig() entities.WebhookConfig
	GetInstanceId() string
	GetCaptureConfig() entities.CaptureServiceConfig
	GetApiKey() string
	GetCaptureControllerConfig() entities.CaptureControllerConfig
}

// common functions

// NewSystemInfoService
// creates an interface instance
func NewSystemInfoService() (SystemInfoService, error) {
	s := &systemInfoServiceImpl{
		systemInfoMap: make(map[string]interface{}),
		instanceId:    utils.MakeUniqueId(),
	}
	log.Printf("instance ID:%s", s.instanceId)
	if err := s.Init(); err != nil {
		log.Error("Failed to read system info: " + err.Error())
		return nil, err
	}
	return s, nil
}

// systemInfoServiceImpl an interface implementation
type systemInfoServiceImpl struct {
	systemInfoMap  map[string]interface{} // parameters
	instanceId     string
	deauthInterval time.Duration
}

// extractBoolDef
// extracts bool value from string with default value
func extractBoolDef(v string, defVal bool) bool {
	if v == view.EmptyString {
		return defVal
	}
	val, err := strconv.ParseBool(v)
	if err != nil {
		return defVal
	}
	return val
}

// extractBool
// extracts bool value from string. error, empty or absent value means 'false'
func extractBool(v string) bool {
	return extractBoolDef(v, false)
}

// wirelessInterfaceExists
// validates that the configured capture interface is present on this host
func wirelessInterfaceExists(name string) error {
	_, err := net.InterfaceByName(name)
	return err
}

// interface functions

// Init
// loads configuration from the environment
func (g *systemInfoServiceImpl) Init() error {
	// production mode (enable by default)
	g.systemInfoMap[ProductionMode] = extractBoolDef(os.Getenv(ProductionMode), true)
	// configuration parameters without validation
	g.systemInfoMap[OriginAllowed] = os.Getenv(OriginAllowed)
	g.systemInfoMap[WebhookUrl] = os.Getenv(WebhookUrl)
	g.systemInfoMap[WebhookApiKey] = os.Getenv(WebhookApiKey)
	// capture
	iface := os.Getenv(CaptureInterface)
	if iface == view.EmptyString {
		return fmt.Errorf("unable to continue without a wireless interface. Please set value for %s", CaptureInterface)
	}
	if err := wirelessInterfaceExists(iface); err != nil {
		return fmt.Errorf("interface '%s' is not present: %v", iface, err)
	}
	g.systemInfoMap[CaptureInterface] = iface
	captureDir := os.Getenv(CaptureDirectory)
	if captureDir == view.EmptyString {
		captureDir = os.TempDir()
		log.Warnf("%s not set, capture files go to '%s'", CaptureDirectory, captureDir)
	}
	g.systemInfoMap[CaptureDirectory] = captureDir
	g.systemInfoMap[CaptureAutoClean] = extractBool(os.Getenv(CaptureAutoClean))
	g.deauthInterval = view.DeauthInterval
	if interval := os.Getenv(DeauthInterval); interval != view.EmptyString {
		parsed, err := time.ParseDuration(interval)
		if err != nil || parsed <= 0 {
			return fmt.Errorf("improper value '%s' passed as %s", interval, DeauthInterval)
		}
		g.deauthInterval = parsed
	}
	// S3/Minio
	g.systemInfoMap[MinioAccessKeyId] = os.Getenv(MinioAccessKeyId)
	g.systemInfoMap[MinioSecretAccessKey] = os.Getenv(MinioSecretAccessKey)
	g.systemInfoMap[MinioEndpoint] = os.Getenv(MinioEndpoint)
	g.systemInfoMap[MinioBucketName] = os.Getenv(MinioBucketName)
	g.systemInfoMap[MinioSecure] = extractBool(os.Getenv(MinioSecure))
	g.systemInfoMap[MinioStorageActive] = extractBool(os.Getenv(MinioStorageActive))
	apiKey := os.Getenv(APIkey)
	if apiKey == view.EmptyString {
		if g.GetBool(ProductionMode) {
			log.Fatalf("Unable to load API key. That will be unsafe in production mode")
		} else {
			log.Warnln("API key empty or not present")
		}
	} else {
		g.systemInfoMap[APIkey] = apiKey
	}
	// ListenAddress a.k.a. endpoint
	sla := os.Getenv(ListenAddress)
	if sla == view.EmptyString {
		sla = CfgDefaultAddress
		log.Warnf("%s not set, using default '%s'", ListenAddress, sla)
	}
	if _, _, err := net.SplitHostPort(sla); err != nil {
		return fmt.Errorf("invalid listen address: %s (%v)", sla, err)
	}
	g.systemInfoMap[ListenAddress] = sla
	return nil
}

// GetListenAddress
// returns string value for ListenAddress
func (g *systemInfoServiceImpl) GetListenAddress() string {
	return g.GetString(ListenAddress)
}

// GetOriginAllowed
// returns string value for OriginAllowed
func (g *systemInfoServiceImpl) GetOriginAllowed() string {
	return g.GetString(OriginAllowed)
}

// GetString
// returns string by name or empty string when not found
func (g *systemInfoServiceImpl) GetString(name string) string {
	if v, ok := g.systemInfoMap[name]; ok {
		return v.(string)
	}
	return view.EmptyString
}

// GetBool
// get bool value from configuration
func (g *systemInfoServiceImpl) GetBool(name string) bool {
	if v, ok := g.systemInfoMap[name]; ok {
		return v.(bool)
	}
	return false
}

// GetMinioCredentials
// constructs MINIO credentials from configuration
func (g *systemInfoServiceImpl) GetMinioCredentials() entities.MinioStorageCreds {
	return entities.MinioStorageCreds{
		BucketName:      g.GetString(MinioBucketName),
		IsActive:        g.GetBool(MinioStorageActive),
		Endpoint:        g.GetString(MinioEndpoint),
		AccessKeyId:     g.GetString(MinioAccessKeyId),
		SecretAccessKey: g.GetString(MinioSecretAccessKey),
		Secure:          g.GetBool(MinioSecure),
	}
}

// GetWebhookConfig
// returns the completion webhook endpoint, may be empty
func (g *systemInfoServiceImpl) GetWebhookConfig() entities.WebhookConfig {
	return entities.WebhookConfig{
		URL:    g.GetString(WebhookUrl),
		APIkey: g.GetString(WebhookApiKey),
	}
}

// GetInstanceId
// returns unique instance Id, generated at start
func (g *systemInfoServiceImpl) GetInstanceId() string {
	return g.instanceId
}

func (g *systemInfoServiceImpl) GetCaptureConfig() entities.CaptureServiceConfig {
	iface := g.GetString(CaptureInterface)
	log.Printf("Interface   :'%s' configured", iface)
	log.Printf("Instance Id :%s", g.instanceId)
	log.Printf("Deauth every:%s", g.deauthInterval)
	return entities.CaptureServiceConfig{
		NetworkInterface: iface,
		WorkDirectory:    g.GetString(CaptureDirectory),
		DeauthInterval:   g.deauthInterval,
		InstanceId:       g.instanceId,
	}
}

func (g *systemInfoServiceImpl) GetApiKey() string {
	return g.GetString(APIkey)
}

func (g *systemInfoServiceImpl) GetCaptureControllerConfig() entities.CaptureControllerConfig {
	return entities.CaptureControllerConfig{
		APIkey:         g.GetApiKey(),
		ProductionMode: g.GetBool(ProductionMode),
		AutoClean:      g.GetBool(CaptureAutoClean),
	}
}
