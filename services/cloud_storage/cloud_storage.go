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

// Package cloud_storage uploads finished capture files to an S3/Minio
// bucket so handshakes survive the (possibly battery powered) capture box.
package cloud_storage

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"

	"github.com/wlanprobe/wifi-handshake-agent/entities"
	"github.com/wlanprobe/wifi-handshake-agent/utils"
)

type CloudStorage interface {
	// StoreFile queues a local file for upload, best effort
	StoreFile(fileName string)
	// Close drains the queue and stops the upload worker
	Close()
}

const (
	// breakTheLoop sentinel file name that stops the upload worker
	breakTheLoop = "BREAK!"
	// queueDepth uploads tolerated to lag behind capturing
	queueDepth      = 16
	contentTypePcap = "application/vnd.tcpdump.pcap"
)

type cloudStorage struct {
	inputQueue         chan string
	storageCredentials entities.MinioStorageCreds
	client             *minio.Client
	closeOnce          sync.Once
}

// NewCloudStorage
// creates the storage service. With inactive credentials every StoreFile
// call is a logged no-op, which keeps the capture path identical on boxes
// without a bucket.
func NewCloudStorage(creds entities.MinioStorageCreds) CloudStorage {
	cs := &cloudStorage{
		inputQueue:         make(chan string, queueDepth),
		storageCredentials: creds,
	}
	if creds.IsActive {
		client, err := minio.New(creds.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(creds.AccessKeyId, creds.SecretAccessKey, ""),
			Secure: creds.Secure,
		})
		if err != nil {
			log.Warnf("unable to create minio client for '%s': %v. Uploads disabled", creds.Endpoint, err)
		} else {
			cs.client = client
		}
	} else {
		log.Info("cloud storage is not configured. Capture files stay local")
	}
	utils.SafeAsync(func() {
		cs.uploadLoop()
	})
	return cs
}

func (cs *cloudStorage) StoreFile(fileName string) {
	select {
	case cs.inputQueue <- fileName:
	default:
		log.Warnf("upload queue full, file '%s' stays local only", fileName)
	}
}

func (cs *cloudStorage) Close() {
	cs.closeOnce.Do(func() {
		cs.inputQueue <- breakTheLoop
	})
}

// uploadLoop
// single worker goroutine, keeps uploads out of the capture path
func (cs *cloudStorage) uploadLoop() {
	for fileName := range cs.inputQueue {
		if fileName == breakTheLoop {
			log.Debug("cloud storage upload loop finished")
			return
		}
		if cs.client == nil {
			log.Debugf("no cloud storage, skipping upload of '%s'", fileName)
			continue
		}
		objectName := filepath.Base(fileName)
		info, err := cs.client.FPutObject(context.Background(),
			cs.storageCredentials.BucketName, objectName, fileName,
			minio.PutObjectOptions{ContentType: contentTypePcap})
		if err != nil {
			log.Errorf("unable to upload '%s' to bucket '%s': %v",
				fileName, cs.storageCredentials.BucketName, err)
			continue
		}
		log.Infof("uploaded '%s' (%d bytes) to bucket '%s'",
			objectName, info.Size, cs.storageCredentials.BucketName)
	}
}
