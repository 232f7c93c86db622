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

package utils

import (
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// SafeAsync
// runs the function in a goroutine, turning a panic into an error log
// instead of taking the whole agent down
func SafeAsync(function func()) {
	go func() {
		defer internalRecover()
		function()
	}()
}

// SafeRun
// runs the function in the current goroutine with the same panic guard
func SafeRun(function func()) {
	defer internalRecover()
	function()
}

// internalRecover
// panic recovery
func internalRecover() {
	if err := recover(); err != nil {
		log.Errorf("goroutine failed with panic: %v", err)
		log.Tracef("stacktrace: %v", string(debug.Stack()))
	}
}
