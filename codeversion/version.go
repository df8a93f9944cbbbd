/*
Copyright 2026 Red Hat, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package codeversion carries build metadata stamped in through
// -ldflags "-X github.com/red-hat-storage/ocs-ci/codeversion.Version=...".
package codeversion

import (
	"fmt"
	"runtime"
)

var (
	Version = "devel"
	Commit  string
)

func GetCodeVersion(app string) string {
	if Commit != "" {
		return fmt.Sprintf("%s version: %s (commit %s)", app, Version, Commit)
	}
	return fmt.Sprintf("%s version: %s", app, Version)
}

func GetGoRuntimeVersion() string {
	return fmt.Sprintf("Go version: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
