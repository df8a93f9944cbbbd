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

package codeversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCodeVersion(t *testing.T) {
	assert.Equal(t, "ocs-ci version: devel", GetCodeVersion("ocs-ci"))

	oldCommit := Commit
	Commit = "abc1234"
	assert.Equal(t, "ocs-ci version: devel (commit abc1234)", GetCodeVersion("ocs-ci"))
	Commit = oldCommit
}

func TestGetGoRuntimeVersion(t *testing.T) {
	assert.Contains(t, GetGoRuntimeVersion(), "Go version: go")
}
