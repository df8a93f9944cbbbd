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

package framework

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

// TestConfig is the YAML run description pointed to by E2E_TESTCONFIG:
// which cases run and the settings shared between them.
type TestConfig struct {
	Cases    []string     `yaml:"testCases"`
	Settings TestSettings `yaml:"testSettings,omitempty"`
}

type TestSettings struct {
	Namespace      string         `yaml:"namespace,omitempty"`
	CaseSettings   []CaseSettings `yaml:"caseSettings,omitempty"`
	KubeconfigURL  string         `yaml:"kubeconfigUrl,omitempty"`
	KubeconfigFile string         `yaml:"kubeconfigFile,omitempty"`
	KeepAfter      bool           `yaml:"keepAfter,omitempty"`
	SkipStoreState bool           `yaml:"skipStoreState,omitempty"`
}

// CaseSettings carries per-case parameters, metallb address ranges
// being a typical example.
type CaseSettings struct {
	Name   string            `yaml:"name"`
	Config map[string]string `yaml:"config"`
}

// CaseEnabled reports whether the named test case is part of the run.
func (tc *TestConfig) CaseEnabled(name string) bool {
	for _, testCase := range tc.Cases {
		if testCase == name {
			return true
		}
	}
	return false
}

// resolveConfigPath accepts E2E_TESTCONFIG as either a path or a bare
// file name looked up under <E2E_TESTCONFIG_DIR>/testconfigs/.
func resolveConfigPath() (string, error) {
	path := os.Getenv("E2E_TESTCONFIG")
	if path == "" {
		return "", errors.New("E2E_TESTCONFIG env var is not set")
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	dir := os.Getenv("E2E_TESTCONFIG_DIR")
	if dir == "" {
		dir, _ = os.Getwd()
	}
	path = filepath.Join(dir, "testconfigs", path)
	_, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to find test config file")
	}
	return path, nil
}

func GetFrameworkConfig() (*TestConfig, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read test config file")
	}
	fc := &TestConfig{}
	err = yaml.Unmarshal(raw, fc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal test config file")
	}
	if namespace := os.Getenv("TEST_NAMESPACE"); namespace != "" {
		fc.Settings.Namespace = namespace
	}
	return fc, nil
}

func GetConfigForTestCase(t *testing.T) map[string]string {
	for _, testCase := range TF.TestConfig.Settings.CaseSettings {
		if testCase.Name == t.Name() {
			return testCase.Config
		}
	}
	return nil
}
