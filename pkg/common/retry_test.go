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

package ocscommon

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSamplerWaitForCondition(t *testing.T) {
	log := InitLogger()
	tests := []struct {
		name          string
		doneAfter     int
		terminalErr   error
		expectedError string
	}{
		{
			name:      "condition passes on first sample",
			doneAfter: 1,
		},
		{
			name:      "condition passes after transient failures",
			doneAfter: 3,
		},
		{
			name:          "condition never passes",
			doneAfter:     0,
			expectedError: "failed to wait for test condition: context deadline exceeded",
		},
		{
			name:          "terminal error aborts sampling",
			terminalErr:   errors.New("terminal failure"),
			expectedError: "failed to wait for test condition: terminal failure",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sampler := NewSampler(log, 5*time.Millisecond, 100*time.Millisecond)
			samples := 0
			err := sampler.WaitForCondition(context.Background(), "test condition", func() (bool, error) {
				samples++
				if test.terminalErr != nil {
					return false, test.terminalErr
				}
				if test.doneAfter > 0 && samples >= test.doneAfter {
					return true, nil
				}
				return false, nil
			})
			if test.expectedError != "" {
				assert.NotNil(t, err)
				assert.Equal(t, test.expectedError, err.Error())
			} else {
				assert.Nil(t, err)
				assert.Equal(t, test.doneAfter, samples)
			}
			if test.terminalErr != nil {
				assert.Equal(t, 1, samples)
			}
		})
	}
}

func TestSamplerWaitForOutput(t *testing.T) {
	log := InitLogger()
	tests := []struct {
		name           string
		failures       int
		alwaysFail     bool
		expectedOutput string
		expectedError  string
	}{
		{
			name:           "output available immediately",
			expectedOutput: "sampled",
		},
		{
			name:           "output available after transient failures",
			failures:       2,
			expectedOutput: "sampled",
		},
		{
			name:          "output never available",
			alwaysFail:    true,
			expectedError: "failed to wait for test output: sample failed",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			sampler := NewSampler(log, 5*time.Millisecond, 100*time.Millisecond)
			samples := 0
			output, err := sampler.WaitForOutput(context.Background(), "test output", func() (string, error) {
				samples++
				if test.alwaysFail || samples <= test.failures {
					return "", errors.New("sample failed")
				}
				return "sampled", nil
			})
			if test.expectedError != "" {
				assert.NotNil(t, err)
				assert.Equal(t, test.expectedError, err.Error())
				assert.Equal(t, "", output)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, test.expectedOutput, output)
			}
		})
	}
}

func TestRunFuncWithRetry(t *testing.T) {
	tests := []struct {
		name          string
		failures      int
		retries       int
		expectedError string
	}{
		{
			name:     "success from first try",
			failures: 0,
			retries:  3,
		},
		{
			name:     "success after retries",
			failures: 2,
			retries:  3,
		},
		{
			name:          "retries exceeded",
			failures:      5,
			retries:       3,
			expectedError: "Retries (3/3) exceeded: attempt failed",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			attempts := 0
			output, err := RunFuncWithRetry(test.retries, time.Millisecond, func() (interface{}, error) {
				attempts++
				if attempts <= test.failures {
					return nil, errors.New("attempt failed")
				}
				return "done", nil
			})
			if test.expectedError != "" {
				assert.NotNil(t, err)
				assert.Equal(t, test.expectedError, err.Error())
			} else {
				assert.Nil(t, err)
				assert.Equal(t, "done", output)
				assert.Equal(t, test.failures+1, attempts)
			}
		})
	}
}
