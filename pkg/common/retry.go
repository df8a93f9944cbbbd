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
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Sampler is a bounded poll loop: run condition every Interval until it
// reports done or Timeout expires. Transient failures are expected to be
// swallowed by the condition (return false, nil), terminal failures abort
// the loop immediately (return false, err).
type Sampler struct {
	Interval time.Duration
	Timeout  time.Duration
	Log      zerolog.Logger
}

func NewSampler(log zerolog.Logger, interval, timeout time.Duration) *Sampler {
	return &Sampler{
		Interval: interval,
		Timeout:  timeout,
		Log:      log,
	}
}

func (s *Sampler) WaitForCondition(ctx context.Context, desc string, condition func() (bool, error)) error {
	s.Log.Info().Msgf("waiting up to %v for %s", s.Timeout, desc)
	err := wait.PollUntilContextTimeout(ctx, s.Interval, s.Timeout, true, func(_ context.Context) (bool, error) {
		return condition()
	})
	if err != nil {
		return errors.Wrapf(err, "failed to wait for %s", desc)
	}
	return nil
}

// WaitForOutput polls sample until it stops returning an error and hands
// back the last sampled value.
func (s *Sampler) WaitForOutput(ctx context.Context, desc string, sample func() (string, error)) (string, error) {
	var output string
	var lastErr error
	err := wait.PollUntilContextTimeout(ctx, s.Interval, s.Timeout, true, func(_ context.Context) (bool, error) {
		output, lastErr = sample()
		if lastErr != nil {
			s.Log.Trace().Err(lastErr).Msgf("sampling %s, retrying", desc)
			return false, nil
		}
		return true, nil
	})
	if err != nil {
		if lastErr != nil {
			return "", errors.Wrapf(lastErr, "failed to wait for %s", desc)
		}
		return "", errors.Wrapf(err, "failed to wait for %s", desc)
	}
	return output, nil
}

func RunFuncWithRetry(times int, interval time.Duration, funcToRun func() (interface{}, error)) (interface{}, error) {
	tries := 0
	var err error
	var output interface{}
	for tries < times {
		output, err = funcToRun()
		if err == nil {
			return output, nil
		}
		tries++
		if tries < times {
			time.Sleep(interval)
		}
	}
	return output, errors.Wrapf(err, "Retries (%d/%d) exceeded", tries, times)
}
