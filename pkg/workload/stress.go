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

// Package workload generates load against a storage cluster: object
// uploads fanned out over workers, PVC churn and background health
// watching while other tests disturb the cluster.
package workload

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	utilrand "k8s.io/apimachinery/pkg/util/rand"
)

// ObjectStorm uploads Count objects of ObjectSize bytes into the bucket
// over Workers concurrent uploaders.
type ObjectStorm struct {
	Log        zerolog.Logger
	S3Client   *s3.S3
	Bucket     string
	Prefix     string
	Count      int
	ObjectSize int
	Workers    int
}

// Run executes the storm and returns the keys of all uploaded objects.
// The first upload error cancels the remaining workers.
func (o *ObjectStorm) Run(ctx context.Context) ([]string, error) {
	if o.Workers <= 0 {
		o.Workers = 10
	}
	if o.ObjectSize <= 0 {
		o.ObjectSize = 1024
	}
	keys := make([]string, o.Count)
	for idx := range keys {
		keys[idx] = fmt.Sprintf("%s%s-%d", o.Prefix, utilrand.String(8), idx)
	}
	o.Log.Info().Msgf("uploading %d objects of %d bytes into bucket '%s' with %d workers",
		o.Count, o.ObjectSize, o.Bucket, o.Workers)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.Workers)
	for _, key := range keys {
		group.Go(func() error {
			payload := bytes.Repeat([]byte(key[:1]), o.ObjectSize)
			_, err := o.S3Client.PutObjectWithContext(groupCtx, &s3.PutObjectInput{
				Bucket: aws.String(o.Bucket),
				Key:    aws.String(key),
				Body:   bytes.NewReader(payload),
			})
			if err != nil {
				return errors.Wrapf(err, "failed to upload object '%s'", key)
			}
			return nil
		})
	}
	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// VerifyObjects downloads every key and checks the size matches what
// the storm uploaded.
func (o *ObjectStorm) VerifyObjects(ctx context.Context, keys []string) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.Workers)
	for _, key := range keys {
		group.Go(func() error {
			object, err := o.S3Client.GetObjectWithContext(groupCtx, &s3.GetObjectInput{
				Bucket: aws.String(o.Bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return errors.Wrapf(err, "failed to download object '%s'", key)
			}
			defer object.Body.Close()
			if aws.Int64Value(object.ContentLength) != int64(o.ObjectSize) {
				return errors.Errorf("object '%s' has size %d, expected %d",
					key, aws.Int64Value(object.ContentLength), o.ObjectSize)
			}
			return nil
		})
	}
	return group.Wait()
}

// BackgroundChecker runs a check function on an interval until the
// returned stop function is called. Failures are collected, not fatal,
// so disruption tests can assert on them afterwards.
type BackgroundChecker struct {
	Log      zerolog.Logger
	Interval time.Duration
	Check    func(context.Context) error

	failures []error
	done     chan struct{}
	cancel   context.CancelFunc
}

// Start launches the background loop. Call Stop to finish and collect
// failures.
func (b *BackgroundChecker) Start(ctx context.Context) {
	if b.Interval <= 0 {
		b.Interval = 30 * time.Second
	}
	loopCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	go func() {
		defer close(b.done)
		ticker := time.NewTicker(b.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				err := b.Check(loopCtx)
				if err != nil && loopCtx.Err() == nil {
					b.Log.Warn().Err(err).Msg("background check failed")
					b.failures = append(b.failures, err)
				}
			}
		}
	}()
}

// Stop terminates the loop and returns all failures observed while it
// ran.
func (b *BackgroundChecker) Stop() []error {
	if b.cancel == nil {
		return nil
	}
	b.cancel()
	<-b.done
	return b.failures
}
