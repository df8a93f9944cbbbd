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

package mcg

import (
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	"github.com/pkg/errors"
)

// LoggingManager manages S3 server access logging of gateway buckets:
// the cluster-wide guaranteed logging toggle and the per-bucket
// source/target wiring.
type LoggingManager struct {
	mcg *MCG
}

func (m *MCG) NewLoggingManager() *LoggingManager {
	return &LoggingManager{mcg: m}
}

// EnableGuaranteedLogging switches NooBaa to guaranteed bucket logging
// backed by a dedicated logging PVC.
func (l *LoggingManager) EnableGuaranteedLogging() error {
	noobaa, err := l.mcg.GetNooBaa()
	if err != nil {
		return err
	}
	noobaa.Spec.BucketLogging = nbv1.BucketLoggingSpec{
		LoggingType: nbv1.BucketLoggingTypeGuaranteed,
	}
	l.mcg.Log.Info().Msg("enabling guaranteed bucket logging")
	err = l.mcg.Client.Update(l.mcg.Context, noobaa)
	if err != nil {
		return errors.Wrap(err, "failed to enable guaranteed bucket logging")
	}
	return l.mcg.WaitForNooBaaReady()
}

func (l *LoggingManager) DisableLogging() error {
	noobaa, err := l.mcg.GetNooBaa()
	if err != nil {
		return err
	}
	noobaa.Spec.BucketLogging = nbv1.BucketLoggingSpec{}
	l.mcg.Log.Info().Msg("disabling bucket logging")
	err = l.mcg.Client.Update(l.mcg.Context, noobaa)
	if err != nil {
		return errors.Wrap(err, "failed to disable bucket logging")
	}
	return l.mcg.WaitForNooBaaReady()
}

// SetBucketLogging points access logs of sourceBucket at logsBucket
// under the given prefix.
func (l *LoggingManager) SetBucketLogging(sourceBucket, logsBucket, prefix string) error {
	s3Client, err := l.mcg.S3Client()
	if err != nil {
		return err
	}
	l.mcg.Log.Info().Msgf("directing access logs of bucket '%s' to '%s/%s'", sourceBucket, logsBucket, prefix)
	_, err = s3Client.PutBucketLoggingWithContext(l.mcg.Context, &s3.PutBucketLoggingInput{
		Bucket: aws.String(sourceBucket),
		BucketLoggingStatus: &s3.BucketLoggingStatus{
			LoggingEnabled: &s3.LoggingEnabled{
				TargetBucket: aws.String(logsBucket),
				TargetPrefix: aws.String(prefix),
			},
		},
	})
	if err != nil {
		return errors.Wrapf(err, "failed to set logging of bucket '%s'", sourceBucket)
	}
	return nil
}

// GetBucketLogging returns the target bucket and prefix configured on
// the bucket, empty strings when logging is off.
func (l *LoggingManager) GetBucketLogging(bucketName string) (string, string, error) {
	s3Client, err := l.mcg.S3Client()
	if err != nil {
		return "", "", err
	}
	logging, err := s3Client.GetBucketLoggingWithContext(l.mcg.Context, &s3.GetBucketLoggingInput{
		Bucket: aws.String(bucketName),
	})
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to get logging of bucket '%s'", bucketName)
	}
	if logging.LoggingEnabled == nil {
		return "", "", nil
	}
	return aws.StringValue(logging.LoggingEnabled.TargetBucket),
		aws.StringValue(logging.LoggingEnabled.TargetPrefix), nil
}

// WaitForAccessLogs waits until log objects for the source bucket show
// up in the logs bucket. Log delivery is batched, so this allows a long
// timeout.
func (l *LoggingManager) WaitForAccessLogs(logsBucket, prefix string) error {
	s3Client, err := l.mcg.S3Client()
	if err != nil {
		return err
	}
	sampler := l.mcg.sampler(30*time.Second, 20*time.Minute)
	return sampler.WaitForCondition(l.mcg.Context, "access logs in bucket '"+logsBucket+"'", func() (bool, error) {
		objects, err := s3Client.ListObjectsV2WithContext(l.mcg.Context, &s3.ListObjectsV2Input{
			Bucket: aws.String(logsBucket),
			Prefix: aws.String(prefix),
		})
		if err != nil {
			l.mcg.Log.Error().Err(err).Msgf("failed to list logs bucket '%s'", logsBucket)
			return false, nil
		}
		for _, object := range objects.Contents {
			if strings.HasPrefix(aws.StringValue(object.Key), prefix) {
				return true, nil
			}
		}
		l.mcg.Log.Info().Msgf("no access logs under '%s/%s' yet", logsBucket, prefix)
		return false, nil
	})
}
