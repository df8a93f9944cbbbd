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
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

// Bucket is a gateway bucket regardless of how it was provisioned.
// Each strategy creates, deletes and verifies deletion through the same
// interface so tests can run against all of them.
type Bucket interface {
	Name() string
	Create() error
	Delete() error
	// VerifyDeletion confirms the bucket is gone from the gateway,
	// polling until the timeout since cleanup is asynchronous.
	VerifyDeletion() error
}

// S3Bucket is created straight through the S3 API of the gateway.
type S3Bucket struct {
	mcg  *MCG
	name string
}

func (m *MCG) NewS3Bucket(name string) *S3Bucket {
	return &S3Bucket{mcg: m, name: name}
}

func (b *S3Bucket) Name() string { return b.name }

func (b *S3Bucket) Create() error {
	s3Client, err := b.mcg.S3Client()
	if err != nil {
		return err
	}
	b.mcg.Log.Info().Msgf("creating bucket '%s' over S3", b.name)
	_, err = s3Client.CreateBucketWithContext(b.mcg.Context, &s3.CreateBucketInput{
		Bucket: aws.String(b.name),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to create bucket '%s'", b.name)
	}
	return nil
}

func (b *S3Bucket) Delete() error {
	s3Client, err := b.mcg.S3Client()
	if err != nil {
		return err
	}
	err = emptyBucket(b.mcg, b.name)
	if err != nil {
		return err
	}
	b.mcg.Log.Info().Msgf("deleting bucket '%s' over S3", b.name)
	_, err = s3Client.DeleteBucketWithContext(b.mcg.Context, &s3.DeleteBucketInput{
		Bucket: aws.String(b.name),
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete bucket '%s'", b.name)
	}
	return nil
}

func (b *S3Bucket) VerifyDeletion() error {
	return verifyBucketDeletion(b.mcg, b.name)
}

// CLIBucket is created with the noobaa CLI inside the operator pod.
type CLIBucket struct {
	mcg  *MCG
	name string
}

func (m *MCG) NewCLIBucket(name string) *CLIBucket {
	return &CLIBucket{mcg: m, name: name}
}

func (b *CLIBucket) Name() string { return b.name }

func (b *CLIBucket) Create() error {
	b.mcg.Log.Info().Msgf("creating bucket '%s' with noobaa CLI", b.name)
	command := fmt.Sprintf("noobaa bucket create %s -n %s", b.name, b.mcg.Config.StorageNamespace)
	_, err := ocscommon.RunNooBaaCLI(b.mcg.Context, b.mcg.KubeClient, b.mcg.RestConfig,
		b.mcg.Config.StorageNamespace, command)
	if err != nil {
		return errors.Wrapf(err, "failed to create bucket '%s'", b.name)
	}
	return nil
}

func (b *CLIBucket) Delete() error {
	err := emptyBucket(b.mcg, b.name)
	if err != nil {
		return err
	}
	b.mcg.Log.Info().Msgf("deleting bucket '%s' with noobaa CLI", b.name)
	command := fmt.Sprintf("noobaa bucket delete %s -n %s", b.name, b.mcg.Config.StorageNamespace)
	_, err = ocscommon.RunNooBaaCLI(b.mcg.Context, b.mcg.KubeClient, b.mcg.RestConfig,
		b.mcg.Config.StorageNamespace, command)
	if err != nil {
		return errors.Wrapf(err, "failed to delete bucket '%s'", b.name)
	}
	return nil
}

func (b *CLIBucket) VerifyDeletion() error {
	return verifyBucketDeletion(b.mcg, b.name)
}

// OCBucket is provisioned through an ObjectBucketClaim, the bucket name
// is generated by the provisioner on binding.
type OCBucket struct {
	mcg          *MCG
	claimName    string
	namespace    string
	storageClass string
	bucketClass  string
	bucketName   string
}

func (m *MCG) NewOCBucket(claimName, namespace, bucketClass string) *OCBucket {
	return &OCBucket{
		mcg:          m,
		claimName:    claimName,
		namespace:    namespace,
		storageClass: ocscommon.StorageClassMCG,
		bucketClass:  bucketClass,
	}
}

// Name returns the provisioned bucket name, empty until Create binds
// the claim.
func (b *OCBucket) Name() string { return b.bucketName }

func (b *OCBucket) Create() error {
	_, err := b.mcg.CreateOBC(b.claimName, b.namespace, b.storageClass, b.bucketClass)
	if err != nil {
		return err
	}
	bucketName, err := b.mcg.WaitForOBCBound(b.claimName, b.namespace)
	if err != nil {
		return err
	}
	b.bucketName = bucketName
	return nil
}

func (b *OCBucket) Delete() error {
	return b.mcg.DeleteOBC(b.claimName, b.namespace)
}

func (b *OCBucket) VerifyDeletion() error {
	if b.bucketName == "" {
		return nil
	}
	return verifyBucketDeletion(b.mcg, b.bucketName)
}

// emptyBucket removes all objects so the bucket delete does not fail
// with BucketNotEmpty.
func emptyBucket(m *MCG, bucketName string) error {
	s3Client, err := m.S3Client()
	if err != nil {
		return err
	}
	for {
		objects, err := s3Client.ListObjectsV2WithContext(m.Context, &s3.ListObjectsV2Input{
			Bucket: aws.String(bucketName),
		})
		if err != nil {
			if isNoSuchBucket(err) {
				return nil
			}
			return errors.Wrapf(err, "failed to list objects of bucket '%s'", bucketName)
		}
		if len(objects.Contents) == 0 {
			return nil
		}
		for _, object := range objects.Contents {
			_, err = s3Client.DeleteObjectWithContext(m.Context, &s3.DeleteObjectInput{
				Bucket: aws.String(bucketName),
				Key:    object.Key,
			})
			if err != nil {
				return errors.Wrapf(err, "failed to delete object '%s' from bucket '%s'",
					aws.StringValue(object.Key), bucketName)
			}
		}
		if !aws.BoolValue(objects.IsTruncated) {
			return nil
		}
	}
}

func verifyBucketDeletion(m *MCG, bucketName string) error {
	s3Client, err := m.S3Client()
	if err != nil {
		return err
	}
	sampler := m.sampler(10*time.Second, 5*time.Minute)
	return sampler.WaitForCondition(m.Context, "bucket '"+bucketName+"' deletion", func() (bool, error) {
		_, err := s3Client.HeadBucketWithContext(m.Context, &s3.HeadBucketInput{
			Bucket: aws.String(bucketName),
		})
		if err != nil {
			if isNoSuchBucket(err) {
				return true, nil
			}
			m.Log.Error().Err(err).Msgf("failed to check bucket '%s'", bucketName)
		}
		return false, nil
	})
}

func isNoSuchBucket(err error) bool {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchBucket, "NotFound":
			return true
		}
	}
	return false
}
