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

package test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	"github.com/red-hat-storage/ocs-ci/pkg/mcg"
	"github.com/red-hat-storage/ocs-ci/pkg/workload"
	f "github.com/red-hat-storage/ocs-ci/test/e2e/framework"
)

func TestBucketLifecycle(t *testing.T) {
	t.Log("e2e test: create, fill and delete gateway buckets over every provisioning strategy")
	defer f.SetupTeardown(t)()

	gateway := f.TF.ManagedCluster.MCG()
	f.Step(t, "Wait for NooBaa system readiness")
	err := gateway.WaitForNooBaaReady()
	if err != nil {
		t.Fatal(err)
	}

	f.Step(t, "Create default bucket class backed OBC bucket, S3 bucket and CLI bucket")
	buckets := []mcg.Bucket{
		gateway.NewS3Bucket(ocscommon.RandomName("e2e-s3-bucket")),
		gateway.NewCLIBucket(ocscommon.RandomName("e2e-cli-bucket")),
		gateway.NewOCBucket(ocscommon.RandomName("e2e-obc"), f.TestNamespace(),
			"noobaa-default-bucket-class"),
	}
	for _, bucket := range buckets {
		err = bucket.Create()
		if err != nil {
			t.Fatal(err)
		}
	}

	f.Step(t, "Upload objects into every bucket and verify them back")
	s3Client, err := gateway.S3Client()
	if err != nil {
		t.Fatal(err)
	}
	for _, bucket := range buckets {
		storm := &workload.ObjectStorm{
			Log:      f.TF.Log,
			S3Client: s3Client,
			Bucket:   bucket.Name(),
			Prefix:   "lifecycle/",
			Count:    50,
		}
		keys, err := storm.Run(f.TF.ManagedCluster.Context)
		if err != nil {
			t.Fatalf("failed to upload objects into bucket %s: %v", bucket.Name(), err)
		}
		assert.Len(t, keys, 50)
		err = storm.VerifyObjects(f.TF.ManagedCluster.Context, keys)
		if err != nil {
			t.Fatalf("failed to verify objects in bucket %s: %v", bucket.Name(), err)
		}
	}

	f.Step(t, "Delete all buckets and verify they are gone")
	for _, bucket := range buckets {
		err = bucket.Delete()
		if err != nil {
			t.Fatal(err)
		}
		err = bucket.VerifyDeletion()
		if err != nil {
			t.Fatal(err)
		}
	}
	t.Logf("Test %s complete successfully", t.Name())
}

func TestBackingStoreAndBucketClass(t *testing.T) {
	t.Log("e2e test: pv-pool backing store with a placement bucket class on top")
	defer f.SetupTeardown(t)()

	gateway := f.TF.ManagedCluster.MCG()
	f.Step(t, "Wait for NooBaa system readiness")
	err := gateway.WaitForNooBaaReady()
	if err != nil {
		t.Fatal(err)
	}

	backingStoreName := ocscommon.RandomName("e2e-pv-pool")
	f.Step(t, "Create pv-pool backing store %s", backingStoreName)
	_, err = gateway.CreatePVPoolBackingStore(backingStoreName, 1, "17Gi")
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.WaitForBackingStoreReady(backingStoreName)
	if err != nil {
		t.Fatal(err)
	}

	bucketClassName := ocscommon.RandomName("e2e-placement-class")
	f.Step(t, "Create placement bucket class %s over the backing store", bucketClassName)
	_, err = gateway.CreatePlacementBucketClass(bucketClassName, backingStoreName)
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.WaitForBucketClassReady(bucketClassName)
	if err != nil {
		t.Fatal(err)
	}

	f.Step(t, "Claim a bucket on the new class and run IO against it")
	bucket := gateway.NewOCBucket(ocscommon.RandomName("e2e-placement-obc"),
		f.TestNamespace(), bucketClassName)
	err = bucket.Create()
	if err != nil {
		t.Fatal(err)
	}
	s3Client, err := gateway.S3Client()
	if err != nil {
		t.Fatal(err)
	}
	storm := &workload.ObjectStorm{
		Log:      f.TF.Log,
		S3Client: s3Client,
		Bucket:   bucket.Name(),
		Prefix:   "placement/",
		Count:    20,
	}
	keys, err := storm.Run(f.TF.ManagedCluster.Context)
	if err != nil {
		t.Fatal(err)
	}
	err = storm.VerifyObjects(f.TF.ManagedCluster.Context, keys)
	if err != nil {
		t.Fatal(err)
	}

	f.Step(t, "Clean up bucket, bucket class and backing store")
	err = bucket.Delete()
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.DeleteBucketClass(bucketClassName)
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.DeleteBackingStore(backingStoreName)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("Test %s complete successfully", t.Name())
}
