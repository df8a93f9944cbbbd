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
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	f "github.com/red-hat-storage/ocs-ci/test/e2e/framework"
)

// The ceph object gateway serves as the external S3 target the
// namespace store reads from and writes to.
func TestNamespaceBucket(t *testing.T) {
	t.Log("e2e test: namespace store over RGW with a single namespace bucket class")
	defer f.SetupTeardown(t)()

	gateway := f.TF.ManagedCluster.MCG()
	rgwHandle := f.TF.ManagedCluster.RGW()

	f.Step(t, "Wait for NooBaa system and ceph object store readiness")
	err := gateway.WaitForNooBaaReady()
	if err != nil {
		t.Fatal(err)
	}
	err = rgwHandle.WaitForObjectStoreReady()
	if err != nil {
		t.Fatal(err)
	}

	userName := ocscommon.RandomName("e2e-nss-user")
	f.Step(t, "Create object store user %s and a target bucket on RGW", userName)
	_, err = rgwHandle.CreateObjectStoreUser(userName, "namespace store target user")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := rgwHandle.DeleteObjectStoreUser(userName)
		if err != nil {
			t.Logf("failed to clean up object store user %s: %v", userName, err)
		}
	}()
	access, err := rgwHandle.S3ClientForUser(userName)
	if err != nil {
		t.Fatal(err)
	}
	targetBucket := ocscommon.RandomName("e2e-nss-target")
	_, err = access.Client.CreateBucketWithContext(f.TF.ManagedCluster.Context, &s3.CreateBucketInput{
		Bucket: aws.String(targetBucket),
	})
	if err != nil {
		t.Fatal(err)
	}

	secretName := ocscommon.RandomName("e2e-nss-secret")
	f.Step(t, "Store the RGW user credentials in secret %s", secretName)
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      secretName,
			Namespace: ocscommon.StorageNamespace,
		},
		StringData: map[string]string{
			"AWS_ACCESS_KEY_ID":     access.Credentials.AccessKey,
			"AWS_SECRET_ACCESS_KEY": access.Credentials.SecretKey,
		},
	}
	_, err = f.TF.ManagedCluster.KubeClient.CoreV1().Secrets(ocscommon.StorageNamespace).Create(
		f.TF.ManagedCluster.Context, secret, metav1.CreateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	namespaceStoreName := ocscommon.RandomName("e2e-nss")
	f.Step(t, "Create namespace store %s pointing at the RGW bucket", namespaceStoreName)
	_, err = gateway.CreateS3CompatibleNamespaceStore(namespaceStoreName, targetBucket, access.Endpoint, secretName)
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.WaitForNamespaceStoreReady(namespaceStoreName)
	if err != nil {
		t.Fatal(err)
	}

	bucketClassName := ocscommon.RandomName("e2e-nss-class")
	f.Step(t, "Create single namespace bucket class %s", bucketClassName)
	_, err = gateway.CreateSingleNamespaceBucketClass(bucketClassName, namespaceStoreName)
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.WaitForBucketClassReady(bucketClassName)
	if err != nil {
		t.Fatal(err)
	}

	f.Step(t, "Claim a namespace bucket and write an object through the gateway")
	bucket := gateway.NewOCBucket(ocscommon.RandomName("e2e-nss-obc"), f.TestNamespace(), bucketClassName)
	err = bucket.Create()
	if err != nil {
		t.Fatal(err)
	}
	gatewayS3, err := gateway.S3Client()
	if err != nil {
		t.Fatal(err)
	}
	objectKey := "namespace/passthrough-object"
	objectBody := "written through the namespace bucket"
	_, err = gatewayS3.PutObjectWithContext(f.TF.ManagedCluster.Context, &s3.PutObjectInput{
		Bucket: aws.String(bucket.Name()),
		Key:    aws.String(objectKey),
		Body:   strings.NewReader(objectBody),
	})
	if err != nil {
		t.Fatal(err)
	}

	f.Step(t, "Verify the object landed in the RGW target bucket")
	head, err := access.Client.HeadObjectWithContext(f.TF.ManagedCluster.Context, &s3.HeadObjectInput{
		Bucket: aws.String(targetBucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, int64(len(objectBody)), aws.Int64Value(head.ContentLength))

	f.Step(t, "Clean up the claim, bucket class and namespace store")
	err = bucket.Delete()
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.DeleteBucketClass(bucketClassName)
	if err != nil {
		t.Fatal(err)
	}
	err = gateway.DeleteNamespaceStore(namespaceStoreName)
	if err != nil {
		t.Fatal(err)
	}
	err = f.TF.ManagedCluster.KubeClient.CoreV1().Secrets(ocscommon.StorageNamespace).Delete(
		f.TF.ManagedCluster.Context, secretName, metav1.DeleteOptions{})
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("Test %s complete successfully", t.Name())
}
