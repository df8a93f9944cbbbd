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
	"time"

	obv1 "github.com/kube-object-storage/lib-bucket-provisioner/pkg/apis/objectbucket.io/v1alpha1"
	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

// additionalConfig key binding a claim to a non-default bucket class
const bucketClassConfigKey = "bucketclass"

// CreateOBC creates an ObjectBucketClaim against the given storage
// class. An empty bucketClass keeps the provisioner default.
func (m *MCG) CreateOBC(name, namespace, storageClass, bucketClass string) (*obv1.ObjectBucketClaim, error) {
	obc := &obv1.ObjectBucketClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: obv1.ObjectBucketClaimSpec{
			GenerateBucketName: name,
			StorageClassName:   storageClass,
		},
	}
	if bucketClass != "" {
		obc.Spec.AdditionalConfig = map[string]string{bucketClassConfigKey: bucketClass}
	}
	m.Log.Info().Msgf("creating ObjectBucketClaim '%s/%s'", namespace, name)
	created, err := m.ClaimClient.ObjectbucketV1alpha1().ObjectBucketClaims(namespace).Create(
		m.Context, obc, metav1.CreateOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create ObjectBucketClaim '%s/%s'", namespace, name)
	}
	return created, nil
}

// WaitForOBCBound waits for the claim to reach the Bound phase and
// returns the provisioned bucket name.
func (m *MCG) WaitForOBCBound(name, namespace string) (string, error) {
	sampler := m.sampler(10*time.Second, 10*time.Minute)
	return sampler.WaitForOutput(m.Context, "ObjectBucketClaim '"+name+"' binding", func() (string, error) {
		obc, err := m.ClaimClient.ObjectbucketV1alpha1().ObjectBucketClaims(namespace).Get(
			m.Context, name, metav1.GetOptions{})
		if err != nil {
			return "", errors.Wrapf(err, "failed to get ObjectBucketClaim '%s/%s'", namespace, name)
		}
		if obc.Status.Phase != obv1.ObjectBucketClaimStatusPhaseBound {
			return "", errors.Errorf("ObjectBucketClaim '%s/%s' phase is '%s'", namespace, name, obc.Status.Phase)
		}
		if obc.Spec.BucketName == "" {
			return "", errors.Errorf("ObjectBucketClaim '%s/%s' is bound with no bucket name", namespace, name)
		}
		return obc.Spec.BucketName, nil
	})
}

// GetOBCCredentials reads the S3 keys from the secret the provisioner
// creates next to a bound claim.
func (m *MCG) GetOBCCredentials(name, namespace string) (S3Credentials, error) {
	secret, err := m.KubeClient.CoreV1().Secrets(namespace).Get(m.Context, name, metav1.GetOptions{})
	if err != nil {
		return S3Credentials{}, errors.Wrapf(err, "failed to get secret of ObjectBucketClaim '%s/%s'", namespace, name)
	}
	creds := S3Credentials{
		AccessKey: string(secret.Data["AWS_ACCESS_KEY_ID"]),
		SecretKey: string(secret.Data["AWS_SECRET_ACCESS_KEY"]),
	}
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return S3Credentials{}, errors.Errorf("secret '%s/%s' has no S3 keys", namespace, name)
	}
	return creds, nil
}

// DeleteOBC deletes the claim and waits for the claim object to be
// gone. The provisioned bucket cleanup is verified separately through
// Bucket.VerifyDeletion.
func (m *MCG) DeleteOBC(name, namespace string) error {
	err := m.ClaimClient.ObjectbucketV1alpha1().ObjectBucketClaims(namespace).Delete(
		m.Context, name, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to delete ObjectBucketClaim '%s/%s'", namespace, name)
	}
	sampler := m.sampler(10*time.Second, 5*time.Minute)
	return sampler.WaitForCondition(m.Context, "ObjectBucketClaim '"+name+"' removal", func() (bool, error) {
		_, err := m.ClaimClient.ObjectbucketV1alpha1().ObjectBucketClaims(namespace).Get(
			m.Context, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		return false, nil
	})
}

// RandomOBCName generates a claim name safe to use as a bucket name
// prefix.
func RandomOBCName() string {
	return ocscommon.RandomName("obc")
}
