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

// Package rgw wraps the ceph object gateway of the storage cluster:
// object store and user management plus S3-level access.
package rgw

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
	rookclient "github.com/rook/rook/pkg/client/clientset/versioned"
	"github.com/rs/zerolog"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
	"github.com/red-hat-storage/ocs-ci/pkg/mcg"
)

// S3Access bundles an S3 client with the endpoint and credentials it
// was built from, so tests can reuse them for store secrets.
type S3Access struct {
	Endpoint    string
	Credentials mcg.S3Credentials
	Client      *s3.S3
}

// RGW gives tests a handle on the ceph object gateway.
type RGW struct {
	Context    context.Context
	Log        zerolog.Logger
	Config     ocsconfig.RunConfig
	KubeClient kubernetes.Interface
	RookClient rookclient.Interface
	RestConfig *rest.Config
}

func NewRGW(ctx context.Context, log zerolog.Logger, config ocsconfig.RunConfig,
	kubeClient kubernetes.Interface, rookClient rookclient.Interface, restConfig *rest.Config) *RGW {
	return &RGW{
		Context:    ctx,
		Log:        log,
		Config:     config,
		KubeClient: kubeClient,
		RookClient: rookClient,
		RestConfig: restConfig,
	}
}

func (r *RGW) sampler(interval, timeout time.Duration) *ocscommon.Sampler {
	return ocscommon.NewSampler(r.Log, interval, r.Config.Timeout(timeout))
}

// GetObjectStore returns the default CephObjectStore of the cluster.
func (r *RGW) GetObjectStore() (*cephv1.CephObjectStore, error) {
	objectStore, err := r.RookClient.CephV1().CephObjectStores(r.Config.StorageNamespace).Get(
		r.Context, ocscommon.DefaultObjectStoreName, metav1.GetOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get CephObjectStore '%s'", ocscommon.DefaultObjectStoreName)
	}
	return objectStore, nil
}

// WaitForObjectStoreReady waits until the object store is connected and
// serving.
func (r *RGW) WaitForObjectStoreReady() error {
	sampler := r.sampler(15*time.Second, 15*time.Minute)
	return sampler.WaitForCondition(r.Context, "CephObjectStore readiness", func() (bool, error) {
		objectStore, err := r.GetObjectStore()
		if err != nil {
			r.Log.Error().Err(err).Msg("failed to get CephObjectStore")
			return false, nil
		}
		if objectStore.Status == nil {
			return false, nil
		}
		if objectStore.Status.Phase != cephv1.ConditionConnected && objectStore.Status.Phase != cephv1.ConditionReady {
			r.Log.Info().Msgf("CephObjectStore phase is '%s'", objectStore.Status.Phase)
			return false, nil
		}
		return true, nil
	})
}

// CreateObjectStoreUser creates a radosgw user through rook and waits
// for its credentials secret.
func (r *RGW) CreateObjectStoreUser(name, displayName string) (*cephv1.CephObjectStoreUser, error) {
	user := &cephv1.CephObjectStoreUser{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: r.Config.StorageNamespace,
		},
		Spec: cephv1.ObjectStoreUserSpec{
			Store:       ocscommon.DefaultObjectStoreName,
			DisplayName: displayName,
		},
	}
	r.Log.Info().Msgf("creating CephObjectStoreUser '%s'", name)
	created, err := r.RookClient.CephV1().CephObjectStoreUsers(r.Config.StorageNamespace).Create(
		r.Context, user, metav1.CreateOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create CephObjectStoreUser '%s'", name)
	}
	return created, nil
}

func (r *RGW) DeleteObjectStoreUser(name string) error {
	err := r.RookClient.CephV1().CephObjectStoreUsers(r.Config.StorageNamespace).Delete(
		r.Context, name, metav1.DeleteOptions{})
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.Wrapf(err, "failed to delete CephObjectStoreUser '%s'", name)
	}
	return nil
}

// userSecretName is the rook naming convention for object store user
// credential secrets.
func userSecretName(userName string) string {
	return fmt.Sprintf("rook-ceph-object-user-%s-%s", ocscommon.DefaultObjectStoreName, userName)
}

func s3CredentialsFromSecret(secret *corev1.Secret) (mcg.S3Credentials, bool) {
	creds := mcg.S3Credentials{
		AccessKey: string(secret.Data["AccessKey"]),
		SecretKey: string(secret.Data["SecretKey"]),
	}
	return creds, creds.AccessKey != "" && creds.SecretKey != ""
}

// GetUserCredentials waits for the user secret rook creates and returns
// the S3 key pair from it.
func (r *RGW) GetUserCredentials(userName string) (mcg.S3Credentials, error) {
	var creds mcg.S3Credentials
	secretName := userSecretName(userName)
	sampler := r.sampler(10*time.Second, 5*time.Minute)
	err := sampler.WaitForCondition(r.Context, "credentials of user '"+userName+"'", func() (bool, error) {
		secret, err := r.KubeClient.CoreV1().Secrets(r.Config.StorageNamespace).Get(
			r.Context, secretName, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}
			r.Log.Error().Err(err).Msgf("failed to get secret '%s'", secretName)
			return false, nil
		}
		parsed, ok := s3CredentialsFromSecret(secret)
		if !ok {
			// rook creates the secret before filling in the key pair
			r.Log.Info().Msgf("secret '%s' has no S3 keys yet", secretName)
			return false, nil
		}
		creds = parsed
		return true, nil
	})
	if err != nil {
		return mcg.S3Credentials{}, err
	}
	return creds, nil
}

// GetS3Endpoint returns the cluster-internal endpoint of the gateway
// service.
func (r *RGW) GetS3Endpoint() (string, error) {
	serviceName := fmt.Sprintf("rook-ceph-rgw-%s", ocscommon.DefaultObjectStoreName)
	service, err := r.KubeClient.CoreV1().Services(r.Config.StorageNamespace).Get(
		r.Context, serviceName, metav1.GetOptions{})
	if err != nil {
		return "", errors.Wrapf(err, "failed to get service '%s'", serviceName)
	}
	if len(service.Spec.Ports) == 0 {
		return "", errors.Errorf("service '%s' has no ports", serviceName)
	}
	return fmt.Sprintf("http://%s.%s.svc:%d",
		service.Name, service.Namespace, service.Spec.Ports[0].Port), nil
}

// S3ClientForUser builds an S3 API client talking to the gateway as the
// given object store user.
func (r *RGW) S3ClientForUser(userName string) (*S3Access, error) {
	creds, err := r.GetUserCredentials(userName)
	if err != nil {
		return nil, err
	}
	endpoint, err := r.GetS3Endpoint()
	if err != nil {
		return nil, err
	}
	s3Client, err := mcg.NewS3Client(endpoint, creds)
	if err != nil {
		return nil, err
	}
	return &S3Access{Endpoint: endpoint, Credentials: creds, Client: s3Client}, nil
}

// RunAdminCommand runs radosgw-admin in the toolbox pod and parses its
// JSON output into data when data is not nil.
func (r *RGW) RunAdminCommand(command string, data any) (string, error) {
	fullCommand := fmt.Sprintf("radosgw-admin %s --rgw-realm=%s", command, ocscommon.DefaultObjectStoreName)
	if data != nil {
		err := ocscommon.RunAndParseCephToolboxCLI(r.Context, r.KubeClient, r.RestConfig,
			r.Config.StorageNamespace, fullCommand, data)
		return "", err
	}
	return ocscommon.RunCephToolboxCLI(r.Context, r.KubeClient, r.RestConfig,
		r.Config.StorageNamespace, fullCommand)
}

// BucketStats is the subset of radosgw-admin bucket stats used by
// tests.
type BucketStats struct {
	Bucket string `json:"bucket"`
	Usage  struct {
		RGWMain struct {
			NumObjects int64 `json:"num_objects"`
			Size       int64 `json:"size"`
		} `json:"rgw.main"`
	} `json:"usage"`
}

// GetBucketStats fetches per-bucket usage from the gateway admin API.
func (r *RGW) GetBucketStats(bucketName string) (*BucketStats, error) {
	stats := &BucketStats{}
	_, err := r.RunAdminCommand(fmt.Sprintf("bucket stats --bucket=%s", bucketName), stats)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get stats of bucket '%s'", bucketName)
	}
	return stats, nil
}
