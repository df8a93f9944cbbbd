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

// Package mcg wraps the NooBaa-backed Multicloud Object Gateway: store
// and bucket class management, object bucket claims and S3-level access
// to the gateway.
package mcg

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	claimclient "github.com/kube-object-storage/lib-bucket-provisioner/pkg/client/clientset/versioned"
	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	routev1 "github.com/openshift/api/route/v1"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
)

// MCG gives tests a handle on the multicloud object gateway of a
// deployed storage cluster.
type MCG struct {
	Context     context.Context
	Log         zerolog.Logger
	Config      ocsconfig.RunConfig
	KubeClient  kubernetes.Interface
	Client      client.Client
	ClaimClient claimclient.Interface
	RestConfig  *rest.Config

	s3Client *s3.S3
}

// S3Credentials is an access/secret key pair for any S3 endpoint the
// framework talks to.
type S3Credentials struct {
	AccessKey string
	SecretKey string
}

func NewMCG(ctx context.Context, log zerolog.Logger, config ocsconfig.RunConfig,
	kubeClient kubernetes.Interface, crClient client.Client, claimClient claimclient.Interface,
	restConfig *rest.Config) *MCG {
	return &MCG{
		Context:     ctx,
		Log:         log,
		Config:      config,
		KubeClient:  kubeClient,
		Client:      crClient,
		ClaimClient: claimClient,
		RestConfig:  restConfig,
	}
}

func (m *MCG) sampler(interval, timeout time.Duration) *ocscommon.Sampler {
	return ocscommon.NewSampler(m.Log, interval, m.Config.Timeout(timeout))
}

// GetNooBaa returns the default NooBaa system resource.
func (m *MCG) GetNooBaa() (*nbv1.NooBaa, error) {
	noobaa := &nbv1.NooBaa{}
	err := m.Client.Get(m.Context, client.ObjectKey{
		Name: ocscommon.DefaultNooBaaName, Namespace: m.Config.StorageNamespace}, noobaa)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get NooBaa resource")
	}
	return noobaa, nil
}

// WaitForNooBaaReady blocks until the NooBaa system phase is Ready.
func (m *MCG) WaitForNooBaaReady() error {
	sampler := m.sampler(15*time.Second, 15*time.Minute)
	return sampler.WaitForCondition(m.Context, "NooBaa system readiness", func() (bool, error) {
		noobaa, err := m.GetNooBaa()
		if err != nil {
			m.Log.Error().Err(err).Msg("failed to get NooBaa")
			return false, nil
		}
		if noobaa.Status.Phase != nbv1.SystemPhaseReady {
			m.Log.Info().Msgf("NooBaa phase is '%s'", noobaa.Status.Phase)
			return false, nil
		}
		return true, nil
	})
}

// GetAdminCredentials reads the noobaa admin S3 keys from the
// operator-managed secret.
func (m *MCG) GetAdminCredentials() (S3Credentials, error) {
	secret, err := m.KubeClient.CoreV1().Secrets(m.Config.StorageNamespace).Get(
		m.Context, ocscommon.NooBaaAdminSecretName, metav1.GetOptions{})
	if err != nil {
		return S3Credentials{}, errors.Wrapf(err, "failed to get secret '%s'", ocscommon.NooBaaAdminSecretName)
	}
	creds := S3Credentials{
		AccessKey: string(secret.Data["AWS_ACCESS_KEY_ID"]),
		SecretKey: string(secret.Data["AWS_SECRET_ACCESS_KEY"]),
	}
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return S3Credentials{}, errors.Errorf("secret '%s' has no S3 keys", ocscommon.NooBaaAdminSecretName)
	}
	return creds, nil
}

// GetS3Endpoint resolves the external https endpoint of the gateway
// from its s3 route.
func (m *MCG) GetS3Endpoint() (string, error) {
	route := &routev1.Route{}
	err := m.Client.Get(m.Context, client.ObjectKey{
		Name: ocscommon.NooBaaS3RouteName, Namespace: m.Config.StorageNamespace}, route)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get route '%s'", ocscommon.NooBaaS3RouteName)
	}
	if route.Spec.Host == "" {
		return "", errors.Errorf("route '%s' has no host assigned", ocscommon.NooBaaS3RouteName)
	}
	return fmt.Sprintf("https://%s", route.Spec.Host), nil
}

// S3Client returns a cached S3 API client pointed at the gateway route
// with the admin credentials.
func (m *MCG) S3Client() (*s3.S3, error) {
	if m.s3Client != nil {
		return m.s3Client, nil
	}
	creds, err := m.GetAdminCredentials()
	if err != nil {
		return nil, err
	}
	endpoint, err := m.GetS3Endpoint()
	if err != nil {
		return nil, err
	}
	s3Client, err := NewS3Client(endpoint, creds)
	if err != nil {
		return nil, err
	}
	m.s3Client = s3Client
	return m.s3Client, nil
}

// NewS3Client builds an S3 API client for the given endpoint. The route
// terminates TLS with the cluster-internal CA, so verification is
// skipped.
func NewS3Client(endpoint string, creds S3Credentials) (*s3.S3, error) {
	awsSession, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(creds.AccessKey, creds.SecretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"),
		S3ForcePathStyle: aws.Bool(true),
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create S3 session")
	}
	return s3.New(awsSession), nil
}
