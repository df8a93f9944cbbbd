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
	"context"
	"testing"

	claimclient "github.com/kube-object-storage/lib-bucket-provisioner/pkg/client/clientset/versioned"
	routev1 "github.com/openshift/api/route/v1"
	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
	faketestclients "github.com/red-hat-storage/ocs-ci/test/unit/clients"
)

func getTestMCG(kubeClient kubernetes.Interface, crClient client.Client, claimClient claimclient.Interface) *MCG {
	log := ocscommon.InitLogger()
	return &MCG{
		Context:     context.Background(),
		Log:         log,
		Config:      ocsconfig.ReadConfiguration(log, nil),
		KubeClient:  kubeClient,
		Client:      crClient,
		ClaimClient: claimClient,
	}
}

func TestGetAdminCredentials(t *testing.T) {
	tests := []struct {
		name          string
		secrets       []corev1.Secret
		expected      S3Credentials
		expectedError string
	}{
		{
			name: "valid admin secret",
			secrets: []corev1.Secret{
				{
					ObjectMeta: metav1.ObjectMeta{
						Name: ocscommon.NooBaaAdminSecretName, Namespace: ocscommon.StorageNamespace},
					Data: map[string][]byte{
						"AWS_ACCESS_KEY_ID":     []byte("access"),
						"AWS_SECRET_ACCESS_KEY": []byte("secret"),
					},
				},
			},
			expected: S3Credentials{AccessKey: "access", SecretKey: "secret"},
		},
		{
			name: "secret without keys",
			secrets: []corev1.Secret{
				{
					ObjectMeta: metav1.ObjectMeta{
						Name: ocscommon.NooBaaAdminSecretName, Namespace: ocscommon.StorageNamespace},
				},
			},
			expectedError: "secret 'noobaa-admin' has no S3 keys",
		},
		{
			name:          "secret is missing",
			expectedError: "failed to get secret 'noobaa-admin': secrets \"noobaa-admin\" not found",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			kubeClient := faketestclients.GetFakeKubeclient()
			res := map[string]runtime.Object{"secrets": &corev1.SecretList{Items: test.secrets}}
			faketestclients.FakeReaction(kubeClient.CoreV1(), "get", []string{"secrets"}, res, nil)

			mcg := getTestMCG(kubeClient, nil, nil)
			creds, err := mcg.GetAdminCredentials()
			if test.expectedError != "" {
				assert.EqualError(t, err, test.expectedError)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, test.expected, creds)
			}
			faketestclients.CleanupFakeClientReactions(kubeClient.CoreV1())
		})
	}
}

func TestGetS3Endpoint(t *testing.T) {
	tests := []struct {
		name          string
		route         *routev1.Route
		expected      string
		expectedError string
	}{
		{
			name: "route with host",
			route: &routev1.Route{
				ObjectMeta: metav1.ObjectMeta{
					Name: ocscommon.NooBaaS3RouteName, Namespace: ocscommon.StorageNamespace},
				Spec: routev1.RouteSpec{Host: "s3-openshift-storage.apps.example.com"},
			},
			expected: "https://s3-openshift-storage.apps.example.com",
		},
		{
			name: "route without host",
			route: &routev1.Route{
				ObjectMeta: metav1.ObjectMeta{
					Name: ocscommon.NooBaaS3RouteName, Namespace: ocscommon.StorageNamespace},
			},
			expectedError: "route 's3' has no host assigned",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			crClient := faketestclients.GetClient(faketestclients.GetClientBuilderWithObjects(test.route))
			mcg := getTestMCG(nil, crClient, nil)
			endpoint, err := mcg.GetS3Endpoint()
			if test.expectedError != "" {
				assert.EqualError(t, err, test.expectedError)
			} else {
				assert.Nil(t, err)
				assert.Equal(t, test.expected, endpoint)
			}
		})
	}
}

func TestNewS3Client(t *testing.T) {
	s3Client, err := NewS3Client("https://s3.example.com", S3Credentials{AccessKey: "a", SecretKey: "s"})
	assert.Nil(t, err)
	assert.NotNil(t, s3Client)
	assert.Equal(t, "https://s3.example.com", s3Client.Endpoint)
}
