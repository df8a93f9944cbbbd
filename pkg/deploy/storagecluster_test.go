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

package deploy

import (
	"testing"

	conditionsv1 "github.com/openshift/custom-resource-status/conditions/v1"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v4/v1"
	"github.com/stretchr/testify/assert"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	faketestclients "github.com/red-hat-storage/ocs-ci/test/unit/clients"
)

func TestGenerateStorageCluster(t *testing.T) {
	tests := []struct {
		name                 string
		localStorage         bool
		osdCount             int
		expectedStorageClass *string
		expectedPortable     bool
	}{
		{
			name:             "dynamic provisioning",
			osdCount:         3,
			expectedPortable: true,
		},
		{
			name:                 "local storage backed",
			localStorage:         true,
			osdCount:             6,
			expectedStorageClass: func() *string { s := localBlockStorageClass; return &s }(),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			deployer := getTestDeployer(nil, nil)
			deployer.Config.LocalStorage = test.localStorage
			deployer.Config.OsdCount = test.osdCount

			storageCluster := deployer.GenerateStorageCluster()
			assert.Equal(t, ocscommon.DefaultStorageClusterName, storageCluster.Name)
			assert.False(t, storageCluster.Spec.ManageNodes)
			assert.NotNil(t, storageCluster.Spec.MonPVCTemplate)
			assert.Len(t, storageCluster.Spec.StorageDeviceSets, 1)

			deviceSet := storageCluster.Spec.StorageDeviceSets[0]
			assert.Equal(t, test.osdCount, deviceSet.Count)
			assert.Equal(t, test.expectedPortable, deviceSet.Portable)
			assert.Equal(t, test.expectedStorageClass, deviceSet.DataPVCTemplate.Spec.StorageClassName)
			assert.Equal(t, corev1.PersistentVolumeBlock, *deviceSet.DataPVCTemplate.Spec.VolumeMode)
		})
	}
}

func TestStorageClusterConditionsHealthy(t *testing.T) {
	healthyConditions := []conditionsv1.Condition{
		{Type: conditionsv1.ConditionAvailable, Status: corev1.ConditionTrue},
		{Type: conditionsv1.ConditionUpgradeable, Status: corev1.ConditionTrue},
		{Type: conditionsv1.ConditionProgressing, Status: corev1.ConditionFalse},
		{Type: conditionsv1.ConditionDegraded, Status: corev1.ConditionFalse},
	}
	degradedConditions := []conditionsv1.Condition{
		{Type: conditionsv1.ConditionAvailable, Status: corev1.ConditionTrue},
		{Type: conditionsv1.ConditionUpgradeable, Status: corev1.ConditionTrue},
		{Type: conditionsv1.ConditionProgressing, Status: corev1.ConditionFalse},
		{Type: conditionsv1.ConditionDegraded, Status: corev1.ConditionTrue},
	}
	tests := []struct {
		name       string
		conditions []conditionsv1.Condition
		expected   bool
	}{
		{
			name:       "all conditions settled",
			conditions: healthyConditions,
			expected:   true,
		},
		{
			name:       "degraded cluster",
			conditions: degradedConditions,
			expected:   false,
		},
		{
			name:     "no conditions reported yet",
			expected: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			storageCluster := &ocsv1.StorageCluster{
				Status: ocsv1.StorageClusterStatus{Conditions: test.conditions},
			}
			assert.Equal(t, test.expected, storageClusterConditionsHealthy(storageCluster))
		})
	}
}

func TestOsdDeploymentsReady(t *testing.T) {
	readyStatus := appsv1.DeploymentStatus{
		Replicas: 1, UpdatedReplicas: 1, ReadyReplicas: 1, AvailableReplicas: 1,
	}
	osdDeployment := func(name string, ready bool) appsv1.Deployment {
		deployment := appsv1.Deployment{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: ocscommon.StorageNamespace,
				Labels:    map[string]string{"app": "rook-ceph-osd"},
			},
		}
		if ready {
			deployment.Status = readyStatus
		}
		return deployment
	}
	tests := []struct {
		name        string
		deployments []appsv1.Deployment
		expected    bool
	}{
		{
			name: "all osds ready",
			deployments: []appsv1.Deployment{
				osdDeployment("rook-ceph-osd-0", true),
				osdDeployment("rook-ceph-osd-1", true),
				osdDeployment("rook-ceph-osd-2", true),
			},
			expected: true,
		},
		{
			name: "one osd still rolling out",
			deployments: []appsv1.Deployment{
				osdDeployment("rook-ceph-osd-0", true),
				osdDeployment("rook-ceph-osd-1", true),
				osdDeployment("rook-ceph-osd-2", false),
			},
			expected: false,
		},
		{
			name:     "no osd deployments yet",
			expected: false,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			kubeClient := faketestclients.GetFakeKubeclient()
			res := map[string]runtime.Object{"deployments": &appsv1.DeploymentList{Items: test.deployments}}
			faketestclients.FakeReaction(kubeClient.AppsV1(), "list", []string{"deployments"}, res, nil)

			deployer := getTestDeployer(kubeClient, nil)
			ready, err := deployer.osdDeploymentsReady()
			assert.Nil(t, err)
			assert.Equal(t, test.expected, ready)
			faketestclients.CleanupFakeClientReactions(kubeClient.AppsV1())
		})
	}
}
