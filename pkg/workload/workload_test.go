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

package workload

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
	faketestclients "github.com/red-hat-storage/ocs-ci/test/unit/clients"
)

func TestBackgroundChecker(t *testing.T) {
	log := ocscommon.InitLogger()
	calls := 0
	checker := &BackgroundChecker{
		Log:      log,
		Interval: 10 * time.Millisecond,
		Check: func(context.Context) error {
			calls++
			if calls%2 == 0 {
				return errors.New("check failed")
			}
			return nil
		},
	}
	checker.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	failures := checker.Stop()

	assert.Greater(t, calls, 2)
	assert.NotEmpty(t, failures)
	assert.EqualError(t, failures[0], "check failed")

	// stopping a never started checker is safe
	idle := &BackgroundChecker{Log: log}
	assert.Nil(t, idle.Stop())
}

func TestPVCStormCreateAndCleanup(t *testing.T) {
	log := ocscommon.InitLogger()
	kubeClient := faketestclients.GetFakeKubeclient()
	pvcList := &corev1.PersistentVolumeClaimList{}
	res := map[string]runtime.Object{"persistentvolumeclaims": pvcList}
	for _, action := range []string{"create", "delete"} {
		faketestclients.FakeReaction(kubeClient.CoreV1(), action, []string{"persistentvolumeclaims"}, res, nil)
	}

	storm := &PVCStorm{
		Log:          log,
		Config:       ocsconfig.ReadConfiguration(log, nil),
		KubeClient:   kubeClient,
		Namespace:    "test-ns",
		StorageClass: ocscommon.StorageClassRBD,
		Size:         "1Gi",
		Count:        3,
	}
	err := storm.createPVC(context.Background(), "storm-pvc-0")
	assert.Nil(t, err)
	assert.Len(t, pvcList.Items, 1)
	created := pvcList.Items[0]
	assert.Equal(t, ocscommon.StorageClassRBD, *created.Spec.StorageClassName)
	expectedSize := resource.MustParse("1Gi")
	assert.True(t, expectedSize.Equal(created.Spec.Resources.Requests["storage"]))

	err = storm.Cleanup(context.Background(), []string{"storm-pvc-0", "already-gone"})
	assert.Nil(t, err)
	assert.Len(t, pvcList.Items, 0)
	faketestclients.CleanupFakeClientReactions(kubeClient.CoreV1())
}

func TestWaitForBound(t *testing.T) {
	log := ocscommon.InitLogger()
	kubeClient := faketestclients.GetFakeKubeclient()
	pvcList := &corev1.PersistentVolumeClaimList{
		Items: []corev1.PersistentVolumeClaim{
			{
				ObjectMeta: metav1.ObjectMeta{Name: "bound-pvc", Namespace: "test-ns"},
				Status:     corev1.PersistentVolumeClaimStatus{Phase: corev1.ClaimBound},
			},
		},
	}
	res := map[string]runtime.Object{"persistentvolumeclaims": pvcList}
	faketestclients.FakeReaction(kubeClient.CoreV1(), "get", []string{"persistentvolumeclaims"}, res, nil)

	storm := &PVCStorm{
		Log:        log,
		Config:     ocsconfig.ReadConfiguration(log, nil),
		KubeClient: kubeClient,
		Namespace:  "test-ns",
	}
	err := storm.waitForBound(context.Background(), "bound-pvc")
	assert.Nil(t, err)
	faketestclients.CleanupFakeClientReactions(kubeClient.CoreV1())
}
