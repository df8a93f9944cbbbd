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
	"time"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	"github.com/red-hat-storage/ocs-ci/pkg/workload"
	f "github.com/red-hat-storage/ocs-ci/test/e2e/framework"
)

func TestPVCStormAndSnapshot(t *testing.T) {
	t.Log("e2e test: bulk PVC provisioning on RBD and cephfs plus snapshot restore")
	defer f.SetupTeardown(t)()

	mc := f.TF.ManagedCluster

	for _, storageClass := range []string{ocscommon.StorageClassRBD, ocscommon.StorageClassCephFS} {
		f.Step(t, "Provision 10 PVCs of class %s", storageClass)
		storm := &workload.PVCStorm{
			Log:          f.TF.Log,
			Config:       mc.RunConfig,
			KubeClient:   mc.KubeClient,
			Namespace:    f.TestNamespace(),
			StorageClass: storageClass,
			Size:         "1Gi",
			Count:        10,
		}
		names, err := storm.Run(mc.Context)
		if err != nil {
			t.Fatal(err)
		}

		f.Step(t, "Delete the PVCs of class %s again", storageClass)
		err = storm.Cleanup(mc.Context, names)
		if err != nil {
			t.Fatal(err)
		}
	}

	f.Step(t, "Create a single RBD PVC to snapshot")
	storm := &workload.PVCStorm{
		Log:          f.TF.Log,
		Config:       mc.RunConfig,
		KubeClient:   mc.KubeClient,
		Namespace:    f.TestNamespace(),
		StorageClass: ocscommon.StorageClassRBD,
		Size:         "1Gi",
		Count:        1,
	}
	names, err := storm.Run(mc.Context)
	if err != nil {
		t.Fatal(err)
	}
	pvcName := names[0]
	defer func() {
		err := storm.Cleanup(mc.Context, names)
		if err != nil {
			t.Logf("failed to clean up PVC %s: %v", pvcName, err)
		}
	}()

	snapshotter := &workload.Snapshotter{
		Log:    f.TF.Log,
		Config: mc.RunConfig,
		Client: mc.Client,
	}
	f.Step(t, "Snapshot PVC %s and wait for readiness", pvcName)
	snapshot, err := snapshotter.CreateSnapshot(mc.Context, pvcName, f.TestNamespace())
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := snapshotter.DeleteSnapshot(mc.Context, snapshot.Name, snapshot.Namespace)
		if err != nil {
			t.Logf("failed to clean up snapshot %s: %v", snapshot.Name, err)
		}
	}()

	f.Step(t, "Restore the snapshot into a new PVC")
	restored, err := snapshotter.RestoreSnapshot(mc.Context, mc.KubeClient, snapshot,
		ocscommon.StorageClassRBD, "1Gi")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		err := storm.Cleanup(mc.Context, []string{restored.Name})
		if err != nil {
			t.Logf("failed to clean up restored PVC %s: %v", restored.Name, err)
		}
	}()

	f.Step(t, "Verify the restored PVC binds")
	sampler := ocscommon.NewSampler(f.TF.Log, 5*time.Second, mc.RunConfig.Timeout(5*time.Minute))
	err = sampler.WaitForCondition(mc.Context, "restored PVC binding", func() (bool, error) {
		pvc, err := mc.KubeClient.CoreV1().PersistentVolumeClaims(f.TestNamespace()).Get(
			mc.Context, restored.Name, metav1.GetOptions{})
		if err != nil {
			f.TF.Log.Error().Err(err).Msg("")
			return false, nil
		}
		return pvc.Status.Phase == corev1.ClaimBound, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	pvc, err := mc.KubeClient.CoreV1().PersistentVolumeClaims(f.TestNamespace()).Get(
		mc.Context, restored.Name, metav1.GetOptions{})
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "VolumeSnapshot", pvc.Spec.DataSource.Kind)
	assert.Equal(t, snapshot.Name, pvc.Spec.DataSource.Name)
	t.Logf("Test %s complete successfully", t.Name())
}
