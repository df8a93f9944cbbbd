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
	"time"

	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

// LSO resources are managed through the dynamic client since the
// local-storage-operator does not publish a typed Go API module.
var (
	localVolumeDiscoveryResource = schema.GroupVersionResource{
		Group: "local.storage.openshift.io", Version: "v1alpha1", Resource: "localvolumediscoveries"}
	localVolumeSetResource = schema.GroupVersionResource{
		Group: "local.storage.openshift.io", Version: "v1alpha1", Resource: "localvolumesets"}
)

func storageNodeSelectorTerms() []interface{} {
	return []interface{}{
		map[string]interface{}{
			"matchExpressions": []interface{}{
				map[string]interface{}{
					"key":      storageNodeLabel,
					"operator": "Exists",
				},
			},
		},
	}
}

// DeployLocalStorage discovers local disks on storage nodes and exposes
// them through the 'localblock' storage class consumed by OSD device
// sets.
func (d *Deployer) DeployLocalStorage() error {
	discovery := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "local.storage.openshift.io/v1alpha1",
		"kind":       "LocalVolumeDiscovery",
		"metadata": map[string]interface{}{
			"name":      "auto-discover-devices",
			"namespace": ocscommon.LocalStorageNamespace,
		},
		"spec": map[string]interface{}{
			"nodeSelector": map[string]interface{}{
				"nodeSelectorTerms": storageNodeSelectorTerms(),
			},
		},
	}}
	d.Log.Info().Msgf("creating LocalVolumeDiscovery '%s'", discovery.GetName())
	_, err := d.DynamicClient.Resource(localVolumeDiscoveryResource).Namespace(ocscommon.LocalStorageNamespace).Create(
		d.Context, discovery, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrap(err, "failed to create LocalVolumeDiscovery")
	}

	volumeSet := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "local.storage.openshift.io/v1alpha1",
		"kind":       "LocalVolumeSet",
		"metadata": map[string]interface{}{
			"name":      localBlockStorageClass,
			"namespace": ocscommon.LocalStorageNamespace,
		},
		"spec": map[string]interface{}{
			"storageClassName": localBlockStorageClass,
			"volumeMode":       "Block",
			"deviceInclusionSpec": map[string]interface{}{
				"deviceTypes": []interface{}{"disk", "part"},
			},
			"nodeSelector": map[string]interface{}{
				"nodeSelectorTerms": storageNodeSelectorTerms(),
			},
		},
	}}
	d.Log.Info().Msgf("creating LocalVolumeSet '%s'", volumeSet.GetName())
	_, err = d.DynamicClient.Resource(localVolumeSetResource).Namespace(ocscommon.LocalStorageNamespace).Create(
		d.Context, volumeSet, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrap(err, "failed to create LocalVolumeSet")
	}
	return d.waitForLocalPVs()
}

// waitForLocalPVs waits until LSO provisions at least OsdCount block PVs.
func (d *Deployer) waitForLocalPVs() error {
	sampler := ocscommon.NewSampler(d.Log, 15*time.Second, d.Config.Timeout(10*time.Minute))
	return sampler.WaitForCondition(d.Context, "local block PVs provisioning", func() (bool, error) {
		pvList, err := d.KubeClient.CoreV1().PersistentVolumes().List(d.Context, metav1.ListOptions{})
		if err != nil {
			d.Log.Error().Err(err).Msg("failed to list PVs")
			return false, nil
		}
		available := 0
		for _, pv := range pvList.Items {
			if pv.Spec.StorageClassName == localBlockStorageClass {
				available++
			}
		}
		if available < d.Config.OsdCount {
			d.Log.Info().Msgf("%d/%d local block PVs are provisioned", available, d.Config.OsdCount)
			return false, nil
		}
		return true, nil
	})
}
