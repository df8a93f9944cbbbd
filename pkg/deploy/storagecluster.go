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

	conditionsv1 "github.com/openshift/custom-resource-status/conditions/v1"
	"github.com/pkg/errors"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v4/v1"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

const localBlockStorageClass = "localblock"

// GenerateStorageCluster builds the StorageCluster object for the
// configured run: internal mode with dynamically provisioned OSDs, or
// LSO-backed device sets when local storage is enabled.
func (d *Deployer) GenerateStorageCluster() *ocsv1.StorageCluster {
	monPVCTemplate := &corev1.PersistentVolumeClaim{
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse("10Gi"),
				},
			},
		},
	}
	blockVolumeMode := corev1.PersistentVolumeBlock
	dataPVCSpec := corev1.PersistentVolumeClaimSpec{
		AccessModes: []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
		Resources: corev1.VolumeResourceRequirements{
			Requests: corev1.ResourceList{
				corev1.ResourceStorage: resource.MustParse(d.Config.OsdSize),
			},
		},
		VolumeMode: &blockVolumeMode,
	}
	if d.Config.LocalStorage {
		storageClass := localBlockStorageClass
		dataPVCSpec.StorageClassName = &storageClass
	}
	storageCluster := &ocsv1.StorageCluster{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ocscommon.DefaultStorageClusterName,
			Namespace: d.Config.StorageNamespace,
		},
		Spec: ocsv1.StorageClusterSpec{
			ManageNodes:    false,
			MonPVCTemplate: monPVCTemplate,
			// empty resource sections keep the operator from applying
			// production-sized requests on small test clusters
			Resources: map[string]corev1.ResourceRequirements{
				"mon": {},
				"mds": {},
				"rgw": {},
				"mgr": {},
				"noobaa-core": {},
				"noobaa-db":   {},
			},
			StorageDeviceSets: []ocsv1.StorageDeviceSet{
				{
					Name:     "ocs-deviceset",
					Count:    d.Config.OsdCount,
					Replica:  1,
					Portable: !d.Config.LocalStorage,
					Resources: corev1.ResourceRequirements{
						Requests: corev1.ResourceList{
							corev1.ResourceMemory: resource.MustParse("2Gi"),
						},
					},
					DataPVCTemplate: corev1.PersistentVolumeClaim{
						Spec: dataPVCSpec,
					},
				},
			},
		},
	}
	return storageCluster
}

func (d *Deployer) CreateStorageCluster() error {
	storageCluster := d.GenerateStorageCluster()
	d.Log.Info().Msgf("creating StorageCluster '%s/%s'", storageCluster.Namespace, storageCluster.Name)
	err := d.Client.Create(d.Context, storageCluster)
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrapf(err, "failed to create StorageCluster '%s'", storageCluster.Name)
	}
	return nil
}

// storageClusterConditionsHealthy reports whether the StorageCluster
// status conditions describe a finished, healthy reconcile.
func storageClusterConditionsHealthy(storageCluster *ocsv1.StorageCluster) bool {
	available := conditionsv1.IsStatusConditionTrue(storageCluster.Status.Conditions, conditionsv1.ConditionAvailable)
	upgradeable := conditionsv1.IsStatusConditionTrue(storageCluster.Status.Conditions, conditionsv1.ConditionUpgradeable)
	progressing := conditionsv1.IsStatusConditionFalse(storageCluster.Status.Conditions, conditionsv1.ConditionProgressing)
	degraded := conditionsv1.IsStatusConditionFalse(storageCluster.Status.Conditions, conditionsv1.ConditionDegraded)
	return available && upgradeable && progressing && degraded
}

// WaitForStorageClusterReady polls the StorageCluster conditions and
// the OSD deployments until the cluster is serving storage.
func (d *Deployer) WaitForStorageClusterReady() error {
	sampler := ocscommon.NewSampler(d.Log, 30*time.Second, d.Config.Timeout(30*time.Minute))
	return sampler.WaitForCondition(d.Context, "StorageCluster readiness", func() (bool, error) {
		storageCluster := &ocsv1.StorageCluster{}
		err := d.Client.Get(d.Context, client.ObjectKey{
			Name: ocscommon.DefaultStorageClusterName, Namespace: d.Config.StorageNamespace}, storageCluster)
		if err != nil {
			d.Log.Error().Err(err).Msg("failed to get StorageCluster")
			return false, nil
		}
		if !storageClusterConditionsHealthy(storageCluster) {
			d.Log.Info().Msgf("StorageCluster phase is '%s', conditions are not settled yet", storageCluster.Status.Phase)
			return false, nil
		}
		ready, err := d.osdDeploymentsReady()
		if err != nil {
			d.Log.Error().Err(err).Msg("failed to check OSD deployments")
			return false, nil
		}
		return ready, nil
	})
}

func (d *Deployer) osdDeploymentsReady() (bool, error) {
	deployments, err := d.KubeClient.AppsV1().Deployments(d.Config.StorageNamespace).List(
		d.Context, metav1.ListOptions{LabelSelector: ocscommon.CephDaemonLabels["osd"]})
	if err != nil {
		return false, errors.Wrap(err, "failed to list OSD deployments")
	}
	readyCount := 0
	for idx := range deployments.Items {
		if ocscommon.IsDeploymentReady(&deployments.Items[idx]) {
			readyCount++
		}
	}
	if readyCount < d.Config.OsdCount {
		d.Log.Info().Msgf("%d/%d OSD deployments are ready", readyCount, d.Config.OsdCount)
		return false, nil
	}
	return true, nil
}

// WaitForCephClusterHealth waits until rook reports HEALTH_OK for the
// underlying CephCluster.
func (d *Deployer) WaitForCephClusterHealth() error {
	sampler := ocscommon.NewSampler(d.Log, 30*time.Second, d.Config.Timeout(15*time.Minute))
	return sampler.WaitForCondition(d.Context, "CephCluster health", func() (bool, error) {
		cephCluster, err := d.RookClient.CephV1().CephClusters(d.Config.StorageNamespace).Get(
			d.Context, ocscommon.DefaultCephClusterName, metav1.GetOptions{})
		if err != nil {
			d.Log.Error().Err(err).Msg("failed to get CephCluster")
			return false, nil
		}
		if cephCluster.Status.Phase != cephv1.ConditionReady {
			d.Log.Info().Msgf("CephCluster phase is '%s'", cephCluster.Status.Phase)
			return false, nil
		}
		if cephCluster.Status.CephStatus == nil || cephCluster.Status.CephStatus.Health != "HEALTH_OK" {
			health := "unknown"
			if cephCluster.Status.CephStatus != nil {
				health = cephCluster.Status.CephStatus.Health
			}
			d.Log.Info().Msgf("CephCluster health is '%s'", health)
			return false, nil
		}
		return true, nil
	})
}
