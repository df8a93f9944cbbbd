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
	"fmt"
	"time"

	snapv1 "github.com/kubernetes-csi/external-snapshotter/client/v6/apis/volumesnapshot/v1"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
)

// snapshot class installed with the default StorageCluster for RBD
const rbdSnapshotClass = "ocs-storagecluster-rbdplugin-snapclass"

// PVCStorm creates and binds Count PVCs concurrently against a storage
// class served by the cluster.
type PVCStorm struct {
	Log          zerolog.Logger
	Config       ocsconfig.RunConfig
	KubeClient   kubernetes.Interface
	Namespace    string
	StorageClass string
	Size         string
	Count        int
	Workers      int
}

// Run creates the PVCs and waits for every one of them to bind. It
// returns the created PVC names.
func (p *PVCStorm) Run(ctx context.Context) ([]string, error) {
	if p.Workers <= 0 {
		p.Workers = 5
	}
	names := make([]string, p.Count)
	for idx := range names {
		names[idx] = ocscommon.RandomName("storm-pvc")
	}
	p.Log.Info().Msgf("creating %d PVCs of class '%s' in namespace '%s'",
		p.Count, p.StorageClass, p.Namespace)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.Workers)
	for _, name := range names {
		group.Go(func() error {
			err := p.createPVC(groupCtx, name)
			if err != nil {
				return err
			}
			return p.waitForBound(groupCtx, name)
		})
	}
	err := group.Wait()
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (p *PVCStorm) createPVC(ctx context.Context, name string) error {
	storageClass := p.StorageClass
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: p.Namespace,
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			StorageClassName: &storageClass,
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(p.Size),
				},
			},
		},
	}
	_, err := p.KubeClient.CoreV1().PersistentVolumeClaims(p.Namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to create PVC '%s'", name)
	}
	return nil
}

func (p *PVCStorm) waitForBound(ctx context.Context, name string) error {
	sampler := ocscommon.NewSampler(p.Log, 5*time.Second, p.Config.Timeout(5*time.Minute))
	return sampler.WaitForCondition(ctx, "PVC '"+name+"' binding", func() (bool, error) {
		pvc, err := p.KubeClient.CoreV1().PersistentVolumeClaims(p.Namespace).Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			p.Log.Error().Err(err).Msgf("failed to get PVC '%s'", name)
			return false, nil
		}
		return pvc.Status.Phase == corev1.ClaimBound, nil
	})
}

// Cleanup deletes all PVCs created by the storm, ignoring already
// removed ones.
func (p *PVCStorm) Cleanup(ctx context.Context, names []string) error {
	for _, name := range names {
		err := p.KubeClient.CoreV1().PersistentVolumeClaims(p.Namespace).Delete(ctx, name, metav1.DeleteOptions{})
		if err != nil && !apierrors.IsNotFound(err) {
			return errors.Wrapf(err, "failed to delete PVC '%s'", name)
		}
	}
	return nil
}

// Snapshotter takes and restores CSI volume snapshots of PVCs.
type Snapshotter struct {
	Log    zerolog.Logger
	Config ocsconfig.RunConfig
	Client client.Client
}

// CreateSnapshot snapshots the PVC and waits until the snapshot is
// ready to use.
func (s *Snapshotter) CreateSnapshot(ctx context.Context, pvcName, namespace string) (*snapv1.VolumeSnapshot, error) {
	snapshotClass := rbdSnapshotClass
	snapshot := &snapv1.VolumeSnapshot{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s-snapshot", pvcName),
			Namespace: namespace,
		},
		Spec: snapv1.VolumeSnapshotSpec{
			VolumeSnapshotClassName: &snapshotClass,
			Source: snapv1.VolumeSnapshotSource{
				PersistentVolumeClaimName: &pvcName,
			},
		},
	}
	s.Log.Info().Msgf("creating snapshot of PVC '%s/%s'", namespace, pvcName)
	err := s.Client.Create(ctx, snapshot)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create snapshot of PVC '%s'", pvcName)
	}

	sampler := ocscommon.NewSampler(s.Log, 10*time.Second, s.Config.Timeout(10*time.Minute))
	err = sampler.WaitForCondition(ctx, "snapshot '"+snapshot.Name+"' readiness", func() (bool, error) {
		current := &snapv1.VolumeSnapshot{}
		err := s.Client.Get(ctx, client.ObjectKey{Name: snapshot.Name, Namespace: namespace}, current)
		if err != nil {
			s.Log.Error().Err(err).Msgf("failed to get snapshot '%s'", snapshot.Name)
			return false, nil
		}
		if current.Status == nil || current.Status.ReadyToUse == nil {
			return false, nil
		}
		return *current.Status.ReadyToUse, nil
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RestoreSnapshot creates a new PVC from the snapshot.
func (s *Snapshotter) RestoreSnapshot(ctx context.Context, kubeClient kubernetes.Interface,
	snapshot *snapv1.VolumeSnapshot, storageClass, size string) (*corev1.PersistentVolumeClaim, error) {
	apiGroup := snapv1.GroupName
	pvc := &corev1.PersistentVolumeClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s-restore", snapshot.Name),
			Namespace: snapshot.Namespace,
		},
		Spec: corev1.PersistentVolumeClaimSpec{
			AccessModes:      []corev1.PersistentVolumeAccessMode{corev1.ReadWriteOnce},
			StorageClassName: &storageClass,
			DataSource: &corev1.TypedLocalObjectReference{
				APIGroup: &apiGroup,
				Kind:     "VolumeSnapshot",
				Name:     snapshot.Name,
			},
			Resources: corev1.VolumeResourceRequirements{
				Requests: corev1.ResourceList{
					corev1.ResourceStorage: resource.MustParse(size),
				},
			},
		},
	}
	s.Log.Info().Msgf("restoring snapshot '%s' into PVC '%s'", snapshot.Name, pvc.Name)
	created, err := kubeClient.CoreV1().PersistentVolumeClaims(snapshot.Namespace).Create(ctx, pvc, metav1.CreateOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to restore snapshot '%s'", snapshot.Name)
	}
	return created, nil
}

// DeleteSnapshot removes the snapshot, tolerating absence.
func (s *Snapshotter) DeleteSnapshot(ctx context.Context, name, namespace string) error {
	snapshot := &snapv1.VolumeSnapshot{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace},
	}
	err := s.Client.Delete(ctx, snapshot)
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.Wrapf(err, "failed to delete snapshot '%s'", name)
	}
	return nil
}
