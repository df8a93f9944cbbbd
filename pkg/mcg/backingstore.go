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

	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CreatePVPoolBackingStore creates a backing store carved out of PVs on
// the storage cluster itself.
func (m *MCG) CreatePVPoolBackingStore(name string, numVolumes int, volumeSize string) (*nbv1.BackingStore, error) {
	backingStore := &nbv1.BackingStore{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: m.Config.StorageNamespace,
		},
		Spec: nbv1.BackingStoreSpec{
			Type: nbv1.StoreTypePVPool,
			PVPool: &nbv1.PVPoolSpec{
				NumVolumes: numVolumes,
				VolumeResources: &corev1.VolumeResourceRequirements{
					Requests: corev1.ResourceList{
						corev1.ResourceStorage: resource.MustParse(volumeSize),
					},
				},
			},
		},
	}
	return m.createBackingStore(backingStore)
}

// CreateS3CompatibleBackingStore creates a backing store on top of an
// external S3 endpoint, typically the RGW of the same cluster.
func (m *MCG) CreateS3CompatibleBackingStore(name, targetBucket, endpoint, secretName string) (*nbv1.BackingStore, error) {
	backingStore := &nbv1.BackingStore{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: m.Config.StorageNamespace,
		},
		Spec: nbv1.BackingStoreSpec{
			Type: nbv1.StoreTypeS3Compatible,
			S3Compatible: &nbv1.S3CompatibleSpec{
				TargetBucket: targetBucket,
				Endpoint:     endpoint,
				Secret: corev1.SecretReference{
					Name:      secretName,
					Namespace: m.Config.StorageNamespace,
				},
			},
		},
	}
	return m.createBackingStore(backingStore)
}

func (m *MCG) createBackingStore(backingStore *nbv1.BackingStore) (*nbv1.BackingStore, error) {
	m.Log.Info().Msgf("creating BackingStore '%s' of type '%s'", backingStore.Name, backingStore.Spec.Type)
	err := m.Client.Create(m.Context, backingStore)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create BackingStore '%s'", backingStore.Name)
	}
	return backingStore, nil
}

// WaitForBackingStoreReady waits until the store phase is Ready, failing
// fast when the operator rejects it.
func (m *MCG) WaitForBackingStoreReady(name string) error {
	sampler := m.sampler(10*time.Second, 10*time.Minute)
	return sampler.WaitForCondition(m.Context, "BackingStore '"+name+"' readiness", func() (bool, error) {
		backingStore := &nbv1.BackingStore{}
		err := m.Client.Get(m.Context, client.ObjectKey{
			Name: name, Namespace: m.Config.StorageNamespace}, backingStore)
		if err != nil {
			m.Log.Error().Err(err).Msgf("failed to get BackingStore '%s'", name)
			return false, nil
		}
		switch backingStore.Status.Phase {
		case nbv1.BackingStorePhaseReady:
			return true, nil
		case nbv1.BackingStorePhaseRejected:
			return false, errors.Errorf("BackingStore '%s' is rejected", name)
		}
		m.Log.Info().Msgf("BackingStore '%s' phase is '%s'", name, backingStore.Status.Phase)
		return false, nil
	})
}

// DeleteBackingStore deletes the store and waits for it to go away.
func (m *MCG) DeleteBackingStore(name string) error {
	backingStore := &nbv1.BackingStore{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: m.Config.StorageNamespace},
	}
	err := m.Client.Delete(m.Context, backingStore)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to delete BackingStore '%s'", name)
	}
	sampler := m.sampler(10*time.Second, 5*time.Minute)
	return sampler.WaitForCondition(m.Context, "BackingStore '"+name+"' removal", func() (bool, error) {
		err := m.Client.Get(m.Context, client.ObjectKey{
			Name: name, Namespace: m.Config.StorageNamespace}, &nbv1.BackingStore{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		return false, nil
	})
}
