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
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CreateS3CompatibleNamespaceStore creates a namespace store exposing
// an existing bucket on an external S3 endpoint through the gateway
// without copying data in.
func (m *MCG) CreateS3CompatibleNamespaceStore(name, targetBucket, endpoint, secretName string) (*nbv1.NamespaceStore, error) {
	namespaceStore := &nbv1.NamespaceStore{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: m.Config.StorageNamespace,
		},
		Spec: nbv1.NamespaceStoreSpec{
			Type: nbv1.NSStoreTypeS3Compatible,
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
	m.Log.Info().Msgf("creating NamespaceStore '%s' over bucket '%s'", name, targetBucket)
	err := m.Client.Create(m.Context, namespaceStore)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create NamespaceStore '%s'", name)
	}
	return namespaceStore, nil
}

func (m *MCG) WaitForNamespaceStoreReady(name string) error {
	sampler := m.sampler(10*time.Second, 10*time.Minute)
	return sampler.WaitForCondition(m.Context, "NamespaceStore '"+name+"' readiness", func() (bool, error) {
		namespaceStore := &nbv1.NamespaceStore{}
		err := m.Client.Get(m.Context, client.ObjectKey{
			Name: name, Namespace: m.Config.StorageNamespace}, namespaceStore)
		if err != nil {
			m.Log.Error().Err(err).Msgf("failed to get NamespaceStore '%s'", name)
			return false, nil
		}
		switch namespaceStore.Status.Phase {
		case nbv1.NamespaceStorePhaseReady:
			return true, nil
		case nbv1.NamespaceStorePhaseRejected:
			return false, errors.Errorf("NamespaceStore '%s' is rejected", name)
		}
		m.Log.Info().Msgf("NamespaceStore '%s' phase is '%s'", name, namespaceStore.Status.Phase)
		return false, nil
	})
}

func (m *MCG) DeleteNamespaceStore(name string) error {
	namespaceStore := &nbv1.NamespaceStore{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: m.Config.StorageNamespace},
	}
	err := m.Client.Delete(m.Context, namespaceStore)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to delete NamespaceStore '%s'", name)
	}
	sampler := m.sampler(10*time.Second, 5*time.Minute)
	return sampler.WaitForCondition(m.Context, "NamespaceStore '"+name+"' removal", func() (bool, error) {
		err := m.Client.Get(m.Context, client.ObjectKey{
			Name: name, Namespace: m.Config.StorageNamespace}, &nbv1.NamespaceStore{})
		if apierrors.IsNotFound(err) {
			return true, nil
		}
		return false, nil
	})
}
