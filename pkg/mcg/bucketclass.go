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
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// CreatePlacementBucketClass creates a bucket class spreading data over
// the given backing stores.
func (m *MCG) CreatePlacementBucketClass(name string, backingStores ...string) (*nbv1.BucketClass, error) {
	if len(backingStores) == 0 {
		return nil, errors.New("placement bucket class needs at least one backing store")
	}
	bucketClass := &nbv1.BucketClass{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: m.Config.StorageNamespace,
		},
		Spec: nbv1.BucketClassSpec{
			PlacementPolicy: &nbv1.PlacementPolicy{
				Tiers: []nbv1.Tier{
					{
						Placement:     nbv1.TierPlacementSpread,
						BackingStores: backingStores,
					},
				},
			},
		},
	}
	return m.createBucketClass(bucketClass)
}

// CreateSingleNamespaceBucketClass creates a bucket class reading and
// writing through a single namespace store.
func (m *MCG) CreateSingleNamespaceBucketClass(name, namespaceStore string) (*nbv1.BucketClass, error) {
	bucketClass := &nbv1.BucketClass{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: m.Config.StorageNamespace,
		},
		Spec: nbv1.BucketClassSpec{
			NamespacePolicy: &nbv1.NamespacePolicy{
				Type: nbv1.NSBucketClassTypeSingle,
				Single: &nbv1.SingleNamespacePolicy{
					Resource: namespaceStore,
				},
			},
		},
	}
	return m.createBucketClass(bucketClass)
}

// CreateMultiNamespaceBucketClass creates a bucket class writing to one
// namespace store and reading from several.
func (m *MCG) CreateMultiNamespaceBucketClass(name, writeStore string, readStores ...string) (*nbv1.BucketClass, error) {
	bucketClass := &nbv1.BucketClass{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: m.Config.StorageNamespace,
		},
		Spec: nbv1.BucketClassSpec{
			NamespacePolicy: &nbv1.NamespacePolicy{
				Type: nbv1.NSBucketClassTypeMulti,
				Multi: &nbv1.MultiNamespacePolicy{
					WriteResource: writeStore,
					ReadResources: append([]string{writeStore}, readStores...),
				},
			},
		},
	}
	return m.createBucketClass(bucketClass)
}

// CreateCacheBucketClass creates a bucket class caching a namespace
// store hub on local backing stores with the given TTL in milliseconds.
func (m *MCG) CreateCacheBucketClass(name, hubStore string, ttl int, backingStores ...string) (*nbv1.BucketClass, error) {
	if len(backingStores) == 0 {
		return nil, errors.New("cache bucket class needs at least one backing store for the cache")
	}
	bucketClass := &nbv1.BucketClass{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: m.Config.StorageNamespace,
		},
		Spec: nbv1.BucketClassSpec{
			NamespacePolicy: &nbv1.NamespacePolicy{
				Type: nbv1.NSBucketClassTypeCache,
				Cache: &nbv1.CacheNamespacePolicy{
					HubResource: hubStore,
					Caching: &nbv1.CacheSpec{
						TTL: ttl,
					},
				},
			},
			PlacementPolicy: &nbv1.PlacementPolicy{
				Tiers: []nbv1.Tier{
					{
						Placement:     nbv1.TierPlacementSpread,
						BackingStores: backingStores,
					},
				},
			},
		},
	}
	return m.createBucketClass(bucketClass)
}

func (m *MCG) createBucketClass(bucketClass *nbv1.BucketClass) (*nbv1.BucketClass, error) {
	m.Log.Info().Msgf("creating BucketClass '%s'", bucketClass.Name)
	err := m.Client.Create(m.Context, bucketClass)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create BucketClass '%s'", bucketClass.Name)
	}
	return bucketClass, nil
}

func (m *MCG) WaitForBucketClassReady(name string) error {
	sampler := m.sampler(10*time.Second, 5*time.Minute)
	return sampler.WaitForCondition(m.Context, "BucketClass '"+name+"' readiness", func() (bool, error) {
		bucketClass := &nbv1.BucketClass{}
		err := m.Client.Get(m.Context, client.ObjectKey{
			Name: name, Namespace: m.Config.StorageNamespace}, bucketClass)
		if err != nil {
			m.Log.Error().Err(err).Msgf("failed to get BucketClass '%s'", name)
			return false, nil
		}
		switch bucketClass.Status.Phase {
		case nbv1.BucketClassPhaseReady:
			return true, nil
		case nbv1.BucketClassPhaseRejected:
			return false, errors.Errorf("BucketClass '%s' is rejected", name)
		}
		m.Log.Info().Msgf("BucketClass '%s' phase is '%s'", name, bucketClass.Status.Phase)
		return false, nil
	})
}

func (m *MCG) DeleteBucketClass(name string) error {
	bucketClass := &nbv1.BucketClass{
		ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: m.Config.StorageNamespace},
	}
	err := m.Client.Delete(m.Context, bucketClass)
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.Wrapf(err, "failed to delete BucketClass '%s'", name)
	}
	return nil
}
