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
	"testing"

	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	"github.com/stretchr/testify/assert"
	"k8s.io/apimachinery/pkg/api/resource"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	faketestclients "github.com/red-hat-storage/ocs-ci/test/unit/clients"
)

func TestCreatePVPoolBackingStore(t *testing.T) {
	crClient := faketestclients.GetClient(faketestclients.GetClientBuilder())
	mcg := getTestMCG(nil, crClient, nil)

	created, err := mcg.CreatePVPoolBackingStore("pv-store", 3, "50Gi")
	assert.Nil(t, err)
	assert.Equal(t, nbv1.StoreTypePVPool, created.Spec.Type)

	backingStore := &nbv1.BackingStore{}
	err = crClient.Get(mcg.Context, client.ObjectKey{
		Name: "pv-store", Namespace: ocscommon.StorageNamespace}, backingStore)
	assert.Nil(t, err)
	assert.Equal(t, 3, backingStore.Spec.PVPool.NumVolumes)
	expectedSize := resource.MustParse("50Gi")
	assert.True(t, expectedSize.Equal(backingStore.Spec.PVPool.VolumeResources.Requests["storage"]))

	// duplicate create fails
	_, err = mcg.CreatePVPoolBackingStore("pv-store", 3, "50Gi")
	assert.NotNil(t, err)
}

func TestCreateS3CompatibleNamespaceStore(t *testing.T) {
	crClient := faketestclients.GetClient(faketestclients.GetClientBuilder())
	mcg := getTestMCG(nil, crClient, nil)

	_, err := mcg.CreateS3CompatibleNamespaceStore(
		"rgw-store", "rgw-bucket", "https://rgw.example.com", "rgw-creds")
	assert.Nil(t, err)

	namespaceStore := &nbv1.NamespaceStore{}
	err = crClient.Get(mcg.Context, client.ObjectKey{
		Name: "rgw-store", Namespace: ocscommon.StorageNamespace}, namespaceStore)
	assert.Nil(t, err)
	assert.Equal(t, nbv1.NSStoreTypeS3Compatible, namespaceStore.Spec.Type)
	assert.Equal(t, "rgw-bucket", namespaceStore.Spec.S3Compatible.TargetBucket)
	assert.Equal(t, "https://rgw.example.com", namespaceStore.Spec.S3Compatible.Endpoint)
	assert.Equal(t, "rgw-creds", namespaceStore.Spec.S3Compatible.Secret.Name)
}

func TestCreateBucketClasses(t *testing.T) {
	crClient := faketestclients.GetClient(faketestclients.GetClientBuilder())
	mcg := getTestMCG(nil, crClient, nil)

	_, err := mcg.CreatePlacementBucketClass("placement-class")
	assert.EqualError(t, err, "placement bucket class needs at least one backing store")

	_, err = mcg.CreatePlacementBucketClass("placement-class", "store-a", "store-b")
	assert.Nil(t, err)
	placementClass := &nbv1.BucketClass{}
	err = crClient.Get(mcg.Context, client.ObjectKey{
		Name: "placement-class", Namespace: ocscommon.StorageNamespace}, placementClass)
	assert.Nil(t, err)
	assert.Len(t, placementClass.Spec.PlacementPolicy.Tiers, 1)
	assert.Equal(t, nbv1.TierPlacementSpread, placementClass.Spec.PlacementPolicy.Tiers[0].Placement)
	assert.Equal(t, []string{"store-a", "store-b"}, placementClass.Spec.PlacementPolicy.Tiers[0].BackingStores)

	_, err = mcg.CreateSingleNamespaceBucketClass("ns-class", "ns-store")
	assert.Nil(t, err)
	namespaceClass := &nbv1.BucketClass{}
	err = crClient.Get(mcg.Context, client.ObjectKey{
		Name: "ns-class", Namespace: ocscommon.StorageNamespace}, namespaceClass)
	assert.Nil(t, err)
	assert.Equal(t, nbv1.NSBucketClassTypeSingle, namespaceClass.Spec.NamespacePolicy.Type)
	assert.Equal(t, "ns-store", namespaceClass.Spec.NamespacePolicy.Single.Resource)

	_, err = mcg.CreateMultiNamespaceBucketClass("multi-class", "write-store", "read-store")
	assert.Nil(t, err)
	multiClass := &nbv1.BucketClass{}
	err = crClient.Get(mcg.Context, client.ObjectKey{
		Name: "multi-class", Namespace: ocscommon.StorageNamespace}, multiClass)
	assert.Nil(t, err)
	assert.Equal(t, nbv1.NSBucketClassTypeMulti, multiClass.Spec.NamespacePolicy.Type)
	assert.Equal(t, "write-store", multiClass.Spec.NamespacePolicy.Multi.WriteResource)
	assert.Equal(t, []string{"write-store", "read-store"}, multiClass.Spec.NamespacePolicy.Multi.ReadResources)

	_, err = mcg.CreateCacheBucketClass("cache-class", "hub-store", 60000)
	assert.EqualError(t, err, "cache bucket class needs at least one backing store for the cache")

	_, err = mcg.CreateCacheBucketClass("cache-class", "hub-store", 60000, "cache-store")
	assert.Nil(t, err)
	cacheClass := &nbv1.BucketClass{}
	err = crClient.Get(mcg.Context, client.ObjectKey{
		Name: "cache-class", Namespace: ocscommon.StorageNamespace}, cacheClass)
	assert.Nil(t, err)
	assert.Equal(t, nbv1.NSBucketClassTypeCache, cacheClass.Spec.NamespacePolicy.Type)
	assert.Equal(t, "hub-store", cacheClass.Spec.NamespacePolicy.Cache.HubResource)
	assert.Equal(t, 60000, cacheClass.Spec.NamespacePolicy.Cache.Caching.TTL)
	assert.Equal(t, []string{"cache-store"}, cacheClass.Spec.PlacementPolicy.Tiers[0].BackingStores)
}
