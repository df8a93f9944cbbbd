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

	opv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v4/v1"
	"github.com/stretchr/testify/assert"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	faketestclients "github.com/red-hat-storage/ocs-ci/test/unit/clients"
)

func TestDeleteStorageClusterAndWait(t *testing.T) {
	storageCluster := &ocsv1.StorageCluster{
		ObjectMeta: metav1.ObjectMeta{
			Name:      ocscommon.DefaultStorageClusterName,
			Namespace: ocscommon.StorageNamespace,
		},
	}
	tests := []struct {
		name    string
		objects []client.Object
	}{
		{
			name:    "existing cluster is deleted",
			objects: []client.Object{storageCluster},
		},
		{
			name: "already absent cluster is a no-op",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			crClient := faketestclients.GetClient(faketestclients.GetClientBuilderWithObjects(test.objects...))
			deployer := getTestDeployer(nil, crClient)
			err := deployer.DeleteStorageClusterAndWait()
			assert.Nil(t, err)

			current := &ocsv1.StorageCluster{}
			err = crClient.Get(deployer.Context, client.ObjectKey{
				Name: ocscommon.DefaultStorageClusterName, Namespace: ocscommon.StorageNamespace}, current)
			assert.True(t, apierrors.IsNotFound(err))
		})
	}
}

func TestDeleteOLMResources(t *testing.T) {
	crClient := faketestclients.GetClient(faketestclients.GetClientBuilderWithObjects(
		&opv1alpha1.Subscription{ObjectMeta: metav1.ObjectMeta{
			Name: odfSubscriptionName, Namespace: ocscommon.StorageNamespace}},
		&opv1alpha1.CatalogSource{ObjectMeta: metav1.ObjectMeta{
			Name: odfCatalogSourceName, Namespace: ocscommon.MarketplaceNamespace}},
	))
	deployer := getTestDeployer(nil, crClient)
	// OperatorGroup is absent, deletion must tolerate that
	err := deployer.DeleteOLMResources()
	assert.Nil(t, err)

	subscription := &opv1alpha1.Subscription{}
	err = crClient.Get(deployer.Context, client.ObjectKey{
		Name: odfSubscriptionName, Namespace: ocscommon.StorageNamespace}, subscription)
	assert.True(t, apierrors.IsNotFound(err))
}
