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
	"fmt"
	"strings"
	"time"

	opv1 "github.com/operator-framework/api/pkg/operators/v1"
	opv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

const (
	odfCatalogSourceName = "odf-catalogsource"
	odfSubscriptionName  = "odf-subscription"
	odfPackageName       = "odf-operator"
)

// operator deployments which must be ready before the StorageCluster
// may be created
var operatorDeployments = []string{
	ocscommon.OcsOperatorName,
	ocscommon.RookOperatorName,
	ocscommon.NooBaaOperatorName,
	"odf-operator-controller-manager",
}

// DeployOLMResources creates the OperatorGroup, CatalogSource and
// Subscription which make OLM install the ODF operator bundle.
func (d *Deployer) DeployOLMResources() error {
	for _, object := range d.generateOLMResources() {
		d.Log.Info().Msgf("creating %T '%s'", object, object.GetName())
		err := d.Client.Create(d.Context, object)
		if err != nil && !apierrors.IsAlreadyExists(err) {
			return errors.Wrapf(err, "failed to create %T '%s'", object, object.GetName())
		}
	}
	err := d.waitForCatalogSourceReady()
	if err != nil {
		return err
	}
	return d.waitForCSVSucceeded()
}

func (d *Deployer) generateOLMResources() []client.Object {
	operatorGroup := &opv1.OperatorGroup{
		ObjectMeta: metav1.ObjectMeta{
			Name:      fmt.Sprintf("%s-operatorgroup", d.Config.StorageNamespace),
			Namespace: d.Config.StorageNamespace,
		},
		Spec: opv1.OperatorGroupSpec{
			TargetNamespaces: []string{d.Config.StorageNamespace},
		},
	}
	catalogSource := &opv1alpha1.CatalogSource{
		ObjectMeta: metav1.ObjectMeta{
			Name:      odfCatalogSourceName,
			Namespace: ocscommon.MarketplaceNamespace,
		},
		Spec: opv1alpha1.CatalogSourceSpec{
			SourceType:  opv1alpha1.SourceTypeGrpc,
			Image:       d.Config.CatalogImage,
			DisplayName: "OpenShift Data Foundation",
			Publisher:   "Red Hat",
		},
	}
	subscription := &opv1alpha1.Subscription{
		ObjectMeta: metav1.ObjectMeta{
			Name:      odfSubscriptionName,
			Namespace: d.Config.StorageNamespace,
		},
		Spec: &opv1alpha1.SubscriptionSpec{
			Channel:                d.Config.SubscriptionChannel,
			Package:                odfPackageName,
			CatalogSource:          odfCatalogSourceName,
			CatalogSourceNamespace: ocscommon.MarketplaceNamespace,
			InstallPlanApproval:    opv1alpha1.ApprovalAutomatic,
		},
	}
	return []client.Object{operatorGroup, catalogSource, subscription}
}

func (d *Deployer) waitForCatalogSourceReady() error {
	sampler := ocscommon.NewSampler(d.Log, 10*time.Second, d.Config.Timeout(5*time.Minute))
	return sampler.WaitForCondition(d.Context, "CatalogSource connection readiness", func() (bool, error) {
		catalogSource := &opv1alpha1.CatalogSource{}
		err := d.Client.Get(d.Context, client.ObjectKey{
			Name: odfCatalogSourceName, Namespace: ocscommon.MarketplaceNamespace}, catalogSource)
		if err != nil {
			d.Log.Error().Err(err).Msg("failed to get CatalogSource")
			return false, nil
		}
		if catalogSource.Status.GRPCConnectionState == nil {
			return false, nil
		}
		return catalogSource.Status.GRPCConnectionState.LastObservedState == "READY", nil
	})
}

// isODFClusterServiceVersion tells the odf bundle CSV apart from the
// dependent operator CSVs (ocs, mcg, rook) OLM installs alongside it.
func isODFClusterServiceVersion(csv *opv1alpha1.ClusterServiceVersion) bool {
	return strings.HasPrefix(csv.Name, odfPackageName+".") || csv.Spec.DisplayName == "OpenShift Data Foundation"
}

func (d *Deployer) waitForCSVSucceeded() error {
	sampler := ocscommon.NewSampler(d.Log, 15*time.Second, d.Config.Timeout(10*time.Minute))
	return sampler.WaitForCondition(d.Context, "odf CSV install success", func() (bool, error) {
		csvList := &opv1alpha1.ClusterServiceVersionList{}
		err := d.Client.List(d.Context, csvList, client.InNamespace(d.Config.StorageNamespace))
		if err != nil {
			d.Log.Error().Err(err).Msg("failed to list CSVs")
			return false, nil
		}
		for idx := range csvList.Items {
			csv := &csvList.Items[idx]
			if !isODFClusterServiceVersion(csv) {
				continue
			}
			switch csv.Status.Phase {
			case opv1alpha1.CSVPhaseSucceeded:
				return true, nil
			case opv1alpha1.CSVPhaseFailed:
				return false, errors.Errorf("CSV '%s' install failed: %s", csv.Name, csv.Status.Message)
			}
			d.Log.Info().Msgf("CSV '%s' phase is '%s'", csv.Name, csv.Status.Phase)
			return false, nil
		}
		return false, nil
	})
}

// WaitForOperatorsReady blocks until all operator deployments unpacked
// by OLM are rolled out.
func (d *Deployer) WaitForOperatorsReady() error {
	sampler := ocscommon.NewSampler(d.Log, 15*time.Second, d.Config.Timeout(10*time.Minute))
	return sampler.WaitForCondition(d.Context, "operator deployments readiness", func() (bool, error) {
		for _, name := range operatorDeployments {
			deployment, err := d.KubeClient.AppsV1().Deployments(d.Config.StorageNamespace).Get(
				d.Context, name, metav1.GetOptions{})
			if err != nil {
				if apierrors.IsNotFound(err) {
					return false, nil
				}
				d.Log.Error().Err(err).Msgf("failed to get deployment '%s'", name)
				return false, nil
			}
			if !ocscommon.IsDeploymentReady(deployment) {
				d.Log.Info().Msgf("deployment '%s' is not ready yet", name)
				return false, nil
			}
		}
		return true, nil
	})
}
