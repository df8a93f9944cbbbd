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

	opv1 "github.com/operator-framework/api/pkg/operators/v1"
	opv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	"github.com/pkg/errors"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

const metallbOperatorDeployment = "metallb-operator-controller-manager"

var (
	metalLBResource = schema.GroupVersionResource{
		Group: "metallb.io", Version: "v1beta1", Resource: "metallbs"}
	ipAddressPoolResource = schema.GroupVersionResource{
		Group: "metallb.io", Version: "v1beta1", Resource: "ipaddresspools"}
	l2AdvertisementResource = schema.GroupVersionResource{
		Group: "metallb.io", Version: "v1beta1", Resource: "l2advertisements"}
)

// InstallMetalLBOperator subscribes the MetalLB operator from the
// redhat-operators catalog and creates the MetalLB instance running the
// controller and speakers.
func (d *Deployer) InstallMetalLBOperator() error {
	err := d.CreateNamespace(ocscommon.MetalLBNamespace)
	if err != nil {
		return err
	}
	operatorGroup := &opv1.OperatorGroup{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "metallb-operatorgroup",
			Namespace: ocscommon.MetalLBNamespace,
		},
		Spec: opv1.OperatorGroupSpec{
			TargetNamespaces: []string{ocscommon.MetalLBNamespace},
		},
	}
	subscription := &opv1alpha1.Subscription{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "metallb-operator-subscription",
			Namespace: ocscommon.MetalLBNamespace,
		},
		Spec: &opv1alpha1.SubscriptionSpec{
			Channel:                "stable",
			Package:                "metallb-operator",
			CatalogSource:          "redhat-operators",
			CatalogSourceNamespace: ocscommon.MarketplaceNamespace,
			InstallPlanApproval:    opv1alpha1.ApprovalAutomatic,
		},
	}
	for _, object := range []client.Object{operatorGroup, subscription} {
		d.Log.Info().Msgf("creating %T '%s'", object, object.GetName())
		err = d.Client.Create(d.Context, object)
		if err != nil && !apierrors.IsAlreadyExists(err) {
			return errors.Wrapf(err, "failed to create %T '%s'", object, object.GetName())
		}
	}

	sampler := ocscommon.NewSampler(d.Log, 15*time.Second, d.Config.Timeout(10*time.Minute))
	err = sampler.WaitForCondition(d.Context, "metallb operator readiness", func() (bool, error) {
		deployment, err := d.KubeClient.AppsV1().Deployments(ocscommon.MetalLBNamespace).Get(
			d.Context, metallbOperatorDeployment, metav1.GetOptions{})
		if err != nil {
			if !apierrors.IsNotFound(err) {
				d.Log.Error().Err(err).Msgf("failed to get deployment '%s'", metallbOperatorDeployment)
			}
			return false, nil
		}
		return ocscommon.IsDeploymentReady(deployment), nil
	})
	if err != nil {
		return err
	}

	metallb := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "metallb.io/v1beta1",
		"kind":       "MetalLB",
		"metadata": map[string]interface{}{
			"name":      "metallb",
			"namespace": ocscommon.MetalLBNamespace,
		},
	}}
	d.Log.Info().Msg("creating MetalLB instance")
	_, err = d.DynamicClient.Resource(metalLBResource).Namespace(ocscommon.MetalLBNamespace).Create(
		d.Context, metallb, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrap(err, "failed to create MetalLB instance")
	}
	return sampler.WaitForCondition(d.Context, "metallb controller readiness", func() (bool, error) {
		deployment, err := d.KubeClient.AppsV1().Deployments(ocscommon.MetalLBNamespace).Get(
			d.Context, "controller", metav1.GetOptions{})
		if err != nil {
			if !apierrors.IsNotFound(err) {
				d.Log.Error().Err(err).Msg("failed to get metallb controller deployment")
			}
			return false, nil
		}
		return ocscommon.IsDeploymentReady(deployment), nil
	})
}

// ConfigureMetalLB sets up an L2 address pool so LoadBalancer services
// (s3 endpoints exposed outside the cluster) get an address on
// bare-metal clusters.
func (d *Deployer) ConfigureMetalLB(addressRange string) error {
	if addressRange == "" {
		return errors.New("metallb address range is not set")
	}
	err := d.InstallMetalLBOperator()
	if err != nil {
		return errors.Wrap(err, "failed to install metallb operator")
	}
	pool := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "metallb.io/v1beta1",
		"kind":       "IPAddressPool",
		"metadata": map[string]interface{}{
			"name":      "ocs-address-pool",
			"namespace": ocscommon.MetalLBNamespace,
		},
		"spec": map[string]interface{}{
			"addresses": []interface{}{addressRange},
		},
	}}
	d.Log.Info().Msgf("creating IPAddressPool '%s' with range '%s'", pool.GetName(), addressRange)
	_, err = d.DynamicClient.Resource(ipAddressPoolResource).Namespace(ocscommon.MetalLBNamespace).Create(
		d.Context, pool, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrap(err, "failed to create IPAddressPool")
	}

	advertisement := &unstructured.Unstructured{Object: map[string]interface{}{
		"apiVersion": "metallb.io/v1beta1",
		"kind":       "L2Advertisement",
		"metadata": map[string]interface{}{
			"name":      "ocs-l2-advertisement",
			"namespace": ocscommon.MetalLBNamespace,
		},
		"spec": map[string]interface{}{
			"ipAddressPools": []interface{}{"ocs-address-pool"},
		},
	}}
	d.Log.Info().Msgf("creating L2Advertisement '%s'", advertisement.GetName())
	_, err = d.DynamicClient.Resource(l2AdvertisementResource).Namespace(ocscommon.MetalLBNamespace).Create(
		d.Context, advertisement, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrap(err, "failed to create L2Advertisement")
	}
	return nil
}
