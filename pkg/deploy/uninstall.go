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
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v4/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

const finalizerRemovalPatch = `[{"op": "replace", "path": "/metadata/finalizers", "value": null}]`

// Uninstall tears the ODF installation down in reverse order and leaves
// the namespace empty.
func (d *Deployer) Uninstall() error {
	d.Log.Info().Msgf("uninstalling ODF from namespace '%s'", d.Config.StorageNamespace)
	err := d.DeleteStorageClusterAndWait()
	if err != nil {
		return errors.Wrap(err, "failed to delete StorageCluster")
	}
	err = d.DeleteOLMResources()
	if err != nil {
		return errors.Wrap(err, "failed to delete OLM resources")
	}
	err = d.DeleteNamespaceAndWait(d.Config.StorageNamespace)
	if err != nil {
		return errors.Wrap(err, "failed to delete storage namespace")
	}
	d.Log.Info().Msg("ODF uninstall completed")
	return nil
}

// DeleteNamespaceAndWait removes the namespace and waits until it is
// fully terminated.
func (d *Deployer) DeleteNamespaceAndWait(namespace string) error {
	d.Log.Info().Msgf("deleting namespace '%s'", namespace)
	err := d.KubeClient.CoreV1().Namespaces().Delete(d.Context, namespace, metav1.DeleteOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to request namespace '%s' deletion", namespace)
	}
	sampler := ocscommon.NewSampler(d.Log, 10*time.Second, d.Config.Timeout(10*time.Minute))
	return sampler.WaitForCondition(d.Context, "namespace '"+namespace+"' removal", func() (bool, error) {
		_, err := d.KubeClient.CoreV1().Namespaces().Get(d.Context, namespace, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return true, nil
			}
			d.Log.Error().Err(err).Msgf("failed to get namespace '%s'", namespace)
		}
		return false, nil
	})
}

// DeleteStorageClusterAndWait deletes the StorageCluster and waits for
// it to disappear. If deletion stalls on finalizers past the grace
// period the finalizers are force-removed.
func (d *Deployer) DeleteStorageClusterAndWait() error {
	storageCluster := &ocsv1.StorageCluster{}
	err := d.Client.Get(d.Context, client.ObjectKey{
		Name: ocscommon.DefaultStorageClusterName, Namespace: d.Config.StorageNamespace}, storageCluster)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return nil
		}
		return errors.Wrap(err, "failed to get StorageCluster")
	}
	err = d.Client.Delete(d.Context, storageCluster)
	if err != nil && !apierrors.IsNotFound(err) {
		return errors.Wrap(err, "failed to request StorageCluster deletion")
	}

	deletionStarted := time.Now()
	forceGracePeriod := d.Config.Timeout(10 * time.Minute)
	sampler := ocscommon.NewSampler(d.Log, 15*time.Second, d.Config.Timeout(20*time.Minute))
	return sampler.WaitForCondition(d.Context, "StorageCluster removal", func() (bool, error) {
		current := &ocsv1.StorageCluster{}
		err := d.Client.Get(d.Context, client.ObjectKey{
			Name: ocscommon.DefaultStorageClusterName, Namespace: d.Config.StorageNamespace}, current)
		if err != nil {
			if apierrors.IsNotFound(err) {
				return true, nil
			}
			d.Log.Error().Err(err).Msg("failed to get StorageCluster")
			return false, nil
		}
		if len(current.GetFinalizers()) > 0 && time.Since(deletionStarted) > forceGracePeriod {
			d.Log.Warn().Msgf("StorageCluster deletion is stuck on finalizers %v, removing them", current.GetFinalizers())
			err = d.RemoveAllFinalizers(current)
			if err != nil {
				d.Log.Error().Err(err).Msg("failed to remove StorageCluster finalizers")
			}
		}
		return false, nil
	})
}

// RemoveAllFinalizers drops every finalizer from the object with a JSON
// patch, unblocking deletion of resources whose controller is gone.
func (d *Deployer) RemoveAllFinalizers(object client.Object) error {
	err := d.Client.Patch(d.Context, object, client.RawPatch(types.JSONPatchType, []byte(finalizerRemovalPatch)))
	if err != nil {
		return errors.Wrapf(err, "failed to patch finalizers of %T '%s'", object, object.GetName())
	}
	return nil
}

func (d *Deployer) DeleteOLMResources() error {
	for _, object := range d.generateOLMResources() {
		d.Log.Info().Msgf("deleting %T '%s'", object, object.GetName())
		err := d.Client.Delete(d.Context, object)
		if err != nil && !apierrors.IsNotFound(err) {
			return errors.Wrapf(err, "failed to delete %T '%s'", object, object.GetName())
		}
	}
	return nil
}
