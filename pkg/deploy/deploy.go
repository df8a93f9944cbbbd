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
	"context"

	"github.com/pkg/errors"
	rookclient "github.com/rook/rook/pkg/client/clientset/versioned"
	"github.com/rs/zerolog"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
)

// node label the ocs-operator schedules storage daemons by
const storageNodeLabel = "cluster.ocs.openshift.io/openshift-storage"

// Deployer drives an ODF installation end to end: OLM resources first,
// then the StorageCluster, then readiness of the ceph and noobaa stacks
// underneath it.
type Deployer struct {
	Context       context.Context
	Log           zerolog.Logger
	Config        ocsconfig.RunConfig
	KubeClient    kubernetes.Interface
	Client        client.Client
	DynamicClient dynamic.Interface
	RookClient    rookclient.Interface
	RestConfig    *rest.Config
}

func NewDeployer(ctx context.Context, log zerolog.Logger, config ocsconfig.RunConfig,
	kubeClient kubernetes.Interface, crClient client.Client, dynamicClient dynamic.Interface,
	rookClient rookclient.Interface, restConfig *rest.Config) *Deployer {
	return &Deployer{
		Context:       ctx,
		Log:           log,
		Config:        config,
		KubeClient:    kubeClient,
		Client:        crClient,
		DynamicClient: dynamicClient,
		RookClient:    rookClient,
		RestConfig:    restConfig,
	}
}

// Deploy runs the whole installation sequence for the configured cluster
// flavor and blocks until the storage cluster reports healthy.
func (d *Deployer) Deploy() error {
	d.Log.Info().Msgf("deploying ODF into namespace '%s'", d.Config.StorageNamespace)
	err := d.CreateNamespace(d.Config.StorageNamespace)
	if err != nil {
		return err
	}
	err = d.DeployOLMResources()
	if err != nil {
		return errors.Wrap(err, "failed to deploy OLM resources")
	}
	err = d.WaitForOperatorsReady()
	if err != nil {
		return errors.Wrap(err, "failed to wait for operators readiness")
	}
	if d.Config.LocalStorage {
		err = d.DeployLocalStorage()
		if err != nil {
			return errors.Wrap(err, "failed to deploy local storage")
		}
	}
	err = d.LabelStorageNodes()
	if err != nil {
		return errors.Wrap(err, "failed to label storage nodes")
	}
	err = d.CreateStorageCluster()
	if err != nil {
		return errors.Wrap(err, "failed to create StorageCluster")
	}
	err = d.WaitForStorageClusterReady()
	if err != nil {
		return errors.Wrap(err, "failed to wait for StorageCluster readiness")
	}
	err = d.WaitForCephClusterHealth()
	if err != nil {
		return errors.Wrap(err, "failed to wait for CephCluster health")
	}
	d.Log.Info().Msg("ODF deployment completed")
	return nil
}

func (d *Deployer) CreateNamespace(namespace string) error {
	ns := &corev1.Namespace{
		ObjectMeta: metav1.ObjectMeta{
			Name: namespace,
			Labels: map[string]string{
				// required for monitoring this namespace
				"openshift.io/cluster-monitoring": "true",
			},
		},
	}
	_, err := d.KubeClient.CoreV1().Namespaces().Create(d.Context, ns, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrapf(err, "failed to create namespace %s", namespace)
	}
	return nil
}

// LabelStorageNodes marks all schedulable worker nodes as storage nodes,
// the ocs-operator places ceph daemons only on labeled ones.
func (d *Deployer) LabelStorageNodes() error {
	nodes, err := d.KubeClient.CoreV1().Nodes().List(d.Context, metav1.ListOptions{
		LabelSelector: "node-role.kubernetes.io/worker",
	})
	if err != nil {
		return errors.Wrap(err, "failed to list worker nodes")
	}
	labeled := 0
	for idx := range nodes.Items {
		node := &nodes.Items[idx]
		if _, ok := node.Labels[storageNodeLabel]; ok {
			labeled++
			continue
		}
		node.Labels[storageNodeLabel] = ""
		_, err = d.KubeClient.CoreV1().Nodes().Update(d.Context, node, metav1.UpdateOptions{})
		if err != nil {
			return errors.Wrapf(err, "failed to label node %s", node.Name)
		}
		labeled++
	}
	if labeled < 3 {
		return errors.Errorf("not enough worker nodes for a storage cluster: labeled = %d, required = 3", labeled)
	}
	d.Log.Info().Msgf("labeled %d storage nodes", labeled)
	return nil
}
