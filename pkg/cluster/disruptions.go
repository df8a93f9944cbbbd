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

package cluster

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

// KillDaemonPod deletes one pod of the given ceph daemon type and
// returns the victim name. Daemon types map to the rook app labels.
func (c *Cluster) KillDaemonPod(daemonType string) (string, error) {
	label, known := ocscommon.CephDaemonLabels[daemonType]
	if !known {
		return "", errors.Errorf("unknown ceph daemon type '%s'", daemonType)
	}
	pods, err := c.KubeClient.CoreV1().Pods(c.Config.StorageNamespace).List(c.Context, metav1.ListOptions{
		LabelSelector: label,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to list '%s' pods", daemonType)
	}
	if len(pods.Items) == 0 {
		return "", errors.Errorf("no '%s' pods found in namespace '%s'", daemonType, c.Config.StorageNamespace)
	}
	victim := pods.Items[0].Name
	c.Log.Info().Msgf("deleting %s pod '%s'", daemonType, victim)
	err = c.KubeClient.CoreV1().Pods(c.Config.StorageNamespace).Delete(c.Context, victim, metav1.DeleteOptions{})
	if err != nil {
		return "", errors.Wrapf(err, "failed to delete pod '%s'", victim)
	}
	return victim, nil
}

// WaitForDaemonRespawn waits until the daemon has the expected number
// of running pods again and the old victim is gone.
func (c *Cluster) WaitForDaemonRespawn(daemonType, victim string, expectedCount int) error {
	label := ocscommon.CephDaemonLabels[daemonType]
	sampler := c.sampler(10*time.Second, 10*time.Minute)
	desc := fmt.Sprintf("respawn of %s pod after '%s' removal", daemonType, victim)
	return sampler.WaitForCondition(c.Context, desc, func() (bool, error) {
		pods, err := c.KubeClient.CoreV1().Pods(c.Config.StorageNamespace).List(c.Context, metav1.ListOptions{
			LabelSelector: label,
		})
		if err != nil {
			c.Log.Error().Err(err).Msgf("failed to list '%s' pods", daemonType)
			return false, nil
		}
		running := 0
		for _, pod := range pods.Items {
			if pod.Name == victim {
				return false, nil
			}
			if pod.Status.Phase == corev1.PodRunning {
				running++
			}
		}
		if running < expectedCount {
			c.Log.Info().Msgf("%d/%d '%s' pods are running", running, expectedCount, daemonType)
			return false, nil
		}
		return true, nil
	})
}

// ScaleOperator scales the given operator deployment, used to freeze
// reconciliation while disturbing resources underneath it.
func (c *Cluster) ScaleOperator(deploymentName string, replicas int32) error {
	return ocscommon.ScaleDeployment(c.Context, c.KubeClient, deploymentName,
		c.Config.StorageNamespace, replicas)
}

// RestartDeployment rolls the pods of a deployment and waits for the
// rollout to finish.
func (c *Cluster) RestartDeployment(deploymentName string) error {
	return ocscommon.RestartDeployment(c.Context, c.Log, c.KubeClient,
		deploymentName, c.Config.StorageNamespace)
}

// CordonNode marks the node unschedulable.
func (c *Cluster) CordonNode(nodeName string) error {
	return c.setNodeSchedulable(nodeName, false)
}

// UncordonNode makes the node schedulable again.
func (c *Cluster) UncordonNode(nodeName string) error {
	return c.setNodeSchedulable(nodeName, true)
}

func (c *Cluster) setNodeSchedulable(nodeName string, schedulable bool) error {
	node, err := c.KubeClient.CoreV1().Nodes().Get(c.Context, nodeName, metav1.GetOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to get node '%s'", nodeName)
	}
	if node.Spec.Unschedulable == !schedulable {
		return nil
	}
	node.Spec.Unschedulable = !schedulable
	c.Log.Info().Msgf("setting node '%s' unschedulable=%t", nodeName, !schedulable)
	_, err = c.KubeClient.CoreV1().Nodes().Update(c.Context, node, metav1.UpdateOptions{})
	if err != nil {
		return errors.Wrapf(err, "failed to update node '%s'", nodeName)
	}
	return nil
}

// DrainNode evicts all pods from the node with the oc binary. Eviction
// ordering and daemonset handling have no practical client-go
// equivalent.
func (c *Cluster) DrainNode(nodeName string) error {
	c.Log.Info().Msgf("draining node '%s'", nodeName)
	_, err := ocscommon.RunOcCommand(c.Context, "adm", "drain", nodeName,
		"--ignore-daemonsets", "--delete-emptydir-data", "--force")
	if err != nil {
		return errors.Wrapf(err, "failed to drain node '%s'", nodeName)
	}
	return nil
}

// WaitForNodeReady waits for the node Ready condition, used after
// reboots and uncordons.
func (c *Cluster) WaitForNodeReady(nodeName string) error {
	sampler := c.sampler(15*time.Second, 15*time.Minute)
	return sampler.WaitForCondition(c.Context, "node '"+nodeName+"' readiness", func() (bool, error) {
		node, err := c.KubeClient.CoreV1().Nodes().Get(c.Context, nodeName, metav1.GetOptions{})
		if err != nil {
			if apierrors.IsNotFound(err) {
				return false, nil
			}
			c.Log.Error().Err(err).Msgf("failed to get node '%s'", nodeName)
			return false, nil
		}
		if node.Spec.Unschedulable {
			return false, nil
		}
		for _, condition := range node.Status.Conditions {
			if condition.Type == corev1.NodeReady {
				return condition.Status == corev1.ConditionTrue, nil
			}
		}
		return false, nil
	})
}
