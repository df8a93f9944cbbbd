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

package ocscommon

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

func IsCephToolboxCLIAvailable(ctx context.Context, kubeClient kubernetes.Interface, namespace string) bool {
	cephToolBox, err := kubeClient.AppsV1().Deployments(namespace).Get(ctx, RookToolBoxName, metav1.GetOptions{})
	if err != nil {
		return false
	}
	return IsDeploymentReady(cephToolBox)
}

// RunCephToolboxCLI runs a ceph/rados/radosgw-admin command inside the
// rook-ceph-tools pod and returns its stdout.
func RunCephToolboxCLI(ctx context.Context, kubeClient kubernetes.Interface, config *rest.Config, namespace, command string) (string, error) {
	e := ExecConfig{
		Context:    ctx,
		KubeClient: kubeClient,
		RestConfig: config,
		Namespace:  namespace,
		Command:    command,
		PodLabels:  []string{RookToolBoxLabel},
	}
	output, _, err := RunPodCmdAndCheckError(e)
	if err != nil {
		return output, err
	}
	return output, nil
}

func RunAndParseCephToolboxCLI(ctx context.Context, kubeClient kubernetes.Interface, config *rest.Config, namespace, command string, data any) error {
	output, err := RunCephToolboxCLI(ctx, kubeClient, config, namespace, command)
	if err != nil {
		return err
	}
	err = json.Unmarshal([]byte(output), data)
	if err != nil {
		return errors.Wrapf(err, "failed to parse output for command '%s'", command)
	}
	return nil
}

// RunNooBaaCLI runs the noobaa CLI bundled in the noobaa operator pod.
func RunNooBaaCLI(ctx context.Context, kubeClient kubernetes.Interface, config *rest.Config, namespace, command string) (string, error) {
	e := ExecConfig{
		Context:    ctx,
		KubeClient: kubeClient,
		RestConfig: config,
		Namespace:  namespace,
		Command:    command,
		PodLabels:  []string{fmt.Sprintf("app=%s", NooBaaOperatorName)},
	}
	output, _, err := RunPodCmdAndCheckError(e)
	if err != nil {
		return output, err
	}
	return output, nil
}

// RunOcCommand shells out to the oc binary on the host running the
// framework. Used only for operations with no practical API equivalent,
// node drain being the main one.
func RunOcCommand(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "oc", args...)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		msg := fmt.Sprintf("failed to run 'oc %s'", strings.Join(args, " "))
		if stderr.Len() > 0 {
			msg = fmt.Sprintf("%s (stderr: %s)", msg, strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), errors.Wrap(err, msg)
	}
	return stdout.String(), nil
}
