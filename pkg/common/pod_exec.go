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
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/remotecommand"
)

// RunPodCommand is a variable so unit tests can stub out the SPDY
// transport.
var RunPodCommand = runPodCommand

// ExecConfig describes a command to run inside a cluster pod. When Pod
// is nil the first running ready pod matching PodLabels (and NodeName
// when set) is picked.
type ExecConfig struct {
	Context       context.Context
	KubeClient    kubernetes.Interface
	RestConfig    *rest.Config
	Pod           *corev1.Pod
	Namespace     string
	Command       string
	ContainerName string
	NodeName      string
	PodLabels     []string
}

// RunPodCmdAndCheckError resolves the target pod, runs the command and
// folds stderr into the returned error.
func RunPodCmdAndCheckError(e ExecConfig) (string, string, error) {
	err := e.validate()
	if err != nil {
		return "", "", err
	}
	stdOut, stdErr, err := RunPodCommand(e)
	if err != nil {
		msg := fmt.Sprintf("failed to run command '%s' in pod '%s'", e.Command, e.Pod.Name)
		if stdErr != "" {
			msg = fmt.Sprintf("%s (stderr: %s)", msg, strings.TrimSpace(stdErr))
		}
		return stdOut, stdErr, errors.Wrap(err, msg)
	}
	return stdOut, stdErr, nil
}

func (e *ExecConfig) validate() error {
	if e.Command == "" {
		return errors.New("command is not specified")
	}
	if e.RestConfig == nil {
		return errors.New("rest config is not specified")
	}
	if e.Namespace == "" {
		e.Namespace = StorageNamespace
	}
	if e.Pod == nil {
		pod, err := e.findPod()
		if err != nil {
			return errors.Wrap(err, "failed to find pod to run command")
		}
		e.Pod = pod
	}
	return nil
}

func (e *ExecConfig) findPod() (*corev1.Pod, error) {
	listOptions := metav1.ListOptions{LabelSelector: strings.Join(e.PodLabels, ",")}
	if e.NodeName != "" {
		listOptions.FieldSelector = "spec.nodeName=" + e.NodeName
	}
	podList, err := e.KubeClient.CoreV1().Pods(e.Namespace).List(e.Context, listOptions)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list pods matching '%s' in namespace '%s'",
			listOptions.LabelSelector, e.Namespace)
	}
	for idx := range podList.Items {
		pod := &podList.Items[idx]
		if pod.Status.Phase != corev1.PodRunning || !isPodReady(pod) {
			continue
		}
		if e.ContainerName == "" && len(pod.Spec.Containers) > 0 {
			e.ContainerName = pod.Spec.Containers[0].Name
		}
		for _, containerStatus := range pod.Status.ContainerStatuses {
			if containerStatus.Name == e.ContainerName && containerStatus.Ready {
				return pod, nil
			}
		}
	}
	return nil, errors.Errorf("no running ready pod matching '%s' in namespace '%s'",
		listOptions.LabelSelector, e.Namespace)
}

func isPodReady(pod *corev1.Pod) bool {
	for _, condition := range pod.Status.Conditions {
		if condition.Type == corev1.PodReady {
			return condition.Status == corev1.ConditionTrue
		}
	}
	return false
}

// splitCommand turns the command line into argv, forcing a connect
// timeout on ceph calls so a hung mon does not stall the whole poll
// loop.
func splitCommand(command string) []string {
	args := strings.Fields(command)
	if args[0] == "ceph" {
		timeoutArgs := []string{"ceph", "--connect-timeout", fmt.Sprintf("%d", RunCephCommandTimeout)}
		return append(timeoutArgs, args[1:]...)
	}
	return args
}

func runPodCommand(e ExecConfig) (string, string, error) {
	req := e.KubeClient.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(e.Pod.Name).
		Namespace(e.Pod.Namespace).
		SubResource("exec")
	req.VersionedParams(&corev1.PodExecOptions{
		Command:   splitCommand(e.Command),
		Container: e.ContainerName,
		Stdin:     false,
		Stdout:    true,
		Stderr:    true,
		TTY:       false,
	}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(e.RestConfig, "POST", req.URL())
	if err != nil {
		return "", "", errors.Wrap(err, "failed to create executor")
	}
	var stdout, stderr bytes.Buffer
	err = exec.StreamWithContext(e.Context, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		err = errors.Wrap(err, "failed to stream command")
	}
	return stdout.String(), stderr.String(), err
}
