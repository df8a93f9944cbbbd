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
	"testing"

	"github.com/stretchr/testify/assert"
	v1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/rest"

	faketestclients "github.com/red-hat-storage/ocs-ci/test/unit/clients"
)

func readyToolboxPod(node string) v1.Pod {
	return v1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "rook-ceph-tools-0",
			Namespace: StorageNamespace,
			Labels:    map[string]string{"app": "rook-ceph-tools"},
		},
		Spec: v1.PodSpec{
			NodeName:   node,
			Containers: []v1.Container{{Name: "rook-ceph-tools"}},
		},
		Status: v1.PodStatus{
			Phase: v1.PodRunning,
			Conditions: []v1.PodCondition{
				{Type: v1.PodReady, Status: v1.ConditionTrue},
			},
			ContainerStatuses: []v1.ContainerStatus{
				{Name: "rook-ceph-tools", Ready: true},
			},
		},
	}
}

func TestRunPodCmdAndCheckError(t *testing.T) {
	kubeClient := faketestclients.GetFakeKubeclient()
	fakeRestConfig := &rest.Config{}
	notReadyPod := readyToolboxPod("")
	notReadyPod.Status.ContainerStatuses[0].Ready = false
	tests := []struct {
		name           string
		execConfig     ExecConfig
		podList        *v1.PodList
		expectedError  string
		expectedStdout string
		expectedStdErr string
	}{
		{
			name:          "no command provided",
			execConfig:    ExecConfig{KubeClient: kubeClient},
			expectedError: "command is not specified",
		},
		{
			name:          "no rest config provided",
			execConfig:    ExecConfig{KubeClient: kubeClient, Command: "ceph status"},
			expectedError: "rest config is not specified",
		},
		{
			name: "failed to list pods",
			execConfig: ExecConfig{
				KubeClient: kubeClient,
				RestConfig: fakeRestConfig,
				Command:    "ceph status",
			},
			expectedError: "failed to find pod to run command: failed to list pods matching '' in namespace 'openshift-storage': failed to list pods",
		},
		{
			name: "no pods match the selector",
			execConfig: ExecConfig{
				KubeClient: kubeClient,
				RestConfig: fakeRestConfig,
				Command:    "ceph status",
				PodLabels:  []string{RookToolBoxLabel},
			},
			podList:       &v1.PodList{},
			expectedError: "failed to find pod to run command: no running ready pod matching 'app=rook-ceph-tools' in namespace 'openshift-storage'",
		},
		{
			name: "pod container is not ready",
			execConfig: ExecConfig{
				KubeClient: kubeClient,
				RestConfig: fakeRestConfig,
				Command:    "ceph status",
				PodLabels:  []string{RookToolBoxLabel},
			},
			podList:       &v1.PodList{Items: []v1.Pod{notReadyPod}},
			expectedError: "failed to find pod to run command: no running ready pod matching 'app=rook-ceph-tools' in namespace 'openshift-storage'",
		},
		{
			name: "run ok with node selector",
			execConfig: ExecConfig{
				KubeClient: kubeClient,
				RestConfig: fakeRestConfig,
				Command:    "ceph status",
				PodLabels:  []string{RookToolBoxLabel},
				NodeName:   "worker-0",
			},
			podList:        &v1.PodList{Items: []v1.Pod{readyToolboxPod("worker-0")}},
			expectedStdout: "stdout",
			expectedStdErr: "stderr",
		},
	}
	oldFunc := RunPodCommand
	RunPodCommand = func(_ ExecConfig) (string, string, error) {
		return "stdout", "stderr", nil
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			res := map[string]runtime.Object{}
			if test.podList != nil {
				res["pods"] = test.podList
			}
			faketestclients.FakeReaction(test.execConfig.KubeClient.CoreV1(), "list", []string{"pods"}, res, nil)

			stdOut, stdErr, err := RunPodCmdAndCheckError(test.execConfig)
			if test.expectedError != "" {
				assert.NotNil(t, err)
				assert.Equal(t, test.expectedError, err.Error())
			} else {
				assert.Nil(t, err)
			}
			assert.Equal(t, test.expectedStdout, stdOut)
			assert.Equal(t, test.expectedStdErr, stdErr)

			faketestclients.CleanupFakeClientReactions(test.execConfig.KubeClient.CoreV1())
		})
	}
	RunPodCommand = oldFunc
}

func TestSplitCommand(t *testing.T) {
	assert.Equal(t,
		[]string{"ceph", "--connect-timeout", "15", "status", "--format", "json"},
		splitCommand("ceph status --format json"))
	assert.Equal(t,
		[]string{"radosgw-admin", "bucket", "stats"},
		splitCommand("radosgw-admin bucket stats"))
}
