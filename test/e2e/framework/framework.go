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

package framework

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"testing"
	"time"

	claimclient "github.com/kube-object-storage/lib-bucket-provisioner/pkg/client/clientset/versioned"
	snapv1 "github.com/kubernetes-csi/external-snapshotter/client/v6/apis/volumesnapshot/v1"
	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	routev1 "github.com/openshift/api/route/v1"
	opv1 "github.com/operator-framework/api/pkg/operators/v1"
	opv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	"github.com/pkg/errors"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v4/v1"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
	rookclient "github.com/rook/rook/pkg/client/clientset/versioned"
	"github.com/rs/zerolog"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	k8sscheme "k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/red-hat-storage/ocs-ci/pkg/cluster"
	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
	"github.com/red-hat-storage/ocs-ci/pkg/deploy"
	"github.com/red-hat-storage/ocs-ci/pkg/mcg"
	"github.com/red-hat-storage/ocs-ci/pkg/rgw"
)

// name of the optional configmap carrying run parameters
const RunConfigMapName = "ocs-ci-run-config"

var (
	TF         Framework
	StepNumber int
)

type Framework struct {
	ManagedCluster       *ManagedConfig
	InitialClusterState  *ClusterState
	PreviousClusterState *ClusterState
	TestConfig           *TestConfig
	Log                  zerolog.Logger
}

type ManagedConfig struct {
	Context        context.Context
	Client         client.Client
	DynamicClient  dynamic.Interface
	KubeClient     *kubernetes.Clientset
	RookClientset  *rookclient.Clientset
	ClaimClientset *claimclient.Clientset
	KubeConfig     *rest.Config
	RunConfig      ocsconfig.RunConfig
}

func newScheme() (*runtime.Scheme, error) {
	scheme := runtime.NewScheme()
	builders := []func(*runtime.Scheme) error{
		k8sscheme.AddToScheme,
		cephv1.AddToScheme,
		nbv1.SchemeBuilder.AddToScheme,
		ocsv1.AddToScheme,
		snapv1.AddToScheme,
		opv1.AddToScheme,
		opv1alpha1.AddToScheme,
		routev1.Install,
	}
	for _, addTo := range builders {
		err := addTo(scheme)
		if err != nil {
			return nil, errors.Wrap(err, "failed to build client scheme")
		}
	}
	return scheme, nil
}

func NewManagedCluster(log zerolog.Logger, config *rest.Config) (*ManagedConfig, error) {
	managedCluster := &ManagedConfig{
		Context: context.Background(),
	}
	var err error

	managedCluster.KubeConfig = config
	managedCluster.KubeClient, err = kubernetes.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create kubernetes client from kubeconfig")
	}

	scheme, err := newScheme()
	if err != nil {
		return nil, err
	}
	crClient, err := client.New(config, client.Options{Scheme: scheme})
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create controller-runtime client from kubeconfig")
	}
	managedCluster.Client = crClient
	managedCluster.DynamicClient, err = dynamic.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create dynamic client from kubeconfig")
	}
	managedCluster.RookClientset, err = rookclient.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create rook clientset from kubeconfig")
	}
	managedCluster.ClaimClientset, err = claimclient.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot create bucket claim clientset from kubeconfig")
	}

	runConfigData := map[string]string{}
	cm, cmErr := managedCluster.KubeClient.CoreV1().ConfigMaps(ocscommon.StorageNamespace).Get(
		managedCluster.Context, RunConfigMapName, metav1.GetOptions{})
	if cmErr != nil {
		if !apierrors.IsNotFound(cmErr) {
			return nil, errors.Wrapf(cmErr, "Cannot get ConfigMap %s from kubeconfig", RunConfigMapName)
		}
	} else {
		runConfigData = cm.Data
	}
	managedCluster.RunConfig = ocsconfig.ReadConfiguration(log, runConfigData)

	return managedCluster, nil
}

// Deployer builds a deployment driver bound to the managed cluster.
func (mc *ManagedConfig) Deployer() *deploy.Deployer {
	return deploy.NewDeployer(mc.Context, TF.Log, mc.RunConfig,
		mc.KubeClient, mc.Client, mc.DynamicClient, mc.RookClientset, mc.KubeConfig)
}

// MCG builds a multicloud object gateway handle bound to the managed
// cluster.
func (mc *ManagedConfig) MCG() *mcg.MCG {
	return mcg.NewMCG(mc.Context, TF.Log, mc.RunConfig,
		mc.KubeClient, mc.Client, mc.ClaimClientset, mc.KubeConfig)
}

// RGW builds a ceph object gateway handle bound to the managed cluster.
func (mc *ManagedConfig) RGW() *rgw.RGW {
	return rgw.NewRGW(mc.Context, TF.Log, mc.RunConfig,
		mc.KubeClient, mc.RookClientset, mc.KubeConfig)
}

// Cluster builds a health/disruption handle bound to the managed
// cluster.
func (mc *ManagedConfig) Cluster() *cluster.Cluster {
	return cluster.NewCluster(mc.Context, TF.Log, mc.RunConfig,
		mc.KubeClient, mc.RookClientset, mc.KubeConfig)
}

func Setup(fc *TestConfig) error {
	f, err := setupFramework(fc)
	if err != nil {
		return errors.Wrapf(err, "failed to set test environment")
	}
	TF = *f
	if fc.Settings.SkipStoreState {
		return nil
	}
	TF.InitialClusterState, err = NewClusterState()
	if err != nil {
		return errors.Wrap(err, "Cannot save current storage cluster state as backup")
	}
	TF.InitialClusterState.CopyState(TF.PreviousClusterState)
	return nil
}

func setupFramework(fc *TestConfig) (*Framework, error) {
	f := &Framework{
		ManagedCluster:       &ManagedConfig{Context: context.Background()},
		InitialClusterState:  &ClusterState{},
		PreviousClusterState: &ClusterState{},
	}
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	f.Log = ocscommon.InitLogger()

	f.TestConfig = fc

	kubeconfig := os.Getenv("KUBECONFIG")
	if fc.Settings.KubeconfigFile != "" {
		kubeconfig = fc.Settings.KubeconfigFile
	} else if fc.Settings.KubeconfigURL != "" {
		err := GetKubeconfig(fc.Settings.KubeconfigURL, "../e2e_kubeconfig")
		if err != nil {
			return nil, errors.Wrap(err, "failed to get cluster kubeconfig from provided in test config url")
		}
		kubeconfig = "../e2e_kubeconfig"
	}
	if kubeconfig == "" {
		return nil, errors.New("Empty KUBECONFIG env var")
	}
	if !path.IsAbs(kubeconfig) {
		kubeconfig, _ = filepath.Abs(kubeconfig)
	}

	config, err := clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot build kube from kubeconfig")
	}

	managedCluster, err := NewManagedCluster(f.Log, config)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot initialize managed cluster clients")
	}
	f.ManagedCluster = managedCluster
	return f, nil
}

func Teardown() error {
	state := TF.InitialClusterState
	err := state.RestoreStoredState()
	if err != nil {
		errMsg := fmt.Sprintf("Teardown failed: failed to restore initial cluster state: %v", err)
		TF.Log.Error().Err(err).Msg("")
		if state.ExportDir != "" {
			err := state.ExportStoreState(state.ExportDir)
			if err != nil {
				println(fmt.Sprintf("failed to export state to file: %v", err))
				println("printing state inline:")
				stateJSON, convErr := state.ConvertStateToJSON()
				if convErr == nil {
					println(fmt.Sprintf("%v", string(stateJSON)))
				}
			}
		} else {
			println("printing state inline:")
			stateJSON, convErr := state.ConvertStateToJSON()
			if convErr == nil {
				println(fmt.Sprintf("%v", string(stateJSON)))
			}
		}
		return errors.New(errMsg)
	}
	return nil
}

func BaseSetup(t *testing.T) error {
	t.Log("Setup started..")
	fc, err := GetFrameworkConfig()
	if err != nil {
		return errors.Wrap(err, "failed to get test config")
	}
	if !fc.CaseEnabled(t.Name()) {
		t.Logf("%s not in test cases list", t.Name())
		t.SkipNow()
	}
	err = Setup(fc)
	if err != nil {
		t.Logf("Setup failed: %v", err)
		return err
	}
	t.Log("Setup successfully done")
	return nil
}

func SetupTeardown(t *testing.T) func() {
	StepNumber = 0
	err := BaseSetup(t)
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		StepNumber = 0
		if TF.TestConfig.Settings.KeepAfter {
			t.Log("Teardown skipped due to keepAfter flag enabled")
			return
		}

		t.Log("Teardown started..")
		err = Teardown()
		if err != nil {
			t.Logf("Teardown failed: %v", err)
			t.Fatal(err)
		}
		t.Log("Teardown successfully done")
	}
}

func SetupWithCustomTeardown(t *testing.T, customTeardown func() error) func() {
	StepNumber = 0
	err := BaseSetup(t)
	if err != nil {
		t.Fatal(err)
	}
	return func() {
		StepNumber = 0
		if TF.TestConfig.Settings.KeepAfter {
			t.Log("Teardown skipped due to keepAfter flag enabled")
			return
		}

		t.Log("Teardown started..")
		errs := make([]string, 0)
		err = customTeardown()
		if err != nil {
			errs = append(errs, fmt.Sprintf("Custom teardown function failed: %v", err))
		}
		err = Teardown()
		if err != nil {
			errs = append(errs, fmt.Sprintf("Teardown failed: %v", err))
		}
		if len(errs) > 0 {
			t.Fatalf("%v", errs)
		}
		t.Log("Teardown successfully done")
	}
}

func GetKubeconfig(url, fileName string) error {
	r, err := http.Get(url)
	if err != nil {
		return errors.Wrapf(err, "failed to get kubeconfig by URL: %v", url)
	}
	defer r.Body.Close()
	content, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.Wrap(err, "failed to parse kubeconfig URL body")
	}
	err = os.WriteFile(fileName, content, 0666)
	if err != nil {
		return errors.Wrapf(err, "failed to write kubeconfig to %v", fileName)
	}
	return nil
}

// TestNamespace is the namespace test objects like bucket claims are
// created in.
func TestNamespace() string {
	if TF.TestConfig.Settings.Namespace != "" {
		return TF.TestConfig.Settings.Namespace
	}
	return "default"
}

func Step(t *testing.T, msg string, args ...interface{}) {
	StepNumber++
	if len(args) > 0 {
		t.Logf("%v ## Step %d - %v", time.Now().UTC().String(), StepNumber, fmt.Sprintf(msg, args...))
	} else {
		t.Logf("%v ## Step %d - %v", time.Now().UTC().String(), StepNumber, msg)
	}
}
