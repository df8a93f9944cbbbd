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

package main

import (
	"context"
	"flag"
	"os"

	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	opv1 "github.com/operator-framework/api/pkg/operators/v1"
	opv1alpha1 "github.com/operator-framework/api/pkg/operators/v1alpha1"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v4/v1"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
	rookclient "github.com/rook/rook/pkg/client/clientset/versioned"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	k8sscheme "k8s.io/client-go/kubernetes/scheme"
	// Import all Kubernetes client auth plugins (e.g. Azure, GCP, OIDC, etc.)
	_ "k8s.io/client-go/plugin/pkg/client/auth"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/client/config"

	"github.com/red-hat-storage/ocs-ci/codeversion"
	"github.com/red-hat-storage/ocs-ci/pkg/cluster"
	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
	"github.com/red-hat-storage/ocs-ci/pkg/deploy"
)

// name of the optional configmap carrying run parameters
const runConfigMapName = "ocs-ci-run-config"

func main() {
	log := ocscommon.InitLogger()
	log.Info().Msg(codeversion.GetCodeVersion("ocs-ci"))
	log.Info().Msg(codeversion.GetGoRuntimeVersion())

	var action, metallbRange string
	flag.StringVar(&action, "action", "", "action to run: deploy, uninstall or health")
	flag.StringVar(&metallbRange, "metallb-range", "", "address range for the metallb pool, deploy only")
	flag.Parse()

	if action == "" {
		log.Fatal().Msg("argument 'action' is required, but not set")
		os.Exit(1)
	}

	// Get a config to talk to the apiserver
	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("")
		os.Exit(1)
	}

	ctx := context.Background()
	kubeClient, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("")
		os.Exit(1)
	}
	scheme := runtime.NewScheme()
	for _, addTo := range []func(*runtime.Scheme) error{
		k8sscheme.AddToScheme, cephv1.AddToScheme, nbv1.SchemeBuilder.AddToScheme,
		ocsv1.AddToScheme, opv1.AddToScheme, opv1alpha1.AddToScheme,
	} {
		if err := addTo(scheme); err != nil {
			log.Fatal().Err(err).Msg("")
			os.Exit(1)
		}
	}
	crClient, err := client.New(cfg, client.Options{Scheme: scheme})
	if err != nil {
		log.Fatal().Err(err).Msg("")
		os.Exit(1)
	}
	dynamicClient, err := dynamic.NewForConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("")
		os.Exit(1)
	}
	rookClient, err := rookclient.NewForConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("")
		os.Exit(1)
	}

	runConfigData := map[string]string{}
	cm, err := kubeClient.CoreV1().ConfigMaps(ocscommon.StorageNamespace).Get(ctx, runConfigMapName, metav1.GetOptions{})
	if err == nil {
		runConfigData = cm.Data
	} else if !apierrors.IsNotFound(err) {
		log.Fatal().Err(err).Msg("")
		os.Exit(1)
	}
	runConfig := ocsconfig.ReadConfiguration(log, runConfigData)
	log = log.Level(runConfig.LogLevel)

	deployer := deploy.NewDeployer(ctx, log, runConfig, kubeClient, crClient, dynamicClient, rookClient, cfg)

	switch action {
	case "deploy":
		err = deployer.Deploy()
		if err == nil && metallbRange != "" {
			err = deployer.ConfigureMetalLB(metallbRange)
		}
	case "uninstall":
		err = deployer.Uninstall()
	case "health":
		clusterHandle := cluster.NewCluster(ctx, log, runConfig, kubeClient, rookClient, cfg)
		var status *cluster.CephStatus
		status, err = clusterHandle.GetCephStatus()
		if err == nil {
			log.Info().Msgf("ceph health: %s, osds: %d/%d up, pgs: %d",
				status.Health.Status, status.OsdMap.NumUpOsds, status.OsdMap.NumOsds, status.PgMap.NumPgs)
			err = cluster.CheckCephHealth(status, nil)
		}
	default:
		log.Fatal().Msgf("unknown action '%s'", action)
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msgf("action '%s' failed", action)
		os.Exit(1)
	}
	log.Info().Msgf("action '%s' finished", action)
}
