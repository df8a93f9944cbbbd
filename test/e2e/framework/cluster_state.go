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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"time"

	nbv1 "github.com/noobaa/noobaa-operator/v5/pkg/apis/noobaa/v1alpha1"
	"github.com/pkg/errors"
	ocsv1 "github.com/red-hat-storage/ocs-operator/api/v4/v1"
	cephv1 "github.com/rook/rook/pkg/apis/ceph.rook.io/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/util/wait"
	"sigs.k8s.io/controller-runtime/pkg/client"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

type ClusterState struct {
	StorageCluster *ocsv1.StorageCluster
	CephCluster    *cephv1.CephCluster
	NooBaa         *nbv1.NooBaa
	ExportDir      string
}

func NewClusterState() (*ClusterState, error) {
	state := &ClusterState{}
	mc := TF.ManagedCluster

	storageCluster := &ocsv1.StorageCluster{}
	err := mc.Client.Get(mc.Context, client.ObjectKey{
		Name: ocscommon.DefaultStorageClusterName, Namespace: ocscommon.StorageNamespace}, storageCluster)
	if err != nil {
		if !apierrors.IsNotFound(err) {
			return nil, errors.Wrap(err, "failed to get StorageCluster for state snapshot")
		}
	} else {
		state.StorageCluster = storageCluster
	}

	cephCluster, err := mc.RookClientset.CephV1().CephClusters(ocscommon.StorageNamespace).Get(
		mc.Context, ocscommon.DefaultCephClusterName, metav1.GetOptions{})
	if err == nil {
		state.CephCluster = cephCluster
	}

	noobaa := &nbv1.NooBaa{}
	err = mc.Client.Get(mc.Context, client.ObjectKey{
		Name: ocscommon.DefaultNooBaaName, Namespace: ocscommon.StorageNamespace}, noobaa)
	if err == nil {
		state.NooBaa = noobaa
	}

	state.ExportDir = os.Getenv("EXPORT_DIR")
	return state, nil
}

func (s *ClusterState) CopyState(t *ClusterState) {
	if s.StorageCluster != nil {
		t.StorageCluster = s.StorageCluster.DeepCopy()
	}
	if s.CephCluster != nil {
		t.CephCluster = s.CephCluster.DeepCopy()
	}
	if s.NooBaa != nil {
		t.NooBaa = s.NooBaa.DeepCopy()
	}
	t.ExportDir = s.ExportDir
}

func (s *ClusterState) RestoreStoredState() error {
	TF.Log.Info().Msg("waiting for StorageCluster restored...")
	if s.StorageCluster == nil {
		TF.Log.Info().Msg("skipping StorageCluster restore since no previous version (looks like created in tests)")
		return nil
	}
	mc := TF.ManagedCluster
	restoreErr := wait.PollUntilContextTimeout(mc.Context, 5*time.Second, 3*time.Minute, true, func(_ context.Context) (bool, error) {
		current := &ocsv1.StorageCluster{}
		getErr := mc.Client.Get(mc.Context, client.ObjectKey{
			Name: s.StorageCluster.Name, Namespace: s.StorageCluster.Namespace}, current)
		if getErr != nil {
			if !apierrors.IsNotFound(getErr) {
				TF.Log.Error().Err(getErr).Msg("")
				return false, getErr
			}
			restored := s.StorageCluster.DeepCopy()
			restored.ResourceVersion = ""
			err := mc.Client.Create(mc.Context, restored)
			if err != nil {
				TF.Log.Error().Err(err).Msg("")
				return false, err
			}
		} else if !reflect.DeepEqual(current.Spec, s.StorageCluster.Spec) {
			ocscommon.ShowObjectDiff(TF.Log, current.Spec, s.StorageCluster.Spec)
			current.Spec = s.StorageCluster.Spec
			err := mc.Client.Update(mc.Context, current)
			if err != nil {
				TF.Log.Error().Err(err).Msg("")
				return false, err
			}
			return false, nil
		}
		return true, nil
	})
	if restoreErr != nil {
		return errors.Wrap(restoreErr, "unable to restore stored StorageCluster state")
	}
	err := mc.Deployer().WaitForStorageClusterReady()
	if err != nil {
		return errors.Wrap(err, "failed to wait for StorageCluster readiness")
	}
	return nil
}

func (s *ClusterState) ConvertStateToJSON() (state []byte, err error) {
	var out bytes.Buffer
	outputJSON := []interface{}{}
	if s.StorageCluster != nil {
		s.StorageCluster.Kind = "StorageCluster"
		s.StorageCluster.APIVersion = "ocs.openshift.io/v1"
		outputJSON = append(outputJSON, s.StorageCluster)
	}
	if s.CephCluster != nil {
		s.CephCluster.Kind = "CephCluster"
		s.CephCluster.APIVersion = "ceph.rook.io/v1"
		outputJSON = append(outputJSON, s.CephCluster)
	}
	if s.NooBaa != nil {
		s.NooBaa.Kind = "NooBaa"
		s.NooBaa.APIVersion = "noobaa.io/v1alpha1"
		outputJSON = append(outputJSON, s.NooBaa)
	}
	jsonData, err := json.Marshal(outputJSON)
	if err != nil {
		err = errors.Wrap(err, "failed to convert State objects to json data")
		return
	}
	err = json.Indent(&out, jsonData, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to convert State objects to pretty json data")
		return
	}
	state = out.Bytes()
	return
}

func (s *ClusterState) ExportStoreState(dirname string) error {
	if _, err := os.Stat(dirname); os.IsNotExist(err) {
		err := os.Mkdir(dirname, 0777)
		if err != nil {
			return errors.Wrapf(err, "failed to create export directory %s", dirname)
		}
	}

	fileName := fmt.Sprintf("%s/export-failed-%v.json", dirname, time.Now().Unix())
	newExportFile, err := os.Create(fileName)
	if err != nil {
		return errors.Wrapf(err, "failed to create new export file %s for failed tests", fileName)
	}

	stateJSON, err := s.ConvertStateToJSON()
	if err != nil {
		return err
	}
	_, err = newExportFile.Write(stateJSON)
	if err != nil {
		return errors.Wrapf(err, "failed to write to file %s for failed tests", fileName)
	}
	return nil
}
