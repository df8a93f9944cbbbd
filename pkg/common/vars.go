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

const (
	// main ODF install namespace
	StorageNamespace = "openshift-storage"
	// namespace OLM catalog sources live in
	MarketplaceNamespace = "openshift-marketplace"
	// namespace used by the local storage operator
	LocalStorageNamespace = "openshift-local-storage"
	// namespace used by the metallb operator
	MetalLBNamespace = "metallb-system"
	// operator deployment names
	OcsOperatorName    = "ocs-operator"
	RookOperatorName   = "rook-ceph-operator"
	NooBaaOperatorName = "noobaa-operator"
	NooBaaCoreName     = "noobaa-core"
	// rook-ceph toolbox, used for all ceph/radosgw-admin CLI calls
	RookToolBoxName  = "rook-ceph-tools"
	RookToolBoxLabel = "app=rook-ceph-tools"
	// default resource names created by the framework
	DefaultStorageClusterName = "ocs-storagecluster"
	DefaultCephClusterName    = "ocs-storagecluster-cephcluster"
	DefaultNooBaaName         = "noobaa"
	DefaultObjectStoreName    = "ocs-storagecluster-cephobjectstore"
	// storage classes installed with the default StorageCluster
	StorageClassRBD    = "ocs-storagecluster-ceph-rbd"
	StorageClassCephFS = "ocs-storagecluster-cephfs"
	StorageClassRGW    = "ocs-storagecluster-ceph-rgw"
	StorageClassMCG    = "openshift-storage.noobaa.io"
	// noobaa admin credentials and endpoint sources
	NooBaaAdminSecretName = "noobaa-admin"
	NooBaaMgmtRouteName   = "noobaa-mgmt"
	NooBaaS3RouteName     = "s3"
	RGWAdminOpsUserSecret = "rgw-admin-ops-user"
	// connect timeout passed to every ceph CLI call
	RunCephCommandTimeout = 15
	// DeploymentRestartAnnotation indicates timestamp when deployment restart was requested
	DeploymentRestartAnnotation = "ocs.openshift.io/restartedAt"
)

var (
	// labels of pods considered part of the ceph data path, used by
	// disruption helpers to pick victims
	CephDaemonLabels = map[string]string{
		"mon": "app=rook-ceph-mon",
		"mgr": "app=rook-ceph-mgr",
		"osd": "app=rook-ceph-osd",
		"mds": "app=rook-ceph-mds",
		"rgw": "app=rook-ceph-rgw",
	}
)
