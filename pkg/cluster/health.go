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

// Package cluster checks and disturbs the health of a running storage
// cluster: ceph status assertions, daemon pod kills, scale downs and
// node-level disruptions.
package cluster

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	rookclient "github.com/rook/rook/pkg/client/clientset/versioned"
	"github.com/rs/zerolog"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
	ocsconfig "github.com/red-hat-storage/ocs-ci/pkg/config"
)

// Cluster wraps health and disruption operations against a deployed
// storage cluster.
type Cluster struct {
	Context    context.Context
	Log        zerolog.Logger
	Config     ocsconfig.RunConfig
	KubeClient kubernetes.Interface
	RookClient rookclient.Interface
	RestConfig *rest.Config
}

func NewCluster(ctx context.Context, log zerolog.Logger, config ocsconfig.RunConfig,
	kubeClient kubernetes.Interface, rookClient rookclient.Interface, restConfig *rest.Config) *Cluster {
	return &Cluster{
		Context:    ctx,
		Log:        log,
		Config:     config,
		KubeClient: kubeClient,
		RookClient: rookClient,
		RestConfig: restConfig,
	}
}

func (c *Cluster) sampler(interval, timeout time.Duration) *ocscommon.Sampler {
	return ocscommon.NewSampler(c.Log, interval, c.Config.Timeout(timeout))
}

// CephHealthCheck is one entry of the ceph health checks map.
type CephHealthCheck struct {
	Severity string `json:"severity"`
	Summary  struct {
		Message string `json:"message"`
	} `json:"summary"`
}

// CephStatus is the subset of `ceph status --format json` the framework
// inspects.
type CephStatus struct {
	Health struct {
		Status string                     `json:"status"`
		Checks map[string]CephHealthCheck `json:"checks"`
	} `json:"health"`
	OsdMap struct {
		NumOsds   int `json:"num_osds"`
		NumUpOsds int `json:"num_up_osds"`
		NumInOsds int `json:"num_in_osds"`
	} `json:"osdmap"`
	PgMap struct {
		NumPgs     int `json:"num_pgs"`
		PgsByState []struct {
			StateName string `json:"state_name"`
			Count     int    `json:"count"`
		} `json:"pgs_by_state"`
		DataBytes  int64 `json:"data_bytes"`
		BytesUsed  int64 `json:"bytes_used"`
		BytesAvail int64 `json:"bytes_avail"`
	} `json:"pgmap"`
}

// GetCephStatus fetches ceph status through the toolbox.
func (c *Cluster) GetCephStatus() (*CephStatus, error) {
	status := &CephStatus{}
	err := ocscommon.RunAndParseCephToolboxCLI(c.Context, c.KubeClient, c.RestConfig,
		c.Config.StorageNamespace, "ceph status --format json", status)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ceph status")
	}
	return status, nil
}

// CephDf is the subset of `ceph df --format json` the framework
// inspects.
type CephDf struct {
	Stats struct {
		TotalBytes      int64 `json:"total_bytes"`
		TotalUsedBytes  int64 `json:"total_used_bytes"`
		TotalAvailBytes int64 `json:"total_avail_bytes"`
	} `json:"stats"`
	Pools []struct {
		Name  string `json:"name"`
		Stats struct {
			BytesUsed int64 `json:"bytes_used"`
			Objects   int64 `json:"objects"`
		} `json:"stats"`
	} `json:"pools"`
}

// GetCephDf fetches cluster and per-pool usage through the toolbox.
func (c *Cluster) GetCephDf() (*CephDf, error) {
	df := &CephDf{}
	err := ocscommon.RunAndParseCephToolboxCLI(c.Context, c.KubeClient, c.RestConfig,
		c.Config.StorageNamespace, "ceph df --format json", df)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ceph df")
	}
	return df, nil
}

type OsdTreeNode struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Status   string `json:"status,omitempty"`
	Children []int  `json:"children,omitempty"`
}

type OsdTree struct {
	Nodes []OsdTreeNode `json:"nodes"`
}

// GetOsdTree fetches the crush tree through the toolbox.
func (c *Cluster) GetOsdTree() (*OsdTree, error) {
	tree := &OsdTree{}
	err := ocscommon.RunAndParseCephToolboxCLI(c.Context, c.KubeClient, c.RestConfig,
		c.Config.StorageNamespace, "ceph osd tree --format json", tree)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get ceph osd tree")
	}
	return tree, nil
}

// CheckCephHealth inspects a ceph status and returns an error naming
// every health issue not in the ignore list. HEALTH_OK always passes.
func CheckCephHealth(status *CephStatus, issuesToIgnore []string) error {
	if status.Health.Status == "HEALTH_OK" {
		return nil
	}
	unexpected := []string{}
	for check := range status.Health.Checks {
		if !ocscommon.Contains(issuesToIgnore, check) {
			unexpected = append(unexpected, check)
		}
	}
	if len(unexpected) == 0 {
		return nil
	}
	sort.Strings(unexpected)
	return errors.Errorf("ceph health is %s with unexpected issues: %v",
		status.Health.Status, unexpected)
}

// WaitForHealthOK polls ceph status until health settles, tolerating
// the configured ignorable issues.
func (c *Cluster) WaitForHealthOK() error {
	sampler := c.sampler(30*time.Second, 15*time.Minute)
	return sampler.WaitForCondition(c.Context, "ceph health", func() (bool, error) {
		status, err := c.GetCephStatus()
		if err != nil {
			c.Log.Error().Err(err).Msg("failed to get ceph status")
			return false, nil
		}
		err = CheckCephHealth(status, c.Config.CephIssuesToIgnore)
		if err != nil {
			c.Log.Info().Msgf("%v", err)
			return false, nil
		}
		return true, nil
	})
}

// WaitForOsdsUp waits until all OSDs known to the cluster are up and
// in.
func (c *Cluster) WaitForOsdsUp() error {
	sampler := c.sampler(30*time.Second, 15*time.Minute)
	return sampler.WaitForCondition(c.Context, "all OSDs up and in", func() (bool, error) {
		status, err := c.GetCephStatus()
		if err != nil {
			c.Log.Error().Err(err).Msg("failed to get ceph status")
			return false, nil
		}
		if status.OsdMap.NumUpOsds < status.OsdMap.NumOsds || status.OsdMap.NumInOsds < status.OsdMap.NumOsds {
			c.Log.Info().Msgf("OSDs: %d total, %d up, %d in",
				status.OsdMap.NumOsds, status.OsdMap.NumUpOsds, status.OsdMap.NumInOsds)
			return false, nil
		}
		return true, nil
	})
}

// WaitForPgsClean waits until every placement group reports
// active+clean.
func (c *Cluster) WaitForPgsClean() error {
	sampler := c.sampler(30*time.Second, 20*time.Minute)
	return sampler.WaitForCondition(c.Context, "clean placement groups", func() (bool, error) {
		status, err := c.GetCephStatus()
		if err != nil {
			c.Log.Error().Err(err).Msg("failed to get ceph status")
			return false, nil
		}
		clean := 0
		for _, state := range status.PgMap.PgsByState {
			if state.StateName == "active+clean" {
				clean += state.Count
			}
		}
		if clean < status.PgMap.NumPgs {
			c.Log.Info().Msgf("%d/%d placement groups are active+clean", clean, status.PgMap.NumPgs)
			return false, nil
		}
		return true, nil
	})
}
