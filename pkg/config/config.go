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

package ocsconfig

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

// RunConfig holds all tunables of a framework run. Values come from the
// run configmap data (or any plain string map), everything not set falls
// back to defaults matching a stock ODF installation.
type RunConfig struct {
	// namespace ODF is installed into
	StorageNamespace string
	// OLM catalog image carrying the ODF operators
	CatalogImage string
	// subscription channel for the odf-operator package
	SubscriptionChannel string
	// deploy the StorageCluster backed by LSO-provided local disks
	LocalStorage bool
	// number of OSDs per device set
	OsdCount int
	// requested capacity per OSD
	OsdSize string
	// ceph health issues which do not fail health checks
	CephIssuesToIgnore []string
	// log level for framework loggers
	LogLevel zerolog.Level
	// multiplier applied on top of all wait timeouts, for slow clusters
	TimeoutMultiplier int
	// namespace where the kafka cluster for bucket notification tests lives
	KafkaNamespace string
}

const (
	storageNamespaceParameter    = "STORAGE_NAMESPACE"
	catalogImageParameter        = "CATALOG_IMAGE"
	subscriptionChannelParameter = "SUBSCRIPTION_CHANNEL"
	localStorageParameter        = "LOCAL_STORAGE"
	osdCountParameter            = "OSD_COUNT"
	osdSizeParameter             = "OSD_SIZE"
	cephIssuesToIgnoreParameter  = "CEPH_ISSUES_TO_IGNORE"
	logLevelParameter            = "LOG_LEVEL"
	timeoutMultiplierParameter   = "TIMEOUT_MULTIPLIER"
	kafkaNamespaceParameter      = "KAFKA_NAMESPACE"
)

var (
	errorMsgTmpl = "has incorrect parameter value '%s=%s', expected %s"
	debugMsgTmpl = "set '%s=%s'"

	defaultRunConfig = RunConfig{
		StorageNamespace:    ocscommon.StorageNamespace,
		SubscriptionChannel: "stable",
		OsdCount:            3,
		OsdSize:             "2Ti",
		CephIssuesToIgnore: []string{
			"OSDMAP_FLAGS",
			"TOO_FEW_PGS",
			"SLOW_OPS",
			"POOL_APP_NOT_ENABLED",
			"MON_DISK_LOW",
			"RECENT_CRASH",
		},
		LogLevel:          zerolog.InfoLevel,
		TimeoutMultiplier: 1,
		KafkaNamespace:    "kafka",
	}
)

// ReadConfiguration builds a RunConfig from the given data map, keeping
// defaults for missing or unparsable values.
func ReadConfiguration(log zerolog.Logger, configData map[string]string) RunConfig {
	config := defaultRunConfig
	if len(configData) == 0 {
		return config
	}

	if namespace, present := configData[storageNamespaceParameter]; present {
		log.Debug().Msgf(debugMsgTmpl, storageNamespaceParameter, namespace)
		config.StorageNamespace = namespace
	}
	if catalogImage, present := configData[catalogImageParameter]; present {
		log.Debug().Msgf(debugMsgTmpl, catalogImageParameter, catalogImage)
		config.CatalogImage = catalogImage
	}
	if channel, present := configData[subscriptionChannelParameter]; present {
		log.Debug().Msgf(debugMsgTmpl, subscriptionChannelParameter, channel)
		config.SubscriptionChannel = channel
	}
	if localStorage, present := configData[localStorageParameter]; present {
		parsed, err := strconv.ParseBool(strings.TrimSpace(localStorage))
		if err != nil {
			log.Error().Msgf(errorMsgTmpl, localStorageParameter, localStorage, "boolean")
		} else {
			log.Debug().Msgf(debugMsgTmpl, localStorageParameter, localStorage)
			config.LocalStorage = parsed
		}
	}
	if osdCount, present := configData[osdCountParameter]; present {
		parsed, err := strconv.Atoi(osdCount)
		if err != nil || parsed < 1 {
			log.Error().Msgf(errorMsgTmpl, osdCountParameter, osdCount, "positive integer")
		} else {
			log.Debug().Msgf(debugMsgTmpl, osdCountParameter, osdCount)
			config.OsdCount = parsed
		}
	}
	if osdSize, present := configData[osdSizeParameter]; present {
		log.Debug().Msgf(debugMsgTmpl, osdSizeParameter, osdSize)
		config.OsdSize = osdSize
	}
	if issuesIgnore, present := configData[cephIssuesToIgnoreParameter]; present {
		log.Debug().Msgf(debugMsgTmpl, cephIssuesToIgnoreParameter, issuesIgnore)
		config.CephIssuesToIgnore = strings.Split(issuesIgnore, ",")
	}
	if logLevel, present := configData[logLevelParameter]; present {
		l, err := zerolog.ParseLevel(strings.ToLower(logLevel))
		if err != nil {
			log.Error().Msgf(errorMsgTmpl, logLevelParameter, logLevel, "valid log levels: info, debug, trace, warn, error")
		} else {
			log.Debug().Msgf(debugMsgTmpl, logLevelParameter, logLevel)
			config.LogLevel = l
		}
	}
	if multiplier, present := configData[timeoutMultiplierParameter]; present {
		parsed, err := strconv.Atoi(multiplier)
		if err != nil || parsed < 1 {
			log.Error().Msgf(errorMsgTmpl, timeoutMultiplierParameter, multiplier, "positive integer")
		} else {
			log.Debug().Msgf(debugMsgTmpl, timeoutMultiplierParameter, multiplier)
			config.TimeoutMultiplier = parsed
		}
	}
	if kafkaNamespace, present := configData[kafkaNamespaceParameter]; present {
		log.Debug().Msgf(debugMsgTmpl, kafkaNamespaceParameter, kafkaNamespace)
		config.KafkaNamespace = kafkaNamespace
	}
	return config
}

// Timeout scales a base timeout by the configured multiplier.
func (c RunConfig) Timeout(base time.Duration) time.Duration {
	if c.TimeoutMultiplier <= 1 {
		return base
	}
	return base * time.Duration(c.TimeoutMultiplier)
}
