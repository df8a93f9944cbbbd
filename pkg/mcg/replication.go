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

package mcg

import (
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	obv1 "github.com/kube-object-storage/lib-bucket-provisioner/pkg/apis/objectbucket.io/v1alpha1"
	"github.com/pkg/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

const replicationPolicyConfigKey = "replicationPolicy"

// ReplicationRule is one rule of a bucket replication policy: copy
// objects matching the prefix into the destination bucket.
type ReplicationRule struct {
	RuleID            string
	DestinationBucket string
	Prefix            string
}

type replicationRuleJSON struct {
	RuleID            string `json:"rule_id"`
	DestinationBucket string `json:"destination_bucket"`
	Filter            struct {
		Prefix string `json:"prefix"`
	} `json:"filter"`
}

type replicationPolicyJSON struct {
	Rules []replicationRuleJSON `json:"rules"`
}

// ReplicationPolicy serializes rules into the policy document the
// provisioner expects in the claim config.
func ReplicationPolicy(rules ...ReplicationRule) (string, error) {
	if len(rules) == 0 {
		return "", errors.New("replication policy needs at least one rule")
	}
	policy := replicationPolicyJSON{}
	for _, rule := range rules {
		ruleJSON := replicationRuleJSON{
			RuleID:            rule.RuleID,
			DestinationBucket: rule.DestinationBucket,
		}
		ruleJSON.Filter.Prefix = rule.Prefix
		policy.Rules = append(policy.Rules, ruleJSON)
	}
	policyJSON, err := json.Marshal(policy)
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize replication policy")
	}
	return string(policyJSON), nil
}

// CreateOBCWithReplication creates a claim whose bucket replicates into
// the destinations described by the policy.
func (m *MCG) CreateOBCWithReplication(name, namespace, bucketClass, policy string) (*obv1.ObjectBucketClaim, error) {
	obc := &obv1.ObjectBucketClaim{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: namespace,
		},
		Spec: obv1.ObjectBucketClaimSpec{
			GenerateBucketName: name,
			StorageClassName:   ocscommon.StorageClassMCG,
			AdditionalConfig: map[string]string{
				replicationPolicyConfigKey: policy,
			},
		},
	}
	if bucketClass != "" {
		obc.Spec.AdditionalConfig[bucketClassConfigKey] = bucketClass
	}
	m.Log.Info().Msgf("creating ObjectBucketClaim '%s/%s' with replication policy", namespace, name)
	created, err := m.ClaimClient.ObjectbucketV1alpha1().ObjectBucketClaims(namespace).Create(
		m.Context, obc, metav1.CreateOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create ObjectBucketClaim '%s/%s'", namespace, name)
	}
	return created, nil
}

// WaitForReplication waits until every expected key shows up in the
// destination bucket. Log-based replication runs on an interval, so
// propagation takes minutes.
func (m *MCG) WaitForReplication(destinationBucket string, expectedKeys []string) error {
	s3Client, err := m.S3Client()
	if err != nil {
		return err
	}
	sampler := m.sampler(30*time.Second, 15*time.Minute)
	return sampler.WaitForCondition(m.Context, "replication into bucket '"+destinationBucket+"'", func() (bool, error) {
		replicated := map[string]bool{}
		err := s3Client.ListObjectsV2PagesWithContext(m.Context, &s3.ListObjectsV2Input{
			Bucket: aws.String(destinationBucket),
		}, func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, object := range page.Contents {
				replicated[aws.StringValue(object.Key)] = true
			}
			return true
		})
		if err != nil {
			m.Log.Error().Err(err).Msgf("failed to list bucket '%s'", destinationBucket)
			return false, nil
		}
		for _, key := range expectedKeys {
			if !replicated[key] {
				m.Log.Info().Msgf("object '%s' is not replicated yet", key)
				return false, nil
			}
		}
		return true, nil
	})
}
