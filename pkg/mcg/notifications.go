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
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	ocscommon "github.com/red-hat-storage/ocs-ci/pkg/common"
)

const (
	kafkaClusterName = "my-cluster"
	kafkaPodLabel    = "app.kubernetes.io/name=kafka"
)

// NotificationsManager drives kafka-backed bucket notifications: topic
// setup, the connection secret, the NooBaa toggle, the per-bucket S3
// notification configuration and event verification on the consumer
// side.
type NotificationsManager struct {
	mcg *MCG
	// namespace the strimzi kafka cluster runs in
	KafkaNamespace string
}

func (m *MCG) NewNotificationsManager() *NotificationsManager {
	return &NotificationsManager{mcg: m, KafkaNamespace: m.Config.KafkaNamespace}
}

func (n *NotificationsManager) kafkaBootstrap() string {
	return fmt.Sprintf("%s-kafka-bootstrap.%s.svc:9092", kafkaClusterName, n.KafkaNamespace)
}

func (n *NotificationsManager) runKafkaCommand(command string) (string, error) {
	e := ocscommon.ExecConfig{
		Context:    n.mcg.Context,
		KubeClient: n.mcg.KubeClient,
		RestConfig: n.mcg.RestConfig,
		Namespace:  n.KafkaNamespace,
		Command:    command,
		PodLabels:  []string{kafkaPodLabel},
	}
	output, _, err := ocscommon.RunPodCmdAndCheckError(e)
	return output, err
}

// CreateKafkaTopic creates the topic bucket events are published to.
func (n *NotificationsManager) CreateKafkaTopic(topic string) error {
	n.mcg.Log.Info().Msgf("creating kafka topic '%s'", topic)
	command := fmt.Sprintf(
		"bin/kafka-topics.sh --bootstrap-server localhost:9092 --create --if-not-exists --topic %s", topic)
	_, err := n.runKafkaCommand(command)
	if err != nil {
		return errors.Wrapf(err, "failed to create kafka topic '%s'", topic)
	}
	return nil
}

func (n *NotificationsManager) DeleteKafkaTopic(topic string) error {
	command := fmt.Sprintf(
		"bin/kafka-topics.sh --bootstrap-server localhost:9092 --delete --if-exists --topic %s", topic)
	_, err := n.runKafkaCommand(command)
	if err != nil {
		return errors.Wrapf(err, "failed to delete kafka topic '%s'", topic)
	}
	return nil
}

// CreateConnectionSecret writes the kafka connection file NooBaa reads
// for the named notification target.
func (n *NotificationsManager) CreateConnectionSecret(name, topic string) error {
	connection := map[string]interface{}{
		"name":                  name,
		"notification_protocol": "kafka",
		"topic":                 topic,
		"kafka_options_object": map[string]interface{}{
			"metadata.broker.list": n.kafkaBootstrap(),
		},
	}
	connectionJSON, err := json.Marshal(connection)
	if err != nil {
		return errors.Wrap(err, "failed to serialize kafka connection")
	}
	secret := &corev1.Secret{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: n.mcg.Config.StorageNamespace,
		},
		StringData: map[string]string{
			"connect.json": string(connectionJSON),
		},
	}
	n.mcg.Log.Info().Msgf("creating notification connection secret '%s' for topic '%s'", name, topic)
	_, err = n.mcg.KubeClient.CoreV1().Secrets(n.mcg.Config.StorageNamespace).Create(
		n.mcg.Context, secret, metav1.CreateOptions{})
	if err != nil && !apierrors.IsAlreadyExists(err) {
		return errors.Wrapf(err, "failed to create secret '%s'", name)
	}
	return nil
}

// EnableBucketNotifications flips the NooBaa bucketNotifications toggle
// on with the given connection secrets and waits for the system to
// settle.
func (n *NotificationsManager) EnableBucketNotifications(secretNames ...string) error {
	noobaa, err := n.mcg.GetNooBaa()
	if err != nil {
		return err
	}
	connections := make([]corev1.SecretReference, 0, len(secretNames))
	for _, name := range secretNames {
		connections = append(connections, corev1.SecretReference{
			Name:      name,
			Namespace: n.mcg.Config.StorageNamespace,
		})
	}
	noobaa.Spec.BucketNotifications.Enabled = true
	noobaa.Spec.BucketNotifications.Connections = connections
	n.mcg.Log.Info().Msgf("enabling bucket notifications with connections %v", secretNames)
	err = n.mcg.Client.Update(n.mcg.Context, noobaa)
	if err != nil {
		return errors.Wrap(err, "failed to enable bucket notifications")
	}
	return n.mcg.WaitForNooBaaReady()
}

func (n *NotificationsManager) DisableBucketNotifications() error {
	noobaa, err := n.mcg.GetNooBaa()
	if err != nil {
		return err
	}
	noobaa.Spec.BucketNotifications.Enabled = false
	noobaa.Spec.BucketNotifications.Connections = nil
	n.mcg.Log.Info().Msg("disabling bucket notifications")
	err = n.mcg.Client.Update(n.mcg.Context, noobaa)
	if err != nil {
		return errors.Wrap(err, "failed to disable bucket notifications")
	}
	return n.mcg.WaitForNooBaaReady()
}

// PutBucketNotification configures the bucket to publish the given
// events through the named connection. The TopicArn carries the
// connection secret name and file, the NooBaa convention for kafka
// targets.
func (n *NotificationsManager) PutBucketNotification(bucketName, connectionName string, events []string) error {
	s3Client, err := n.mcg.S3Client()
	if err != nil {
		return err
	}
	topicEvents := make([]*string, 0, len(events))
	for _, event := range events {
		topicEvents = append(topicEvents, aws.String(event))
	}
	n.mcg.Log.Info().Msgf("configuring notifications of bucket '%s' for events %v", bucketName, events)
	_, err = s3Client.PutBucketNotificationConfigurationWithContext(n.mcg.Context,
		&s3.PutBucketNotificationConfigurationInput{
			Bucket: aws.String(bucketName),
			NotificationConfiguration: &s3.NotificationConfiguration{
				TopicConfigurations: []*s3.TopicConfiguration{
					{
						Id:       aws.String(connectionName),
						TopicArn: aws.String(fmt.Sprintf("%s/connect.json", connectionName)),
						Events:   topicEvents,
					},
				},
			},
		})
	if err != nil {
		return errors.Wrapf(err, "failed to configure notifications of bucket '%s'", bucketName)
	}
	return nil
}

// kafkaEvent is the subset of an S3 event record needed to match
// received notifications against expectations.
type kafkaEvent struct {
	Records []struct {
		EventName string `json:"eventName"`
		S3        struct {
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// WaitForEvents polls the kafka topic until a notification for every
// expected object key shows up.
func (n *NotificationsManager) WaitForEvents(topic string, expectedKeys []string) error {
	command := fmt.Sprintf(
		"bin/kafka-console-consumer.sh --bootstrap-server localhost:9092 --topic %s --from-beginning --timeout-ms 10000",
		topic)
	sampler := n.mcg.sampler(15*time.Second, 10*time.Minute)
	return sampler.WaitForCondition(n.mcg.Context, "bucket notification events on topic '"+topic+"'", func() (bool, error) {
		output, err := n.runKafkaCommand(command)
		if err != nil {
			n.mcg.Log.Error().Err(err).Msg("failed to consume kafka events")
			return false, nil
		}
		received := map[string]bool{}
		for _, line := range strings.Split(output, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var event kafkaEvent
			if json.Unmarshal([]byte(line), &event) != nil {
				continue
			}
			for _, record := range event.Records {
				received[record.S3.Object.Key] = true
			}
		}
		for _, key := range expectedKeys {
			if !received[key] {
				n.mcg.Log.Info().Msgf("no notification for object '%s' yet", key)
				return false, nil
			}
		}
		return true, nil
	})
}
