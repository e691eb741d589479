package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"soil_monitor/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	mqttQoS            = 1
	mqttPublishTimeout = 5 * time.Second
	mqttDisconnectMS   = 500
)

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker      string // tcp://host:1883
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// MQTTPublisher publishes JSON documents to <prefix>/<devEUI>/reading and
// <prefix>/<devEUI>/alarm.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
}

// NewMQTT connects to the broker. The client reconnects on its own after the
// first successful connect.
func NewMQTT(cfg MQTTConfig) (*MQTTPublisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is empty")
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	if tk := client.Connect(); tk.WaitTimeout(mqttPublishTimeout) && tk.Error() != nil {
		return nil, fmt.Errorf("connect to mqtt %s: %w", cfg.Broker, tk.Error())
	}
	return &MQTTPublisher{client: client, prefix: cfg.TopicPrefix}, nil
}

func (p *MQTTPublisher) PublishReading(ctx context.Context, r models.SensorReading) error {
	return p.publish(ctx, topicFor(p.prefix, r.DevEUI, "reading"), r)
}

func (p *MQTTPublisher) PublishAlarm(ctx context.Context, a models.DeviceAlarm) error {
	return p.publish(ctx, topicFor(p.prefix, a.DevEUI, "alarm"), a)
}

func (p *MQTTPublisher) publish(ctx context.Context, topic string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	tk := p.client.Publish(topic, mqttQoS, false, body)

	timeout := mqttPublishTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if !tk.WaitTimeout(timeout) {
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := tk.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(mqttDisconnectMS)
	}
}

func topicFor(prefix, devEUI, kind string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return devEUI + "/" + kind
	}
	return prefix + "/" + devEUI + "/" + kind
}
