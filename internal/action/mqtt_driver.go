package action

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/sctg-development/photoacoustic-go/internal/errors"
)

// publishTimeout bounds how long a single MQTT publish is allowed to take,
// matching internal/mqtt/client.go's Publish.
const publishTimeout = 10 * time.Second

// MQTTActionDriver dispatches measurements and alerts as JSON payloads on
// configurable topics, grounded on action_drivers/kafka.rs's
// KafkaActionDriver (connection lifecycle, update/alert/clear dispatch
// split across topics) with the broker swapped for
// eclipse/paho.mqtt.golang, matching the client setup already used by
// internal/mqtt/client.go.
type MQTTActionDriver struct {
	broker      string
	clientID    string
	updateTopic string
	alertTopic  string

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTTActionDriver builds a driver that connects to broker under
// clientID and publishes measurement updates on updateTopic, alerts on
// alertTopic.
func NewMQTTActionDriver(broker, clientID, updateTopic, alertTopic string) *MQTTActionDriver {
	return &MQTTActionDriver{
		broker:      broker,
		clientID:    clientID,
		updateTopic: updateTopic,
		alertTopic:  alertTopic,
	}
}

func (d *MQTTActionDriver) Initialize(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(d.broker)
	opts.SetClientID(d.clientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)

	d.client = mqtt.NewClient(opts)
	token := d.client.Connect()
	if !token.WaitTimeout(30 * time.Second) {
		return errors.New(errors.NewStd("mqtt connect timeout")).
			Category(errors.CategoryDriver).Context("broker", d.broker).Build()
	}
	if err := token.Error(); err != nil {
		return errors.New(err).Category(errors.CategoryDriver).Context("broker", d.broker).Build()
	}
	return nil
}

func (d *MQTTActionDriver) publish(topic string, payload any) error {
	d.mu.Lock()
	client := d.client
	d.mu.Unlock()

	if client == nil || !client.IsConnected() {
		return errors.New(errors.NewStd("mqtt action driver is not connected")).
			Category(errors.CategoryState).Build()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.New(err).Category(errors.CategoryProcessing).Build()
	}

	token := client.Publish(topic, 0, false, body)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New(errors.NewStd("mqtt publish timeout")).
			Category(errors.CategoryDriver).Context("topic", topic).Build()
	}
	return token.Error()
}

func (d *MQTTActionDriver) UpdateAction(_ context.Context, data MeasurementData) error {
	return d.publish(d.updateTopic, map[string]any{
		"type":              "display_update",
		"concentration_ppm": data.ConcentrationPpm,
		"source_node_id":    data.SourceNodeID,
		"peak_amplitude":    data.PeakAmplitude,
		"peak_frequency":    data.PeakFrequency,
		"timestamp":         data.Timestamp.Unix(),
		"metadata":          data.Metadata,
	})
}

func (d *MQTTActionDriver) ShowAlert(_ context.Context, alert AlertData) error {
	return d.publish(d.alertTopic, map[string]any{
		"type":      "alert",
		"alert_type": alert.AlertType,
		"severity":  alert.Severity,
		"message":   alert.Message,
		"data":      alert.Data,
		"timestamp": alert.Timestamp.Unix(),
	})
}

func (d *MQTTActionDriver) ClearAction(context.Context) error {
	return d.publish(d.updateTopic, map[string]any{
		"type":      "clear_action",
		"timestamp": time.Now().Unix(),
	})
}

func (d *MQTTActionDriver) Status(context.Context) (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	connected := d.client != nil && d.client.IsConnected()
	return map[string]any{
		"driver_type":  d.DriverType(),
		"broker":       d.broker,
		"update_topic": d.updateTopic,
		"alert_topic":  d.alertTopic,
		"is_connected": connected,
	}, nil
}

func (d *MQTTActionDriver) DriverType() string { return "mqtt" }

func (d *MQTTActionDriver) Shutdown(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client != nil && d.client.IsConnected() {
		d.client.Disconnect(250)
	}
	d.client = nil
	return nil
}
