package action

import (
	"context"
	"net"
	"testing"
	"time"
)

const mqttDriverTestBroker = "tcp://test.mosquitto.org:1883"

func mqttTestBrokerAvailable() bool {
	conn, err := net.DialTimeout("tcp", "test.mosquitto.org:1883", 3*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func TestMQTTActionDriver_StatusBeforeInitializeReportsDisconnected(t *testing.T) {
	driver := NewMQTTActionDriver(mqttDriverTestBroker, "photoacoustic-test", "display", "alert")
	status, err := driver.Status(context.Background())
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status["is_connected"] != false {
		t.Fatalf("expected is_connected false before Initialize, got %v", status["is_connected"])
	}
	if status["driver_type"] != "mqtt" {
		t.Fatalf("expected driver_type mqtt, got %v", status["driver_type"])
	}
}

func TestMQTTActionDriver_PublishWithoutConnectionErrors(t *testing.T) {
	driver := NewMQTTActionDriver(mqttDriverTestBroker, "photoacoustic-test", "display", "alert")
	err := driver.UpdateAction(context.Background(), MeasurementData{SourceNodeID: "peak_co2"})
	if err == nil {
		t.Fatal("expected UpdateAction to fail before the driver is connected")
	}
}

func TestMQTTActionDriver_ConnectPublishAndShutdown(t *testing.T) {
	if !mqttTestBrokerAvailable() {
		t.Skip("public mosquitto test broker unavailable, skipping live MQTT test")
	}

	driver := NewMQTTActionDriver(mqttDriverTestBroker, "photoacoustic-go-test-client", "photoacoustic-go/test/display", "photoacoustic-go/test/alert")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := driver.Initialize(ctx); err != nil {
		t.Fatalf("Initialize returned error: %v", err)
	}
	defer driver.Shutdown(ctx)

	ppm := 400.0
	if err := driver.UpdateAction(ctx, MeasurementData{SourceNodeID: "peak_co2", ConcentrationPpm: &ppm, Timestamp: time.Now()}); err != nil {
		t.Fatalf("UpdateAction returned error: %v", err)
	}
	if err := driver.ShowAlert(ctx, AlertData{AlertType: "test", Severity: "info", Message: "integration test", Timestamp: time.Now()}); err != nil {
		t.Fatalf("ShowAlert returned error: %v", err)
	}
	if err := driver.ClearAction(ctx); err != nil {
		t.Fatalf("ClearAction returned error: %v", err)
	}

	status, err := driver.Status(ctx)
	if err != nil {
		t.Fatalf("Status returned error: %v", err)
	}
	if status["is_connected"] != true {
		t.Fatalf("expected is_connected true after Initialize, got %v", status["is_connected"])
	}
}
