// Package mqtt provides MQTT client connectivity for the command core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Asynchronous command publishing (PublishAsync) used as the command transport
//   - Topic subscriptions with wildcard support (monitor telemetry feed)
//   - Last Will and Testament (LWT) for offline detection of the service
//
// # Topic layout
//
// Device command topics use the firmware convention
//
//	/<productId>/<serialNumber><suffix>
//
// where suffix comes from the deployment's topic table. Service-owned topics
// live under commandcore/ (status, UI notifications).
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Device("41", "D1ELV3A5TOJS", "/ota/get")
//	if err := <-client.PublishAsync(topic, payload); err != nil {
//	    return err
//	}
//
// Connection lifecycle (reconnect, backoff, auth) is owned here; the command
// package only ever sees the Transport contract.
package mqtt
