// Package natsbus provides a NATS-backed command transport.
//
// It is the alternative to the MQTT client for deployments where devices are
// reached through a NATS-to-MQTT bridge. Device topics are mapped onto NATS
// subjects by dropping the leading "/" and replacing "/" with ".":
//
//	/41/D1ELV3A5TOJS/ota/get  ->  41.D1ELV3A5TOJS.ota.get
//
// A publish is reported complete once the server has processed it (a flush
// round trip), which is the closest NATS core equivalent of an MQTT PUBACK.
package natsbus
