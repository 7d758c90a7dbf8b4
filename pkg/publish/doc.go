// Package publish delivers decoded sensor updates to consumers.
package publish

// Updates from a chimu.Stream go through a Publisher. Publishers exist for
// MQTT (one topic per message kind under the node name), websocket clients
// and length-prefixed record files. All of them share a Codec, protobuf
// (google.protobuf.Struct) by default or JSON.
