// Package chimu decodes the CHIMU inertial sensor byte stream.
package chimu

// The sensor emits frames over a serial link:
//
//   [0xAE][0xAE][length][device][msg id][payload: length bytes][checksum]
//
// Parser is fed one byte at a time and validates each header field as it
// arrives so malformed frames are dropped as early as possible. A frame is
// dispatched by message id only after the checksum matches. Decoded values
// are kept on the Parser as the last known sensor and attitude records.
//
// Faults (desync, address mismatch, bad checksum, ...) are not errors: the
// parser silently returns to waiting for the next sync pair. Parse reports
// the fault kind for callers that want to count them; FeedByte only tells
// whether an output record changed.
//
// Producer: CHIMU firmware
// Consumer: flight-control pipeline
