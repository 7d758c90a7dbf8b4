package chimu

import "sync/atomic"

// Fault classifies why a byte did not produce new data.
type Fault int

// Fault kinds.
const (
	FaultNone Fault = iota
	// FaultDesync is an unexpected byte where a sync byte was required.
	FaultDesync
	// FaultFrameTooLarge is a declared length beyond buffer capacity.
	FaultFrameTooLarge
	// FaultAddressMismatch is a frame for another device.
	FaultAddressMismatch
	// FaultInvalidMessageID is a message id outside the valid range.
	FaultInvalidMessageID
	// FaultChecksumMismatch is a frame failing the integrity check.
	FaultChecksumMismatch
	// FaultAttitudeSanity is an attitude quaternion far from unit norm.
	FaultAttitudeSanity
	// FaultShortPayload is a payload too short for its message layout.
	FaultShortPayload
	// FaultStale is a partial frame dropped by Timeout.
	FaultStale

	numFaults
)

var faultNames = [numFaults]string{
	"none",
	"desync",
	"frame-too-large",
	"address-mismatch",
	"invalid-message-id",
	"checksum-mismatch",
	"attitude-sanity",
	"short-payload",
	"stale",
}

// String implements fmt.Stringer.
func (f Fault) String() string {
	if f >= 0 && f < numFaults {
		return faultNames[f]
	}
	return "unknown"
}

// FaultCounters counts faults by kind. It is safe for concurrent use so a
// monitor can read counts while a Stream updates them.
type FaultCounters struct {
	counts [numFaults]uint64
}

// Add counts one occurrence of f. FaultNone is ignored.
func (c *FaultCounters) Add(f Fault) {
	if f > FaultNone && f < numFaults {
		atomic.AddUint64(&c.counts[f], 1)
	}
}

// Count returns the number of occurrences of f.
func (c *FaultCounters) Count(f Fault) uint64 {
	if f < 0 || f >= numFaults {
		return 0
	}
	return atomic.LoadUint64(&c.counts[f])
}

// Snapshot returns all non-zero counts keyed by fault name.
func (c *FaultCounters) Snapshot() map[string]uint64 {
	m := make(map[string]uint64)
	for f := FaultNone + 1; f < numFaults; f++ {
		if n := c.Count(f); n > 0 {
			m[f.String()] = n
		}
	}
	return m
}
