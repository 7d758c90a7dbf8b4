package chimu

// Framing constants.
const (
	SyncByte        byte = 0xae
	BroadcastDevice byte = 0xaa
	DefaultDevice   byte = 0x01

	// MaxFrameSize is the capacity of the raw frame buffer.
	MaxFrameSize = 128
	// MaxPayloadSize is the largest length accepted in a frame header.
	MaxPayloadSize = MaxFrameSize - frameOverhead

	headerSize    = 5 // two sync bytes, length, device, msg id
	frameOverhead = headerSize + 1
)

type parseState int

const (
	stateSync1    parseState = iota // waiting for first sync byte
	stateSync2                      // waiting for second sync byte
	stateLen                        // waiting for payload length
	stateDevice                     // waiting for device id
	stateMsgID                      // waiting for message id
	statePayload                    // receiving payload
	stateChecksum                   // waiting for checksum byte
)

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	// Updated is true when a frame passed the checksum and its decode
	// routine published new data.
	Updated bool
	// Complete is true when a frame passed the checksum and was dispatched.
	Complete bool
	// MsgID is the id of the frame that completed or failed the checksum.
	MsgID MsgID
	// Fault is the reason the byte or frame was rejected, if any.
	Fault Fault
}

// Option configures a Parser.
type Option func(*Parser)

// WithChecksum selects the frame checksum.
func WithChecksum(c Checksum) Option {
	return func(p *Parser) { p.Checksum = c }
}

// WithQuatEstimator recomputes attitude Euler angles from the quaternion,
// for sensors running the quaternion estimator which leaves them unset.
func WithQuatEstimator(en bool) Option {
	return func(p *Parser) { p.QuatEstimator = en }
}

// Parser assembles and decodes frames for one sensor. It is not safe for
// concurrent use; the decoded records are read directly from the fields
// after Parse reports Updated.
type Parser struct {
	Sensor       SensorSample
	Attitude     AttitudeSample
	AttitudeRate AttitudeSample
	Ping         PingInfo

	Checksum      Checksum
	QuatEstimator bool

	ownDevice    byte
	state        parseState
	raw          [MaxFrameSize]byte
	rawLen       int
	payload      [MaxPayloadSize]byte
	payloadLen   int
	msgLen       int
	device       byte
	msgID        MsgID
	checksum     byte
	recvChecksum byte
}

// NewParser creates a Parser accepting frames for ownDevice.
func NewParser(ownDevice byte, opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	p.Init(ownDevice)
	return p
}

// Init clears all state and records and sets the device address.
// Checksum and QuatEstimator are configuration and kept.
func (p *Parser) Init(ownDevice byte) {
	*p = Parser{
		Checksum:      p.Checksum,
		QuatEstimator: p.QuatEstimator,
		ownDevice:     ownDevice,
	}
}

// OwnDevice returns the address frames must be sent to.
func (p *Parser) OwnDevice() byte {
	return p.ownDevice
}

// Device returns the address of the last accepted frame header, which is
// either OwnDevice or BroadcastDevice.
func (p *Parser) Device() byte {
	return p.device
}

// Receiving tells whether a frame is partially received.
func (p *Parser) Receiving() bool {
	return p.state != stateSync1
}

// RawFrame returns the bytes of the frame currently or last assembled.
// The slice is only valid until the next call to Parse.
func (p *Parser) RawFrame() []byte {
	return p.raw[:p.rawLen]
}

// Reset abandons any partial frame. Decoded records are kept.
func (p *Parser) Reset() {
	p.resync(FaultNone)
}

// FeedByte consumes one byte and reports whether an output record changed.
func (p *Parser) FeedByte(b byte) bool {
	return p.Parse(b).Updated
}

// Timeout drops a partially received frame. It is meant to be called by a
// driver when the link has been silent for too long; without it a frame
// stalled after a valid header waits indefinitely for more bytes.
func (p *Parser) Timeout() ParseResult {
	if p.state != stateSync1 {
		return p.resync(FaultStale)
	}
	return ParseResult{}
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	switch p.state {
	case stateSync1:
		if b == SyncByte {
			p.rawLen, p.payloadLen = 0, 0
			p.push(b)
			p.state = stateSync2
		}
	case stateSync2:
		if b != SyncByte {
			return p.resync(FaultDesync)
		}
		p.push(b)
		p.state = stateLen
	case stateLen:
		if int(b) > MaxPayloadSize {
			return p.resync(FaultFrameTooLarge)
		}
		p.msgLen = int(b)
		p.push(b)
		p.state = stateDevice
	case stateDevice:
		if b != p.ownDevice && b != BroadcastDevice {
			return p.resync(FaultAddressMismatch)
		}
		p.device = b
		p.push(b)
		p.state = stateMsgID
	case stateMsgID:
		id := MsgID(b)
		if !id.IsValid() {
			return p.resync(FaultInvalidMessageID)
		}
		p.msgID = id
		p.push(b)
		p.payloadLen = 0
		if p.msgLen == 0 {
			p.payloadReady()
		} else {
			p.state = statePayload
		}
	case statePayload:
		if p.payloadLen >= len(p.payload) || !p.push(b) {
			return p.resync(FaultFrameTooLarge)
		}
		p.payload[p.payloadLen] = b
		p.payloadLen++
		if p.rawLen >= p.msgLen+headerSize {
			p.payloadReady()
		}
	case stateChecksum:
		p.recvChecksum = b
		p.push(b)
		p.state = stateSync1
		if p.recvChecksum != p.checksum {
			return ParseResult{MsgID: p.msgID, Fault: FaultChecksumMismatch}
		}
		return p.dispatch()
	default:
		p.state = stateSync1
	}
	return
}

// push appends b to the raw frame, refusing to write past the buffer.
func (p *Parser) push(b byte) bool {
	if p.rawLen >= len(p.raw) {
		return false
	}
	p.raw[p.rawLen] = b
	p.rawLen++
	return true
}

func (p *Parser) payloadReady() {
	c := p.Checksum
	if c == nil {
		c = DefaultChecksum
	}
	p.checksum = c.Sum(p.raw[:p.msgLen+headerSize])
	p.state = stateChecksum
}

func (p *Parser) resync(fault Fault) ParseResult {
	p.state = stateSync1
	p.payloadLen = 0
	return ParseResult{Fault: fault}
}
