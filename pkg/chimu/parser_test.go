package chimu

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

type parserTestSequence struct {
	in      []byte
	timeout bool
	expect  ParseResult
	final   ParseResult
}

type parserTestSequenceBuilder struct {
	t   *testing.T
	seq []parserTestSequence
}

func parserTestSequences(t *testing.T) *parserTestSequenceBuilder {
	return &parserTestSequenceBuilder{t: t}
}

func (b *parserTestSequenceBuilder) on(in ...byte) *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{in: in})
	return b
}

func (b *parserTestSequenceBuilder) onFrame(f *Frame) *parserTestSequenceBuilder {
	return b.on(mustEncode(b.t, f, nil)...)
}

func (b *parserTestSequenceBuilder) onCorrupted(f *Frame) *parserTestSequenceBuilder {
	data := mustEncode(b.t, f, nil)
	data[len(data)-1] ^= 0xff
	return b.on(data...)
}

func (b *parserTestSequenceBuilder) timeout() *parserTestSequenceBuilder {
	b.seq = append(b.seq, parserTestSequence{timeout: true})
	return b
}

func (b *parserTestSequenceBuilder) final(pr ParseResult) *parserTestSequenceBuilder {
	b.seq[len(b.seq)-1].final = pr
	return b
}

func (b *parserTestSequenceBuilder) fault(f Fault) *parserTestSequenceBuilder {
	return b.final(ParseResult{Fault: f})
}

func (b *parserTestSequenceBuilder) updated(id MsgID) *parserTestSequenceBuilder {
	return b.final(ParseResult{Updated: true, Complete: true, MsgID: id})
}

func (b *parserTestSequenceBuilder) ignored(id MsgID) *parserTestSequenceBuilder {
	return b.final(ParseResult{Complete: true, MsgID: id})
}

func (b *parserTestSequenceBuilder) build() []parserTestSequence {
	return b.seq
}

func mustEncode(t *testing.T, f *Frame, c Checksum) []byte {
	data, err := f.Encode(c)
	require.NoError(t, err)
	return data
}

var (
	testSensor = SensorSample{
		Temp:   36.5,
		Acc:    Vector3{X: 0.1, Y: -0.2, Z: 9.81},
		Mag:    Vector3{X: 0.3, Y: 0.1, Z: -0.5},
		Spare1: 0,
	}
	unitQ     = Quaternion{S: 1}
	testRateQ = Quaternion{S: 0, V: Vector3{X: 0.01, Y: -0.02, Z: 0.03}}

	floatEquate = cmpopts.EquateApprox(0, 1e-5)
)

func TestParser(t *testing.T) {
	testCases := []struct {
		name string
		seq  []parserTestSequence
	}{
		{
			name: "sensor frame",
			seq: parserTestSequences(t).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "skip noise before sync",
			seq: parserTestSequences(t).
				on(0x00, 0x01, 0xff, 0xaa).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "second sync mismatch",
			seq: parserTestSequences(t).
				on(SyncByte, 0x01).fault(FaultDesync).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "length too large",
			seq: parserTestSequences(t).
				on(SyncByte, SyncByte, MaxPayloadSize+1).fault(FaultFrameTooLarge).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "address mismatch",
			seq: parserTestSequences(t).
				on(SyncByte, SyncByte, 0, 0x02).fault(FaultAddressMismatch).
				build(),
		},
		{
			name: "broadcast address",
			seq: parserTestSequences(t).
				onFrame(SensorFrame(BroadcastDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "invalid message id",
			seq: parserTestSequences(t).
				on(SyncByte, SyncByte, 0, DefaultDevice, byte(MsgIDHigh)+1).fault(FaultInvalidMessageID).
				build(),
		},
		{
			name: "checksum mismatch",
			seq: parserTestSequences(t).
				onCorrupted(SensorFrame(DefaultDevice, testSensor)).
				final(ParseResult{MsgID: MsgIMUFloat, Fault: FaultChecksumMismatch}).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "message not decoded",
			seq: parserTestSequences(t).
				onFrame(&Frame{Device: DefaultDevice, MsgID: MsgBIT, Payload: []byte{1, 2, 3}}).ignored(MsgBIT).
				build(),
		},
		{
			name: "raw imu not decoded",
			seq: parserTestSequences(t).
				onFrame(&Frame{Device: DefaultDevice, MsgID: MsgIMURaw, Payload: make([]byte, 20)}).ignored(MsgIMURaw).
				build(),
		},
		{
			name: "unassigned message id",
			seq: parserTestSequences(t).
				onFrame(&Frame{Device: DefaultDevice, MsgID: MsgIDHigh, Payload: []byte{1}}).ignored(MsgIDHigh).
				build(),
		},
		{
			name: "empty payload",
			seq: parserTestSequences(t).
				onFrame(&Frame{Device: DefaultDevice, MsgID: MsgSFCheck}).ignored(MsgSFCheck).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "short payload",
			seq: parserTestSequences(t).
				onFrame(&Frame{Device: DefaultDevice, MsgID: MsgIMUFloat, Payload: []byte{1, 2, 3, 4}}).
				final(ParseResult{Complete: true, MsgID: MsgIMUFloat, Fault: FaultShortPayload}).
				build(),
		},
		{
			name: "timeout in frame",
			seq: parserTestSequences(t).
				on(SyncByte, SyncByte, 4).
				timeout().fault(FaultStale).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				build(),
		},
		{
			name: "timeout when idle",
			seq: parserTestSequences(t).
				timeout().
				onFrame(PingFrame(DefaultDevice, PingInfo{Exclaim: '!'})).updated(MsgPing).
				build(),
		},
		{
			name: "back to back frames",
			seq: parserTestSequences(t).
				onFrame(SensorFrame(DefaultDevice, testSensor)).updated(MsgIMUFloat).
				onFrame(AttitudeFrame(DefaultDevice, AttitudeSample{Q: unitQ}, Vector3{}, testRateQ)).updated(MsgAttitude).
				onFrame(PingFrame(BroadcastDevice, PingInfo{})).updated(MsgPing).
				build(),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parser := NewParser(DefaultDevice)
			for n, s := range tc.seq {
				var pr ParseResult
				if s.timeout {
					pr = parser.Timeout()
				} else {
					for i, b := range s.in {
						pr = parser.Parse(b)
						if i+1 < len(s.in) {
							require.Equalf(t, s.expect, pr, "seq[%d][%d] expect mismatch", n, i)
						}
					}
				}
				require.Equalf(t, s.final, pr, "seq[%d] final mismatch", n)
			}
		})
	}
}

func TestParserBoundsSafety(t *testing.T) {
	parser := NewParser(DefaultDevice)
	check := func() {
		require.LessOrEqual(t, parser.rawLen, len(parser.raw))
		require.LessOrEqual(t, parser.payloadLen, len(parser.payload))
	}

	// largest frame accepted
	data := mustEncode(t, &Frame{Device: DefaultDevice, MsgID: MsgRes10, Payload: make([]byte, MaxPayloadSize)}, nil)
	require.Len(t, data, MaxFrameSize)
	var pr ParseResult
	for _, b := range data {
		pr = parser.Parse(b)
		check()
	}
	require.Equal(t, ParseResult{Complete: true, MsgID: MsgRes10}, pr)

	// declared lengths beyond capacity
	for l := MaxPayloadSize + 1; l <= 0xff; l++ {
		for _, b := range []byte{SyncByte, SyncByte, byte(l), DefaultDevice, 0x02} {
			parser.Parse(b)
			check()
		}
		require.False(t, parser.Receiving())
	}

	rnd := rand.New(rand.NewSource(1))
	for i := 0; i < 200000; i++ {
		b := byte(rnd.Intn(256))
		if rnd.Intn(8) == 0 {
			b = SyncByte
		}
		parser.Parse(b)
		check()
	}
}

func TestParserResync(t *testing.T) {
	parser := NewParser(DefaultDevice)
	require.False(t, parser.FeedByte(SyncByte))
	require.False(t, parser.FeedByte(SyncByte))
	require.False(t, parser.FeedByte(0xff))
	require.Equal(t, stateSync1, parser.state)
	require.False(t, parser.Receiving())

	data := mustEncode(t, SensorFrame(DefaultDevice, testSensor), nil)
	for _, b := range data[:len(data)-1] {
		require.False(t, parser.FeedByte(b))
	}
	require.True(t, parser.FeedByte(data[len(data)-1]))
}

func TestParserAddressFilter(t *testing.T) {
	parser := NewParser(DefaultDevice)
	data := mustEncode(t, SensorFrame(0x02, testSensor), nil)
	for _, b := range data {
		require.False(t, parser.FeedByte(b))
	}
	require.Equal(t, SensorSample{}, parser.Sensor)
	require.Equal(t, AttitudeSample{}, parser.Attitude)
	require.Equal(t, AttitudeSample{}, parser.AttitudeRate)
}

func TestParserChecksumGate(t *testing.T) {
	parser := NewParser(DefaultDevice)
	for _, b := range mustEncode(t, SensorFrame(DefaultDevice, testSensor), nil) {
		parser.FeedByte(b)
	}
	before := parser.Sensor

	changed := testSensor
	changed.Temp = 50
	data := mustEncode(t, SensorFrame(DefaultDevice, changed), nil)
	data[len(data)-1]++
	for _, b := range data {
		require.False(t, parser.FeedByte(b))
	}
	require.Equal(t, before, parser.Sensor)
}

func TestParserSensorRoundTrip(t *testing.T) {
	parser := NewParser(DefaultDevice)
	var updated bool
	for _, b := range mustEncode(t, SensorFrame(DefaultDevice, testSensor), nil) {
		updated = parser.FeedByte(b)
	}
	require.True(t, updated)
	if diff := cmp.Diff(testSensor, parser.Sensor, floatEquate); diff != "" {
		t.Errorf("sensor mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, DefaultDevice, parser.Device())
}

func TestParserAttitudeSanity(t *testing.T) {
	parser := NewParser(DefaultDevice)
	feed := func(f *Frame) (pr ParseResult) {
		for _, b := range mustEncode(t, f, nil) {
			pr = parser.Parse(b)
		}
		return
	}

	good := AttitudeSample{Euler: Euler{Phi: 0.1, Theta: 0.2, Psi: 0.3}, Q: unitQ}
	rate := Vector3{X: 0.5, Y: 0.6, Z: 0.7}
	pr := feed(AttitudeFrame(DefaultDevice, good, rate, testRateQ))
	require.Equal(t, ParseResult{Updated: true, Complete: true, MsgID: MsgAttitude}, pr)
	if diff := cmp.Diff(good, parser.Attitude, floatEquate); diff != "" {
		t.Errorf("attitude mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, testRateQ, parser.AttitudeRate.Q)
	require.Equal(t, Euler{Phi: 0.01, Theta: -0.02, Psi: 0.03}, parser.AttitudeRate.Euler)
	require.Equal(t, rate, parser.Sensor.Rate)

	bad := AttitudeSample{
		Euler: Euler{Phi: 1, Theta: 1, Psi: 1},
		Q:     Quaternion{S: 0.1, V: Vector3{X: 0.1, Y: 0.1, Z: 0.1}},
	}
	pr = feed(AttitudeFrame(DefaultDevice, bad, Vector3{X: 9, Y: 9, Z: 9}, Quaternion{S: 1}))
	require.Equal(t, ParseResult{Updated: true, Complete: true, MsgID: MsgAttitude, Fault: FaultAttitudeSanity}, pr)
	if diff := cmp.Diff(good, parser.Attitude, floatEquate); diff != "" {
		t.Errorf("attitude changed (-want +got):\n%s", diff)
	}
	require.Equal(t, testRateQ, parser.AttitudeRate.Q)
	require.Equal(t, rate, parser.Sensor.Rate)
}

func TestParserQuatEstimator(t *testing.T) {
	parser := NewParser(DefaultDevice, WithQuatEstimator(true))
	yaw := AttitudeSample{
		Euler: Euler{Phi: 3, Theta: 3, Psi: 3},
		Q:     Quaternion{S: 0.7071, V: Vector3{Z: 0.7071}},
	}
	var updated bool
	for _, b := range mustEncode(t, AttitudeFrame(DefaultDevice, yaw, Vector3{}, Quaternion{}), nil) {
		updated = parser.FeedByte(b)
	}
	require.True(t, updated)
	require.InDelta(t, 0, parser.Attitude.Euler.Phi, 1e-4)
	require.InDelta(t, 0, parser.Attitude.Euler.Theta, 1e-4)
	require.InDelta(t, 1.5707963, parser.Attitude.Euler.Psi, 1e-4)
}

func TestParserPing(t *testing.T) {
	parser := NewParser(DefaultDevice)
	info := PingInfo{Exclaim: '!', Major: 1, Minor: 3, SerialNumber: 0x1234}
	var updated bool
	for _, b := range mustEncode(t, PingFrame(DefaultDevice, info), nil) {
		updated = parser.FeedByte(b)
	}
	require.True(t, updated)
	require.Equal(t, info, parser.Ping)
}

func TestParserChecksumSelection(t *testing.T) {
	for _, c := range []Checksum{CRC32, Sum8, Xor8, Legacy} {
		parser := NewParser(DefaultDevice, WithChecksum(c))
		var updated bool
		for _, b := range mustEncode(t, SensorFrame(DefaultDevice, testSensor), c) {
			updated = parser.FeedByte(b)
		}
		require.True(t, updated)
	}

	// a zero checksum byte is only accepted in legacy mode
	data := mustEncode(t, SensorFrame(DefaultDevice, testSensor), Legacy)
	require.Equal(t, byte(0), data[len(data)-1])
	parser := NewParser(DefaultDevice, WithChecksum(Sum8))
	var pr ParseResult
	for _, b := range data {
		pr = parser.Parse(b)
	}
	require.Equal(t, FaultChecksumMismatch, pr.Fault)
}

func TestParserInit(t *testing.T) {
	parser := NewParser(DefaultDevice, WithChecksum(Xor8), WithQuatEstimator(true))
	data := mustEncode(t, SensorFrame(DefaultDevice, testSensor), Xor8)
	for _, b := range data {
		parser.FeedByte(b)
	}
	require.NotEqual(t, SensorSample{}, parser.Sensor)
	for _, b := range data[:6] {
		parser.FeedByte(b)
	}
	require.True(t, parser.Receiving())

	parser.Init(0x05)
	require.Equal(t, SensorSample{}, parser.Sensor)
	require.False(t, parser.Receiving())
	require.Empty(t, parser.RawFrame())
	require.Equal(t, byte(0x05), parser.OwnDevice())
	require.True(t, parser.QuatEstimator)
	require.NotNil(t, parser.Checksum)

	for _, b := range data {
		require.False(t, parser.FeedByte(b))
	}
}

func TestParserReset(t *testing.T) {
	parser := NewParser(DefaultDevice)
	data := mustEncode(t, SensorFrame(DefaultDevice, testSensor), nil)
	for _, b := range data {
		parser.FeedByte(b)
	}
	require.Equal(t, data, parser.RawFrame())
	for _, b := range data[:10] {
		parser.FeedByte(b)
	}
	parser.Reset()
	require.False(t, parser.Receiving())
	require.Equal(t, float32(36.5), parser.Sensor.Temp)
}
