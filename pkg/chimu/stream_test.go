package chimu

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testStreamBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x00, SyncByte, 0x01}) // noise and a desync
	buf.Write(mustEncode(t, SensorFrame(DefaultDevice, testSensor), nil))
	buf.Write(mustEncode(t, SensorFrame(0x07, testSensor), nil))
	buf.Write(mustEncode(t, AttitudeFrame(DefaultDevice, AttitudeSample{Q: unitQ}, Vector3{X: 1}, testRateQ), nil))
	bad := AttitudeSample{Q: Quaternion{S: 0.1}}
	buf.Write(mustEncode(t, AttitudeFrame(DefaultDevice, bad, Vector3{}, Quaternion{}), nil))
	buf.Write(mustEncode(t, &Frame{Device: DefaultDevice, MsgID: MsgGyroBias, Payload: []byte{1}}, nil))
	buf.Write(mustEncode(t, PingFrame(BroadcastDevice, PingInfo{Major: 2}), nil))
	return buf.Bytes()
}

func TestStreamRun(t *testing.T) {
	var updates []*Update
	s := NewStream(bytes.NewReader(testStreamBytes(t)), NewParser(DefaultDevice))
	s.Handler = HandleUpdateFunc(func(ctx context.Context, u *Update) {
		updates = append(updates, u)
	})
	err := s.Run(context.Background())
	require.Equal(t, io.EOF, err)

	require.Len(t, updates, 3)
	require.Equal(t, MsgIMUFloat, updates[0].MsgID)
	require.Equal(t, testSensor, *updates[0].Sensor)
	require.Nil(t, updates[0].Attitude)

	require.Equal(t, MsgAttitude, updates[1].MsgID)
	require.Equal(t, unitQ, updates[1].Attitude.Q)
	require.Equal(t, testRateQ, updates[1].AttitudeRate.Q)
	require.Equal(t, Vector3{X: 1}, *updates[1].Rate)
	require.Nil(t, updates[1].Sensor)

	require.Equal(t, MsgPing, updates[2].MsgID)
	require.Equal(t, BroadcastDevice, updates[2].Device)
	require.Equal(t, byte(2), updates[2].Ping.Major)
	require.False(t, updates[2].Time.IsZero())

	require.Equal(t, uint64(5), s.Frames())
	require.Equal(t, uint64(3), s.Updates())
	require.Equal(t, map[string]uint64{
		"desync":           1,
		"address-mismatch": 1,
		"attitude-sanity":  1,
	}, s.Faults.Snapshot())
}

func TestStreamFeedSplitChunks(t *testing.T) {
	data := testStreamBytes(t)
	s := NewStream(nil, NewParser(DefaultDevice))
	var count int
	s.Handler = HandleUpdateFunc(func(context.Context, *Update) { count++ })
	for i := 0; i < len(data); i += 3 {
		end := i + 3
		if end > len(data) {
			end = len(data)
		}
		s.Feed(context.Background(), data[i:end])
	}
	require.Equal(t, 3, count)
}

func TestStreamTimeout(t *testing.T) {
	r, w := io.Pipe()
	s := NewStream(r, NewParser(DefaultDevice))
	s.Timeout = 10 * time.Millisecond
	updateCh := make(chan *Update, 1)
	s.Handler = HandleUpdateFunc(func(ctx context.Context, u *Update) { updateCh <- u })

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(context.Background()) }()

	frame := mustEncode(t, SensorFrame(DefaultDevice, testSensor), nil)
	_, err := w.Write(frame[:8])
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return s.Faults.Count(FaultStale) == 1
	}, time.Second, time.Millisecond)

	_, err = w.Write(frame)
	require.NoError(t, err)
	select {
	case u := <-updateCh:
		require.Equal(t, testSensor, *u.Sensor)
	case <-time.After(time.Second):
		t.Fatal("update timeout")
	}

	w.Close()
	require.Equal(t, io.EOF, <-errCh)
}

func TestStreamCancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	s := NewStream(r, NewParser(DefaultDevice))
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestNewUpdateSkipsRejected(t *testing.T) {
	p := NewParser(DefaultDevice)
	require.Nil(t, NewUpdate(p, ParseResult{Updated: true, Complete: true, MsgID: MsgAttitude, Fault: FaultAttitudeSanity}, time.Now()))
	require.Nil(t, NewUpdate(p, ParseResult{Complete: true, MsgID: MsgBIT}, time.Now()))
	require.Nil(t, NewUpdate(p, ParseResult{Updated: true, Complete: true, MsgID: MsgBIT}, time.Now()))
	require.NotNil(t, NewUpdate(p, ParseResult{Updated: true, Complete: true, MsgID: MsgIMUFloat}, time.Now()))
}

func TestUpdateString(t *testing.T) {
	u := &Update{
		Device: 0xaa,
		MsgID:  MsgIMUFloat,
		Sensor: &SensorSample{Temp: 20, Acc: Vector3{Z: -1}},
	}
	require.Equal(t,
		"[aa] imu-float temp=20.00 acc=(0.0000 0.0000 -1.0000) rate=(0.0000 0.0000 0.0000) mag=(0.0000 0.0000 0.0000)",
		u.String())
}
