package chimu

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFaultString(t *testing.T) {
	require.Equal(t, "none", FaultNone.String())
	require.Equal(t, "checksum-mismatch", FaultChecksumMismatch.String())
	require.Equal(t, "stale", FaultStale.String())
	require.Equal(t, "unknown", Fault(-1).String())
	require.Equal(t, "unknown", numFaults.String())
}

func TestFaultCounters(t *testing.T) {
	var c FaultCounters
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				c.Add(FaultDesync)
			}
		}()
	}
	wg.Wait()
	c.Add(FaultNone)
	c.Add(FaultStale)
	c.Add(Fault(99))

	require.Equal(t, uint64(400), c.Count(FaultDesync))
	require.Equal(t, uint64(0), c.Count(FaultNone))
	require.Equal(t, uint64(0), c.Count(Fault(99)))
	require.Equal(t, map[string]uint64{"desync": 400, "stale": 1}, c.Snapshot())
}

func TestMsgID(t *testing.T) {
	require.Equal(t, "attitude", MsgAttitude.String())
	require.Equal(t, "msg-1f", MsgIDHigh.String())
	require.True(t, MsgIDHigh.IsValid())
	require.False(t, (MsgIDHigh + 1).IsValid())
}

func TestCmdID(t *testing.T) {
	require.Equal(t, "bias", CmdBias.String())
	require.Equal(t, "cal-mag", CmdCalMag.String())
	require.Equal(t, "serial-number", CmdSerialNumber.String())
	require.Equal(t, "cmd-1f", CmdID(0x1f).String())
	require.Equal(t, "imu-raw", MsgID(CmdBias).String())
}
