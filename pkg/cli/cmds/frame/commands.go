package frame

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/cli/sh"
	"github.com/robotalks/chimu.go/pkg/sim"
)

func printFrame(c *ishell.Context, f *chimu.Frame) {
	data, err := f.Encode(sh.ShellFrom(c).Parser.Checksum)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(hex.EncodeToString(data))
}

func floatArgs(c *ishell.Context, names ...string) ([]float32, bool) {
	if len(c.Args) < len(names) {
		c.Err(fmt.Errorf("%v required", names))
		return nil, false
	}
	vals, err := sh.ParseFloats(c.Args[:len(names)])
	if err != nil {
		c.Err(err)
		return nil, false
	}
	return vals, true
}

func device(c *ishell.Context) byte {
	return sh.ShellFrom(c).Parser.OwnDevice()
}

var (
	// FrameCmd builds encoded frames addressed to the shell device.
	FrameCmd = ishell.Cmd{
		Name: "frame",
		Help: "build frames",
	}

	// FramePingCmd builds a ping reply frame.
	FramePingCmd = ishell.Cmd{
		Name: "ping",
		Help: "MAJOR MINOR SERIAL",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 3 {
				c.Err(fmt.Errorf("MAJOR MINOR SERIAL required"))
				return
			}
			var vals [3]uint64
			for n, bits := range []int{8, 8, 16} {
				val, err := strconv.ParseUint(c.Args[n], 0, bits)
				if err != nil {
					c.Err(err)
					return
				}
				vals[n] = val
			}
			printFrame(c, chimu.PingFrame(device(c), chimu.PingInfo{
				Exclaim:      '!',
				Major:        byte(vals[0]),
				Minor:        byte(vals[1]),
				SerialNumber: uint16(vals[2]),
			}))
		},
	}

	// FrameSensorCmd builds an IMU float frame.
	FrameSensorCmd = ishell.Cmd{
		Name: "sensor",
		Help: "TEMP AX AY AZ GX GY GZ MX MY MZ",
		Func: func(c *ishell.Context) {
			v, ok := floatArgs(c, "TEMP", "AX", "AY", "AZ", "GX", "GY", "GZ", "MX", "MY", "MZ")
			if !ok {
				return
			}
			printFrame(c, chimu.SensorFrame(device(c), chimu.SensorSample{
				Temp: v[0],
				Acc:  chimu.Vector3{X: v[1], Y: v[2], Z: v[3]},
				Rate: chimu.Vector3{X: v[4], Y: v[5], Z: v[6]},
				Mag:  chimu.Vector3{X: v[7], Y: v[8], Z: v[9]},
			}))
		},
	}

	// FrameAttitudeCmd builds an attitude frame from angles in degrees.
	FrameAttitudeCmd = ishell.Cmd{
		Name: "attitude",
		Help: "ROLL PITCH YAW (degrees)",
		Func: func(c *ishell.Context) {
			v, ok := floatArgs(c, "ROLL", "PITCH", "YAW")
			if !ok {
				return
			}
			pose := sim.Pose{
				Roll:  sim.AngleFromDegrees(float64(v[0])),
				Pitch: sim.AngleFromDegrees(float64(v[1])),
				Yaw:   sim.AngleFromDegrees(float64(v[2])),
			}
			e := pose.Euler()
			att := chimu.AttitudeSample{Euler: e, Q: chimu.QuaternionFromEuler(e)}
			printFrame(c, chimu.AttitudeFrame(device(c), att, chimu.Vector3{}, chimu.Quaternion{}))
		},
	}

	// FrameRawCmd builds a frame with arbitrary payload.
	FrameRawCmd = ishell.Cmd{
		Name: "raw",
		Help: "ID [HEX...]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("ID required"))
				return
			}
			id, err := strconv.ParseUint(c.Args[0], 0, 8)
			if err != nil {
				c.Err(fmt.Errorf("invalid ID: %v", err))
				return
			}
			payload, err := sh.ParseHex(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			printFrame(c, &chimu.Frame{Device: device(c), MsgID: chimu.MsgID(id), Payload: payload})
		},
	}

	// EulerCmd converts a quaternion to Euler angles.
	EulerCmd = ishell.Cmd{
		Name: "euler",
		Help: "S X Y Z",
		Func: func(c *ishell.Context) {
			v, ok := floatArgs(c, "S", "X", "Y", "Z")
			if !ok {
				return
			}
			e := chimu.EulerFromQuaternion(chimu.Quaternion{S: v[0], V: chimu.Vector3{X: v[1], Y: v[2], Z: v[3]}})
			if sh.ShellFrom(c).OutputJSON {
				sh.Print(c, &e)
				return
			}
			c.Printf("roll=%.3f° pitch=%.3f° yaw=%.3f°\n",
				sim.Angle(e.Phi).Degrees(), sim.Angle(e.Theta).Degrees(), sim.Angle(e.Psi).Degrees())
		},
	}

	// ChecksumCmd computes or selects the frame checksum.
	ChecksumCmd = ishell.Cmd{
		Name: "checksum",
		Help: "[NAME [HEX...]]",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if len(c.Args) == 0 {
				c.Println(chimu.ChecksumNames())
				return
			}
			cs, err := chimu.ChecksumByName(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if len(c.Args) == 1 {
				s.Parser.Checksum = cs
				return
			}
			data, err := sh.ParseHex(c.Args[1:])
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%02x\n", cs.Sum(data))
		},
	}
)

func init() {
	FrameCmd.AddCmd(&FramePingCmd)
	FrameCmd.AddCmd(&FrameSensorCmd)
	FrameCmd.AddCmd(&FrameAttitudeCmd)
	FrameCmd.AddCmd(&FrameRawCmd)
	sh.AddCmds(
		&FrameCmd,
		&EulerCmd,
		&ChecksumCmd,
	)
}
