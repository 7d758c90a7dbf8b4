package chimu

import "fmt"

// MsgID identifies the payload layout of a frame.
type MsgID byte

// Messages sent by the sensor.
const (
	MsgPing       MsgID = 0x00
	MsgIMURaw     MsgID = 0x01
	MsgIMUFloat   MsgID = 0x02
	MsgAttitude   MsgID = 0x03
	MsgBiasSF     MsgID = 0x04
	MsgBIT        MsgID = 0x05
	MsgMagCal     MsgID = 0x06
	MsgGyroBias   MsgID = 0x07
	MsgTempCal    MsgID = 0x08
	MsgDACOffsets MsgID = 0x09
	MsgRes10      MsgID = 0x0a
	MsgRes11      MsgID = 0x0b
	MsgRes12      MsgID = 0x0c
	MsgRes13      MsgID = 0x0d
	MsgRefVector  MsgID = 0x0e
	MsgSFCheck    MsgID = 0x0f
)

// CmdID identifies a host to sensor command. Command ids share the numbering
// space with MsgID but name different payloads.
type CmdID byte

// Messages sent to the sensor. Only the identifiers are defined here, the
// command payloads are not encoded by this package.
const (
	CmdPing         CmdID = 0x00
	CmdBias         CmdID = 0x01
	CmdDACMode      CmdID = 0x02
	CmdCalAcc       CmdID = 0x03
	CmdCalMag       CmdID = 0x04
	CmdCalRate      CmdID = 0x05
	CmdConfigClear  CmdID = 0x06
	CmdConfigSet    CmdID = 0x07
	CmdSaveGyroBias CmdID = 0x08
	CmdEstimator    CmdID = 0x09
	CmdSFCheck      CmdID = 0x0a
	CmdCentrip      CmdID = 0x0b
	CmdInitGyros    CmdID = 0x0c
	CmdDeviceID     CmdID = 0x0d
	CmdRefVector    CmdID = 0x0e
	CmdReset        CmdID = 0x0f
	CmdUARTSettings CmdID = 0x10
	CmdSerialNumber CmdID = 0x11
)

// Valid message id range accepted in a frame header.
const (
	MsgIDLow  MsgID = 0x00
	MsgIDHigh MsgID = 0x1f
)

// Payload sizes of the decoded messages.
const (
	PingPayloadSize     = 5
	IMUFloatPayloadSize = 11 * FieldSize
	AttitudePayloadSize = 14 * FieldSize
)

var msgNames = map[MsgID]string{
	MsgPing:       "ping",
	MsgIMURaw:     "imu-raw",
	MsgIMUFloat:   "imu-float",
	MsgAttitude:   "attitude",
	MsgBiasSF:     "bias-sf",
	MsgBIT:        "bit",
	MsgMagCal:     "mag-cal",
	MsgGyroBias:   "gyro-bias",
	MsgTempCal:    "temp-cal",
	MsgDACOffsets: "dac-offsets",
	MsgRes10:      "res10",
	MsgRes11:      "res11",
	MsgRes12:      "res12",
	MsgRes13:      "res13",
	MsgRefVector:  "ref-vector",
	MsgSFCheck:    "sf-check",
}

// IsValid tells whether the id may appear in a frame header.
func (id MsgID) IsValid() bool {
	return id >= MsgIDLow && id <= MsgIDHigh
}

// String implements fmt.Stringer.
func (id MsgID) String() string {
	if name, ok := msgNames[id]; ok {
		return name
	}
	return fmt.Sprintf("msg-%02x", byte(id))
}

var cmdNames = map[CmdID]string{
	CmdPing:         "ping",
	CmdBias:         "bias",
	CmdDACMode:      "dac-mode",
	CmdCalAcc:       "cal-acc",
	CmdCalMag:       "cal-mag",
	CmdCalRate:      "cal-rate",
	CmdConfigClear:  "config-clear",
	CmdConfigSet:    "config-set",
	CmdSaveGyroBias: "save-gyro-bias",
	CmdEstimator:    "estimator",
	CmdSFCheck:      "sf-check",
	CmdCentrip:      "centrip",
	CmdInitGyros:    "init-gyros",
	CmdDeviceID:     "device-id",
	CmdRefVector:    "ref-vector",
	CmdReset:        "reset",
	CmdUARTSettings: "uart-settings",
	CmdSerialNumber: "serial-number",
}

// String implements fmt.Stringer.
func (id CmdID) String() string {
	if name, ok := cmdNames[id]; ok {
		return name
	}
	return fmt.Sprintf("cmd-%02x", byte(id))
}
