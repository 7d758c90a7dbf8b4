package chimu

import (
	"errors"
	"io"
)

// ErrPayloadTooLarge indicates a payload that cannot fit in a frame.
var ErrPayloadTooLarge = errors.New("payload too large")

// Frame is an unencoded frame.
type Frame struct {
	Device  byte
	MsgID   MsgID
	Payload []byte
}

// Encode returns the wire bytes including sync and checksum.
// A nil Checksum uses DefaultChecksum.
func (f *Frame) Encode(c Checksum) ([]byte, error) {
	if len(f.Payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	if !f.MsgID.IsValid() {
		return nil, errors.New("invalid message id")
	}
	if c == nil {
		c = DefaultChecksum
	}
	b := make([]byte, 0, len(f.Payload)+frameOverhead)
	b = append(b, SyncByte, SyncByte, byte(len(f.Payload)), f.Device, byte(f.MsgID))
	b = append(b, f.Payload...)
	return append(b, c.Sum(b)), nil
}

// WriteTo writes the encoded frame.
func (f *Frame) WriteTo(w io.Writer, c Checksum) (int, error) {
	b, err := f.Encode(c)
	if err != nil {
		return 0, err
	}
	return w.Write(b)
}

// SensorFrame builds an IMU float frame.
func SensorFrame(device byte, s SensorSample) *Frame {
	return &Frame{Device: device, MsgID: MsgIMUFloat, Payload: EncodeSensor(s)}
}

// AttitudeFrame builds an attitude frame.
func AttitudeFrame(device byte, att AttitudeSample, rate Vector3, rateQ Quaternion) *Frame {
	return &Frame{Device: device, MsgID: MsgAttitude, Payload: EncodeAttitude(att, rate, rateQ)}
}

// PingFrame builds a ping reply frame.
func PingFrame(device byte, info PingInfo) *Frame {
	return &Frame{Device: device, MsgID: MsgPing, Payload: EncodePing(info)}
}

// EncodeSensor encodes the IMU float payload.
func EncodeSensor(s SensorSample) []byte {
	b := make([]byte, 0, IMUFloatPayloadSize)
	b = appendFloat32(b, s.Temp)
	b = appendVector3(b, s.Acc)
	b = appendVector3(b, s.Rate)
	b = appendVector3(b, s.Mag)
	return appendFloat32(b, s.Spare1)
}

// EncodeAttitude encodes the attitude payload: Euler angles, body rate,
// attitude quaternion and rate quaternion.
func EncodeAttitude(att AttitudeSample, rate Vector3, rateQ Quaternion) []byte {
	b := make([]byte, 0, AttitudePayloadSize)
	b = appendFloat32(b, att.Euler.Phi, att.Euler.Theta, att.Euler.Psi)
	b = appendVector3(b, rate)
	b = appendQuaternion(b, att.Q)
	return appendQuaternion(b, rateQ)
}

// EncodePing encodes the ping reply payload.
func EncodePing(info PingInfo) []byte {
	return []byte{
		info.Exclaim,
		info.Major,
		info.Minor,
		byte(info.SerialNumber >> 8),
		byte(info.SerialNumber),
	}
}
