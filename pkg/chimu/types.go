package chimu

import "fmt"

// Vector3 is a 3-axis measurement.
type Vector3 struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

func (v Vector3) String() string {
	return fmt.Sprintf("(%.4f %.4f %.4f)", v.X, v.Y, v.Z)
}

// Quaternion is a rotation with scalar S and vector part V.
type Quaternion struct {
	S float32 `json:"s"`
	V Vector3 `json:"v"`
}

// SumSquares returns S² + X² + Y² + Z², which is 1 for a unit quaternion.
func (q Quaternion) SumSquares() float32 {
	return q.S*q.S + q.V.X*q.V.X + q.V.Y*q.V.Y + q.V.Z*q.V.Z
}

// Euler is a roll/pitch/yaw triplet in radians.
type Euler struct {
	Phi   float32 `json:"phi"`
	Theta float32 `json:"theta"`
	Psi   float32 `json:"psi"`
}

func (e Euler) String() string {
	return fmt.Sprintf("(%.4f %.4f %.4f)", e.Phi, e.Theta, e.Psi)
}

// SensorSample is the floating point IMU record.
type SensorSample struct {
	Temp   float32 `json:"temp"`
	Acc    Vector3 `json:"acc"`
	Rate   Vector3 `json:"rate"`
	Mag    Vector3 `json:"mag"`
	Spare1 float32 `json:"spare1"`
}

// AttitudeSample holds an attitude (or attitude rate) as both Euler angles
// and a quaternion.
type AttitudeSample struct {
	Euler Euler      `json:"euler"`
	Q     Quaternion `json:"q"`
}

// PingInfo is the firmware identification carried by a ping reply.
type PingInfo struct {
	Exclaim      byte   `json:"exclaim"`
	Major        byte   `json:"major"`
	Minor        byte   `json:"minor"`
	SerialNumber uint16 `json:"serial_number"`
}
