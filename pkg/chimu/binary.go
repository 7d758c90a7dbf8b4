package chimu

import (
	"encoding/binary"
	"math"
)

// FieldSize is the wire size of every floating point field.
const FieldSize = 4

// DecodeFloat32 converts a big-endian IEEE-754 field to a host float32.
// b must hold at least FieldSize bytes.
func DecodeFloat32(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}

// DecodeVector3 decodes three consecutive fields.
func DecodeVector3(b []byte) Vector3 {
	return Vector3{
		X: DecodeFloat32(b[0:]),
		Y: DecodeFloat32(b[FieldSize:]),
		Z: DecodeFloat32(b[2*FieldSize:]),
	}
}

// DecodeQuaternion decodes the scalar followed by the vector part.
func DecodeQuaternion(b []byte) Quaternion {
	return Quaternion{S: DecodeFloat32(b), V: DecodeVector3(b[FieldSize:])}
}

// EncodeFloat32 is the inverse of DecodeFloat32.
func EncodeFloat32(b []byte, v float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
}

func appendFloat32(b []byte, vals ...float32) []byte {
	var buf [FieldSize]byte
	for _, v := range vals {
		EncodeFloat32(buf[:], v)
		b = append(b, buf[:]...)
	}
	return b
}

func appendVector3(b []byte, v Vector3) []byte {
	return appendFloat32(b, v.X, v.Y, v.Z)
}

func appendQuaternion(b []byte, q Quaternion) []byte {
	return appendFloat32(b, q.S, q.V.X, q.V.Y, q.V.Z)
}
