package chimu

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerFromQuaternion converts an attitude quaternion to Euler angles.
// Phi and Psi are wrapped into [0, 2π). The quaternion is normalized first;
// a zero quaternion has no orientation and yields NaN angles.
func EulerFromQuaternion(q Quaternion) Euler {
	n := quat.Number{
		Real: float64(q.S),
		Imag: float64(q.V.X),
		Jmag: float64(q.V.Y),
		Kmag: float64(q.V.Z),
	}
	n = quat.Scale(1/quat.Abs(n), n)
	w, x, y, z := n.Real, n.Imag, n.Jmag, n.Kmag

	phi := math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	if phi < 0 {
		phi += 2 * math.Pi
	}

	t := 2 * (w*y - z*x)
	if t > 1 {
		t = 1
	} else if t < -1 {
		t = -1
	}

	// Singular orientations are matched exactly, not within a tolerance.
	var theta float64
	switch d := x*y + z*w; d {
	case 0.5:
		theta = 2 * math.Atan2(x, w)
	case -0.5:
		theta = -2 * math.Atan2(x, w)
	default:
		theta = math.Asin(t)
	}

	psi := math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))
	if psi < 0 {
		psi += 2 * math.Pi
	}

	return Euler{Phi: float32(phi), Theta: float32(theta), Psi: float32(psi)}
}

// QuaternionFromEuler converts Euler angles (roll Phi, pitch Theta, yaw Psi,
// applied in yaw, pitch, roll order) to a unit quaternion.
func QuaternionFromEuler(e Euler) Quaternion {
	axis := func(angle float32, i, j, k float64) quat.Number {
		s, c := math.Sincos(float64(angle) / 2)
		return quat.Number{Real: c, Imag: i * s, Jmag: j * s, Kmag: k * s}
	}
	n := quat.Mul(quat.Mul(axis(e.Psi, 0, 0, 1), axis(e.Theta, 0, 1, 0)), axis(e.Phi, 1, 0, 0))
	return Quaternion{
		S: float32(n.Real),
		V: Vector3{X: float32(n.Imag), Y: float32(n.Jmag), Z: float32(n.Kmag)},
	}
}

// Rotate transforms v from the reference frame into the body frame of q.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	n := quat.Number{Real: float64(q.S), Imag: float64(q.V.X), Jmag: float64(q.V.Y), Kmag: float64(q.V.Z)}
	p := quat.Number{Imag: float64(v.X), Jmag: float64(v.Y), Kmag: float64(v.Z)}
	r := quat.Mul(quat.Mul(quat.Conj(n), p), n)
	return Vector3{X: float32(r.Imag), Y: float32(r.Jmag), Z: float32(r.Kmag)}
}
