package chimu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEulerFromQuaternion(t *testing.T) {
	s45 := float32(math.Sqrt2 / 2)
	testCases := []struct {
		name   string
		q      Quaternion
		expect Euler
	}{
		{"identity", Quaternion{S: 1}, Euler{}},
		{"yaw 90", Quaternion{S: 0.7071, V: Vector3{Z: 0.7071}}, Euler{Psi: math.Pi / 2}},
		{"yaw -90 wraps", Quaternion{S: s45, V: Vector3{Z: -s45}}, Euler{Psi: 3 * math.Pi / 2}},
		{"roll 90", Quaternion{S: s45, V: Vector3{X: s45}}, Euler{Phi: math.Pi / 2}},
		{"roll -90 wraps", Quaternion{S: s45, V: Vector3{X: -s45}}, Euler{Phi: 3 * math.Pi / 2}},
		{"pitch 30", Quaternion{S: float32(math.Cos(math.Pi / 12)), V: Vector3{Y: float32(math.Sin(math.Pi / 12))}}, Euler{Theta: math.Pi / 6}},
		{"not normalized", Quaternion{S: 2}, Euler{}},
		{"scaled yaw", Quaternion{S: 3, V: Vector3{Z: 3}}, Euler{Psi: math.Pi / 2}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := EulerFromQuaternion(tc.q)
			require.InDelta(t, tc.expect.Phi, e.Phi, 1e-4)
			require.InDelta(t, tc.expect.Theta, e.Theta, 1e-4)
			require.InDelta(t, tc.expect.Psi, e.Psi, 1e-4)
		})
	}
}

func TestEulerFromQuaternionGimbalLock(t *testing.T) {
	// x·y + z·w == 0.5: asin would give 0 here, the singular branch π/2.
	e := EulerFromQuaternion(Quaternion{S: 0.5, V: Vector3{X: 0.5, Y: 0.5, Z: 0.5}})
	require.InDelta(t, math.Pi/2, e.Theta, 1e-6)

	// x·y + z·w == -0.5
	e = EulerFromQuaternion(Quaternion{S: 0.5, V: Vector3{X: -0.5, Y: 0.5, Z: -0.5}})
	require.InDelta(t, math.Pi/2, e.Theta, 1e-6)

	// close to but not exactly singular takes the asin branch
	e = EulerFromQuaternion(Quaternion{S: 0.5, V: Vector3{X: 0.5, Y: 0.5, Z: 0.49}})
	require.InDelta(t, 0, e.Theta, 2e-2)
}

func TestEulerFromQuaternionAngleRanges(t *testing.T) {
	for i := 0; i < 64; i++ {
		a := float64(i) * math.Pi / 16
		q := Quaternion{
			S: float32(math.Cos(a / 2)),
			V: Vector3{X: float32(math.Sin(a/2) * 0.6), Y: float32(math.Sin(a/2) * 0.48), Z: float32(math.Sin(a/2) * 0.64)},
		}
		e := EulerFromQuaternion(q)
		require.True(t, e.Phi >= 0 && e.Phi <= 2*math.Pi, "phi %v", e.Phi)
		require.True(t, e.Psi >= 0 && e.Psi <= 2*math.Pi, "psi %v", e.Psi)
		require.True(t, e.Theta >= -math.Pi/2-1e-6 && e.Theta <= math.Pi/2+1e-6, "theta %v", e.Theta)
	}
}

func TestEulerFromZeroQuaternion(t *testing.T) {
	e := EulerFromQuaternion(Quaternion{})
	require.True(t, math.IsNaN(float64(e.Phi)))
	require.True(t, math.IsNaN(float64(e.Psi)))
}

func TestQuaternionSumSquares(t *testing.T) {
	require.Equal(t, float32(1), Quaternion{S: 1}.SumSquares())
	require.InDelta(t, 0.04, Quaternion{S: 0.1, V: Vector3{X: 0.1, Y: 0.1, Z: 0.1}}.SumSquares(), 1e-6)
}

func TestQuaternionFromEuler(t *testing.T) {
	for _, e := range []Euler{
		{},
		{Phi: 0.3},
		{Theta: -0.4},
		{Psi: 2},
		{Phi: 1, Theta: 0.5, Psi: 4},
		{Phi: 5.5, Theta: -1.2, Psi: 0.1},
	} {
		q := QuaternionFromEuler(e)
		require.InDelta(t, 1, q.SumSquares(), 1e-5)
		back := EulerFromQuaternion(q)
		require.InDelta(t, e.Phi, back.Phi, 1e-4, "phi of %+v", e)
		require.InDelta(t, e.Theta, back.Theta, 1e-4, "theta of %+v", e)
		require.InDelta(t, e.Psi, back.Psi, 1e-4, "psi of %+v", e)
	}
}

func TestQuaternionRotate(t *testing.T) {
	down := Vector3{Z: -1}
	v := QuaternionFromEuler(Euler{Psi: 1.2}).Rotate(down)
	require.InDelta(t, 0, v.X, 1e-6)
	require.InDelta(t, 0, v.Y, 1e-6)
	require.InDelta(t, -1, v.Z, 1e-6)

	v = QuaternionFromEuler(Euler{Phi: math.Pi / 2}).Rotate(down)
	require.InDelta(t, 0, v.X, 1e-6)
	require.InDelta(t, -1, v.Y, 1e-6)
	require.InDelta(t, 0, v.Z, 1e-6)
}
