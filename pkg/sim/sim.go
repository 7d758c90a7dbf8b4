// Package sim generates a synthetic CHIMU byte stream of a sensor rotating
// at constant rates.
package sim

import (
	"context"
	"io"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/robotalks/chimu.go/pkg/chimu"
)

// Gravity is the reference acceleration in g, pointing down.
var Gravity = chimu.Vector3{Z: -1}

// North is the reference magnetic field, normalized.
var North = chimu.Vector3{X: 1}

// Pose is the orientation of the simulated sensor.
type Pose struct {
	Roll, Pitch, Yaw Angle
}

// Euler converts the pose to sensor Euler angles.
func (p Pose) Euler() chimu.Euler {
	return chimu.Euler{
		Phi:   float32(p.Roll.Positive()),
		Theta: float32(p.Pitch),
		Psi:   float32(p.Yaw.Positive()),
	}
}

// Motion is a constant rate rotation.
type Motion struct {
	Start Pose
	// Rate is the angular rate in rad/s around the roll, pitch and yaw axes.
	Rate chimu.Vector3
}

// Estimate computes the pose after elapsed.
func (m Motion) Estimate(elapsed time.Duration) Pose {
	sec := elapsed.Seconds()
	pose := m.Start
	pose.Roll = pose.Roll.AddRadians(sec * float64(m.Rate.X))
	pose.Pitch = pose.Pitch.AddRadians(sec * float64(m.Rate.Y))
	pose.Yaw = pose.Yaw.AddRadians(sec * float64(m.Rate.Z))
	return pose
}

// Simulator produces sensor and attitude frames.
type Simulator struct {
	Device   byte
	Motion   Motion
	Temp     float32
	Checksum chimu.Checksum
	Ping     chimu.PingInfo
	// PingEvery emits a ping frame every N ticks, 0 disables.
	PingEvery int
	// Noise is the standard deviation added to sensor channels.
	Noise float64

	ticks int
}

// New creates a Simulator.
func New(device byte, motion Motion) *Simulator {
	return &Simulator{
		Device: device,
		Motion: motion,
		Temp:   25,
		Ping:   chimu.PingInfo{Exclaim: '!', Major: 1, Minor: 0},
	}
}

func (s *Simulator) noisy(v chimu.Vector3) chimu.Vector3 {
	if s.Noise <= 0 {
		return v
	}
	n := distuv.Normal{Sigma: s.Noise}
	v.X += float32(n.Rand())
	v.Y += float32(n.Rand())
	v.Z += float32(n.Rand())
	return v
}

// Frames returns the frames for one tick at elapsed time.
func (s *Simulator) Frames(elapsed time.Duration) []*chimu.Frame {
	pose := s.Motion.Estimate(elapsed)
	q := chimu.QuaternionFromEuler(pose.Euler())
	sensor := chimu.SensorSample{
		Temp: s.Temp,
		Acc:  s.noisy(q.Rotate(Gravity)),
		Rate: s.noisy(s.Motion.Rate),
		Mag:  s.noisy(q.Rotate(North)),
	}
	rate := s.Motion.Rate
	att := chimu.AttitudeSample{Euler: pose.Euler(), Q: q}
	rateQ := chimu.Quaternion{V: rate}
	frames := []*chimu.Frame{
		chimu.SensorFrame(s.Device, sensor),
		chimu.AttitudeFrame(s.Device, att, rate, rateQ),
	}
	if s.PingEvery > 0 && s.ticks%s.PingEvery == 0 {
		frames = append(frames, chimu.PingFrame(s.Device, s.Ping))
	}
	s.ticks++
	return frames
}

// WriteFrames encodes the frames for one tick to w.
func (s *Simulator) WriteFrames(w io.Writer, elapsed time.Duration) error {
	for _, f := range s.Frames(elapsed) {
		if _, err := f.WriteTo(w, s.Checksum); err != nil {
			return err
		}
	}
	return nil
}

// Run writes frames to w every interval until ctx is done.
func (s *Simulator) Run(ctx context.Context, w io.Writer, interval time.Duration) error {
	start := time.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := s.WriteFrames(w, now.Sub(start)); err != nil {
				return err
			}
		}
	}
}
