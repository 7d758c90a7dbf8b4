// Package analysis summarizes recorded sensor updates, e.g. to estimate gyro
// bias and noise of a sensor at rest.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/robotalks/chimu.go/pkg/chimu"
)

// Stats is the mean and standard deviation of one channel.
type Stats struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Axes holds Stats per axis.
type Axes struct {
	X Stats `json:"x"`
	Y Stats `json:"y"`
	Z Stats `json:"z"`
}

// Summary describes a series of sensor and attitude updates.
type Summary struct {
	Sensors   int `json:"sensors"`
	Attitudes int `json:"attitudes"`
	Pings     int `json:"pings"`

	Temp Stats `json:"temp"`
	Acc  Axes  `json:"acc"`
	Rate Axes  `json:"rate"`
	Mag  Axes  `json:"mag"`
	// Norm is the quaternion sum of squares of attitude updates.
	Norm Stats `json:"norm"`
}

type series struct {
	values []float64
}

func (s *series) add(v float32) {
	s.values = append(s.values, float64(v))
}

func (s *series) stats() Stats {
	if len(s.values) == 0 {
		return Stats{}
	}
	st := Stats{Min: math.Inf(1), Max: math.Inf(-1)}
	st.Mean, st.StdDev = stat.MeanStdDev(s.values, nil)
	if len(s.values) == 1 {
		st.StdDev = 0
	}
	for _, v := range s.values {
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
	}
	return st
}

type axes struct {
	x, y, z series
}

func (a *axes) add(v chimu.Vector3) {
	a.x.add(v.X)
	a.y.add(v.Y)
	a.z.add(v.Z)
}

func (a *axes) stats() Axes {
	return Axes{X: a.x.stats(), Y: a.y.stats(), Z: a.z.stats()}
}

// Accumulator collects updates for a Summary.
type Accumulator struct {
	sensors, attitudes, pings int

	temp           series
	acc, rate, mag axes
	norm           series
}

// Add accumulates one update.
func (a *Accumulator) Add(u *chimu.Update) {
	if u.Sensor != nil {
		a.sensors++
		a.temp.add(u.Sensor.Temp)
		a.acc.add(u.Sensor.Acc)
		a.rate.add(u.Sensor.Rate)
		a.mag.add(u.Sensor.Mag)
	}
	if u.Attitude != nil {
		a.attitudes++
		a.norm.add(u.Attitude.Q.SumSquares())
	}
	if u.Ping != nil {
		a.pings++
	}
}

// Summary computes the summary of all updates added so far.
func (a *Accumulator) Summary() *Summary {
	return &Summary{
		Sensors:   a.sensors,
		Attitudes: a.attitudes,
		Pings:     a.pings,
		Temp:      a.temp.stats(),
		Acc:       a.acc.stats(),
		Rate:      a.rate.stats(),
		Mag:       a.mag.stats(),
		Norm:      a.norm.stats(),
	}
}

// Summarize computes the summary of updates.
func Summarize(updates []*chimu.Update) *Summary {
	var a Accumulator
	for _, u := range updates {
		a.Add(u)
	}
	return a.Summary()
}
