package chimu

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// jsonFloat encodes NaN and infinities as the strings "NaN", "Infinity" and
// "-Infinity", the form protobuf JSON uses for non-finite numbers.
type jsonFloat float32

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte(`"NaN"`), nil
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 32), nil
}

func (f *jsonFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	switch s {
	case "null":
		return nil
	case `"NaN"`:
		*f = jsonFloat(math.NaN())
		return nil
	case `"Infinity"`:
		*f = jsonFloat(math.Inf(1))
		return nil
	case `"-Infinity"`:
		*f = jsonFloat(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return fmt.Errorf("invalid float %s", s)
	}
	*f = jsonFloat(v)
	return nil
}

type jsonVector3 struct {
	X jsonFloat `json:"x"`
	Y jsonFloat `json:"y"`
	Z jsonFloat `json:"z"`
}

// MarshalJSON implements json.Marshaler.
func (v Vector3) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonVector3{X: jsonFloat(v.X), Y: jsonFloat(v.Y), Z: jsonFloat(v.Z)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Vector3) UnmarshalJSON(data []byte) error {
	j := jsonVector3{X: jsonFloat(v.X), Y: jsonFloat(v.Y), Z: jsonFloat(v.Z)}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*v = Vector3{X: float32(j.X), Y: float32(j.Y), Z: float32(j.Z)}
	return nil
}

type jsonEuler struct {
	Phi   jsonFloat `json:"phi"`
	Theta jsonFloat `json:"theta"`
	Psi   jsonFloat `json:"psi"`
}

// MarshalJSON implements json.Marshaler.
func (e Euler) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonEuler{Phi: jsonFloat(e.Phi), Theta: jsonFloat(e.Theta), Psi: jsonFloat(e.Psi)})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Euler) UnmarshalJSON(data []byte) error {
	j := jsonEuler{Phi: jsonFloat(e.Phi), Theta: jsonFloat(e.Theta), Psi: jsonFloat(e.Psi)}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*e = Euler{Phi: float32(j.Phi), Theta: float32(j.Theta), Psi: float32(j.Psi)}
	return nil
}

type jsonQuaternion struct {
	S jsonFloat `json:"s"`
	V Vector3   `json:"v"`
}

// MarshalJSON implements json.Marshaler.
func (q Quaternion) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonQuaternion{S: jsonFloat(q.S), V: q.V})
}

// UnmarshalJSON implements json.Unmarshaler.
func (q *Quaternion) UnmarshalJSON(data []byte) error {
	j := jsonQuaternion{S: jsonFloat(q.S), V: q.V}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*q = Quaternion{S: float32(j.S), V: j.V}
	return nil
}

type jsonSensorSample struct {
	Temp   jsonFloat `json:"temp"`
	Acc    Vector3   `json:"acc"`
	Rate   Vector3   `json:"rate"`
	Mag    Vector3   `json:"mag"`
	Spare1 jsonFloat `json:"spare1"`
}

// MarshalJSON implements json.Marshaler.
func (s SensorSample) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonSensorSample{
		Temp:   jsonFloat(s.Temp),
		Acc:    s.Acc,
		Rate:   s.Rate,
		Mag:    s.Mag,
		Spare1: jsonFloat(s.Spare1),
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SensorSample) UnmarshalJSON(data []byte) error {
	j := jsonSensorSample{
		Temp:   jsonFloat(s.Temp),
		Acc:    s.Acc,
		Rate:   s.Rate,
		Mag:    s.Mag,
		Spare1: jsonFloat(s.Spare1),
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*s = SensorSample{
		Temp:   float32(j.Temp),
		Acc:    j.Acc,
		Rate:   j.Rate,
		Mag:    j.Mag,
		Spare1: float32(j.Spare1),
	}
	return nil
}
