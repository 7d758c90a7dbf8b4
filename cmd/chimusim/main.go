package main

import (
	"context"
	"flag"
	"io"
	"log"
	"math"
	"os"
	"time"

	"github.com/robotalks/chimu.go/pkg/chimu"
	fx "github.com/robotalks/chimu.go/pkg/framework"
	"github.com/robotalks/chimu.go/pkg/serial"
	"github.com/robotalks/chimu.go/pkg/sim"
)

var (
	device       = "-"
	baudRate     = serial.DefaultBaudRate
	ownDevice    = uint(chimu.DefaultDevice)
	checksumName string
	hz           = 50.0
	duration     time.Duration
	noise        float64
	pingEvery    = 100
	rollRate     float64
	pitchRate    float64
	yawRate      = 10.0
)

func init() {
	flag.StringVar(&device, "device", device, "Serial port to write, - for stdout.")
	flag.IntVar(&baudRate, "baud", baudRate, "Serial baud rate.")
	flag.UintVar(&ownDevice, "own-device", ownDevice, "Device ID in frames.")
	flag.StringVar(&checksumName, "checksum", checksumName, "Frame checksum.")
	flag.Float64Var(&hz, "hz", hz, "Frames per second.")
	flag.DurationVar(&duration, "duration", duration, "Stop after duration, 0 runs forever.")
	flag.Float64Var(&noise, "noise", noise, "Sensor noise standard deviation.")
	flag.IntVar(&pingEvery, "ping-every", pingEvery, "Emit a ping frame every N ticks, 0 disables.")
	flag.Float64Var(&rollRate, "roll-rate", rollRate, "Roll rate in degrees/s.")
	flag.Float64Var(&pitchRate, "pitch-rate", pitchRate, "Pitch rate in degrees/s.")
	flag.Float64Var(&yawRate, "yaw-rate", yawRate, "Yaw rate in degrees/s.")
}

func degrees(d float64) float32 {
	return float32(d * math.Pi / 180)
}

func main() {
	flag.Parse()

	checksum, err := chimu.ChecksumByName(checksumName)
	if err != nil {
		log.Fatalln(err)
	}
	if hz <= 0 || ownDevice > 0xff {
		log.Fatalln("invalid -hz or -own-device")
	}

	var w io.WriteCloser = os.Stdout
	if device != "-" {
		if w, err = serial.Open(device, serial.PortOptions{BaudRate: baudRate}); err != nil {
			log.Fatalln(err)
		}
	}
	defer w.Close()

	s := sim.New(byte(ownDevice), sim.Motion{
		Rate: chimu.Vector3{X: degrees(rollRate), Y: degrees(pitchRate), Z: degrees(yawRate)},
	})
	s.Checksum = checksum
	s.Noise = noise
	s.PingEvery = pingEvery

	runner := fx.NewRunner().HandleSignals()
	if duration > 0 {
		runner.Go(fx.RunFunc(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
			case <-time.After(duration):
			}
			return nil
		}))
	}
	runner.Go(fx.NamedRun("sim", fx.RunFunc(func(ctx context.Context) error {
		return s.Run(ctx, w, time.Duration(float64(time.Second)/hz))
	})))
	if err := runner.Wait(); err != nil {
		log.Fatalln(err)
	}
}
