package env

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/chimu.go/pkg/chimu"
	fx "github.com/robotalks/chimu.go/pkg/framework"
	"github.com/robotalks/chimu.go/pkg/publish"
	"github.com/robotalks/chimu.go/pkg/publish/mqtt"
	"github.com/robotalks/chimu.go/pkg/publish/record"
	"github.com/robotalks/chimu.go/pkg/publish/websocket"
	"github.com/robotalks/chimu.go/pkg/serial"
)

// Env is the decoding pipeline: a byte source feeding a Stream whose
// updates go to all configured publishers.
type Env struct {
	Config     *Config
	Stream     *chimu.Stream
	Publishers *publish.Mux
	// Runners are the background runners, source first.
	Runners []fx.Runnable

	closers []io.Closer
}

// NewEnv creates Env from config.
func (c *Config) NewEnv() (*Env, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	parser, err := c.NewParser()
	if err != nil {
		return nil, err
	}
	codec, err := publish.CodecByName(c.Codec)
	if err != nil {
		return nil, err
	}
	e := &Env{
		Config:     c,
		Stream:     chimu.NewStream(os.Stdin, parser),
		Publishers: &publish.Mux{},
	}
	e.Stream.Timeout = c.Timeout
	e.Stream.Handler = publish.Handler(e.Publishers)

	if err = e.setupPublishers(codec); err != nil {
		e.Close()
		return nil, err
	}
	if err = e.setupSource(); err != nil {
		e.Close()
		return nil, err
	}
	if c.HealthInterval > 0 {
		e.Runners = append(e.Runners, fx.NamedRun("health", fx.RunFunc(e.reportHealth)))
	}
	return e, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

func (e *Env) setupPublishers(codec publish.Codec) error {
	c := e.Config
	if c.MQTTBrokerURL != "" {
		pub, err := mqtt.NewPublisher(c.MQTTBrokerURL, c.Info, codec)
		if err != nil {
			return fmt.Errorf("create MQTT publisher error: %v", err)
		}
		e.Publishers.Add(pub)
		e.Runners = append(e.Runners, pub)
	}
	if c.WebsocketAddr != "" {
		server := websocket.NewServer(c.WebsocketAddr, codec)
		e.Publishers.Add(server)
		e.Runners = append(e.Runners, server)
	}
	if c.RecordFile != "" {
		f, err := os.Create(c.RecordFile)
		if err != nil {
			return fmt.Errorf("create record file error: %v", err)
		}
		e.Publishers.Add(record.NewRecorder(f, codec))
	}
	if e.Publishers.Len() == 0 {
		return fmt.Errorf("at least one publisher is required")
	}
	return nil
}

func (e *Env) setupSource() error {
	c := e.Config
	var capture io.Writer
	if c.CaptureFile != "" {
		f, err := os.Create(c.CaptureFile)
		if err != nil {
			return fmt.Errorf("create capture file error: %v", err)
		}
		e.closers = append(e.closers, f)
		capture = f
	}
	var source fx.Runnable
	if c.Device != "" {
		src := serial.NewSource(c.Device, c.Port, e.Stream)
		src.Capture = capture
		source = src
	} else {
		if capture != nil {
			e.Stream.Reader = io.TeeReader(e.Stream.Reader, capture)
		}
		source = fx.NamedRun("stdin", fx.RunFunc(func(ctx context.Context) error {
			if err := e.Stream.Run(ctx); err != io.EOF {
				return err
			}
			return nil
		}))
	}
	e.Runners = append([]fx.Runnable{source}, e.Runners...)
	return nil
}

// Health takes a snapshot of the stream health.
func (e *Env) Health() *publish.Health {
	return publish.NewHealth(e.Stream, time.Now())
}

func (e *Env) reportHealth(ctx context.Context) error {
	ticker := time.NewTicker(e.Config.HealthInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			h := e.Health()
			glog.V(1).Infof("health: frames=%d updates=%d faults=%v", h.Frames, h.Updates, h.Faults)
			if err := e.Publishers.PublishHealth(ctx, h); err != nil {
				glog.Errorf("publish health error: %v", err)
			}
		}
	}
}

// Run runs all runners until one of them stops or a signal is received.
func (e *Env) Run() error {
	defer e.Close()
	return fx.NewRunner().HandleSignals().Go(e.Runners...).Wait()
}

// Close closes publishers and capture files.
func (e *Env) Close() error {
	var errs fx.AggregatedError
	errs.Add(e.Publishers.Close())
	for _, closer := range e.closers {
		errs.Add(closer.Close())
	}
	e.closers = nil
	return errs.Aggregate()
}
