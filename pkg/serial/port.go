// Package serial connects a CHIMU sensor on a serial port to a stream parser.
package serial

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/robotalks/chimu.go/pkg/chimu"
	fx "github.com/robotalks/chimu.go/pkg/framework"
)

// Open opens the serial port at path.
func Open(path string, opts PortOptions) (serial.Port, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}
	return serial.Open(path, mode)
}

// Opener opens the byte source, Open by default.
type Opener func(path string, opts PortOptions) (io.ReadCloser, error)

// DefaultReconnectDelay is the wait between attempts to reopen the port.
const DefaultReconnectDelay = time.Second

// Source feeds a Stream from a serial port and reopens the port when it
// fails.
type Source struct {
	Path           string
	Options        PortOptions
	Stream         *chimu.Stream
	ReconnectDelay time.Duration
	// Capture receives a copy of all bytes read, if set.
	Capture io.Writer
	// Open overrides how the port is opened.
	Open Opener
}

// NewSource creates a Source.
func NewSource(path string, opts PortOptions, stream *chimu.Stream) *Source {
	return &Source{
		Path:           path,
		Options:        opts,
		Stream:         stream,
		ReconnectDelay: DefaultReconnectDelay,
	}
}

// Name implements Named.
func (s *Source) Name() string {
	return "serial:" + s.Path
}

// Run implements Runnable.
func (s *Source) Run(ctx context.Context) error {
	for {
		err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		glog.Warningf("serial %s: %v, reconnect in %v", s.Path, err, s.ReconnectDelay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.ReconnectDelay):
		}
	}
}

func (s *Source) runOnce(ctx context.Context) error {
	open := s.Open
	if open == nil {
		open = func(path string, opts PortOptions) (io.ReadCloser, error) {
			return Open(path, opts)
		}
	}
	port, err := open(s.Path, s.Options)
	if err != nil {
		return err
	}
	glog.Infof("serial %s opened (%s)", s.Path, s.Options)

	// bytes of a frame interrupted by the reconnect are discarded
	s.Stream.Parser.Reset()
	var r io.Reader = port
	if s.Capture != nil {
		r = io.TeeReader(port, s.Capture)
	}
	s.Stream.Reader = r
	return fx.RunWithContextCloser(ctx, port, func() error {
		return s.Stream.Run(ctx)
	})
}
