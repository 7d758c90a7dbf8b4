package chimu

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Update is a snapshot of the records changed by one frame.
// Only the records carried by MsgID are set.
type Update struct {
	Time   time.Time `json:"time"`
	Device byte      `json:"device"`
	MsgID  MsgID     `json:"msg_id"`

	Sensor       *SensorSample   `json:"sensor,omitempty"`
	Attitude     *AttitudeSample `json:"attitude,omitempty"`
	AttitudeRate *AttitudeSample `json:"attitude_rate,omitempty"`
	Rate         *Vector3        `json:"rate,omitempty"`
	Ping         *PingInfo       `json:"ping,omitempty"`
}

// NewUpdate copies the records changed by the frame reported in pr.
// It returns nil if the frame published nothing.
func NewUpdate(p *Parser, pr ParseResult, t time.Time) *Update {
	if !pr.Updated || pr.Fault != FaultNone {
		return nil
	}
	u := &Update{Time: t, Device: p.Device(), MsgID: pr.MsgID}
	switch pr.MsgID {
	case MsgIMUFloat:
		s := p.Sensor
		u.Sensor = &s
	case MsgAttitude:
		att, rates, rate := p.Attitude, p.AttitudeRate, p.Sensor.Rate
		u.Attitude, u.AttitudeRate, u.Rate = &att, &rates, &rate
	case MsgPing:
		ping := p.Ping
		u.Ping = &ping
	default:
		return nil
	}
	return u
}

// String formats the update for display.
func (u *Update) String() string {
	var w strings.Builder
	fmt.Fprintf(&w, "[%02x] %s", u.Device, u.MsgID)
	if s := u.Sensor; s != nil {
		fmt.Fprintf(&w, " temp=%.2f acc=%s rate=%s mag=%s", s.Temp, s.Acc, s.Rate, s.Mag)
	}
	if a := u.Attitude; a != nil {
		fmt.Fprintf(&w, " euler=%s q=(%.4f %s)", a.Euler, a.Q.S, a.Q.V)
	}
	if r := u.AttitudeRate; r != nil {
		fmt.Fprintf(&w, " euler-rate=%s", r.Euler)
	}
	if p := u.Ping; p != nil {
		fmt.Fprintf(&w, " %c v%d.%d serial=%d", p.Exclaim, p.Major, p.Minor, p.SerialNumber)
	}
	return w.String()
}

// UpdateHandler is called when a frame produced new data.
type UpdateHandler interface {
	HandleUpdate(context.Context, *Update)
}

// HandleUpdateFunc is func type of UpdateHandler.
type HandleUpdateFunc func(context.Context, *Update)

// HandleUpdate implements UpdateHandler.
func (f HandleUpdateFunc) HandleUpdate(ctx context.Context, u *Update) {
	f(ctx, u)
}

// Stream feeds bytes from a reader into a Parser.
type Stream struct {
	Reader  io.Reader
	Parser  *Parser
	Handler UpdateHandler
	// Timeout drops a partial frame when no byte arrives within the
	// duration. Zero waits forever.
	Timeout time.Duration
	// Faults counts rejected bytes and frames.
	Faults FaultCounters

	frames  uint64
	updates uint64
}

const readChunkSize = 64

// NewStream creates a Stream.
func NewStream(r io.Reader, p *Parser) *Stream {
	return &Stream{Reader: r, Parser: p}
}

// Frames returns the number of frames which passed the checksum.
func (s *Stream) Frames() uint64 {
	return atomic.LoadUint64(&s.frames)
}

// Updates returns the number of updates delivered to the handler.
func (s *Stream) Updates() uint64 {
	return atomic.LoadUint64(&s.updates)
}

// Feed parses a chunk of bytes synchronously.
func (s *Stream) Feed(ctx context.Context, data []byte) {
	for _, b := range data {
		s.apply(ctx, s.Parser.Parse(b))
	}
}

// Run reads until the reader fails or ctx is done.
func (s *Stream) Run(ctx context.Context) error {
	dataCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.readLoop(subCtx, dataCh, errCh)

	var staleTimer <-chan time.Time
	for {
		select {
		case data := <-dataCh:
			s.Feed(ctx, data)
			if s.Timeout > 0 && s.Parser.Receiving() {
				staleTimer = time.After(s.Timeout)
			} else {
				staleTimer = nil
			}
		case <-staleTimer:
			staleTimer = nil
			s.apply(ctx, s.Parser.Timeout())
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Stream) readLoop(ctx context.Context, dataCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, readChunkSize)
		n, err := s.Reader.Read(buf)
		if n > 0 {
			select {
			case dataCh <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}

func (s *Stream) apply(ctx context.Context, pr ParseResult) {
	if pr.Fault != FaultNone {
		s.Faults.Add(pr.Fault)
		if glog.V(2) {
			glog.Infof("frame dropped: %s (msg=%s)", pr.Fault, pr.MsgID)
		}
	}
	if pr.Complete {
		atomic.AddUint64(&s.frames, 1)
	}
	u := NewUpdate(s.Parser, pr, time.Now())
	if u == nil {
		return
	}
	atomic.AddUint64(&s.updates, 1)
	if h := s.Handler; h != nil {
		h.HandleUpdate(ctx, u)
	}
}
