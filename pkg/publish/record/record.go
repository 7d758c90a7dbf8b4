// Package record writes and replays encoded updates as length-prefixed
// packets, e.g. in a capture file.
package record

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"

	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/publish"
)

// MaxPacketSize limits the size of a packet accepted by ReadPacket.
const MaxPacketSize = 1 << 20

// ErrPacketTooLarge is returned when a length prefix exceeds MaxPacketSize.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter exchanges packets prefixed by 4-byte (little-endian) length.
type ReadWriter struct {
	io.ReadWriter
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{s}
}

// ReadPacket reads one packet.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > MaxPacketSize {
		return nil, ErrPacketTooLarge
	}
	pkt := make([]byte, size)
	if _, err := io.ReadFull(p, pkt); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return pkt, nil
}

// WritePacket writes one packet.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	var prefix [4]byte
	binary.LittleEndian.PutUint32(prefix[:], uint32(len(pkt)))
	if _, err := p.Write(prefix[:]); err != nil {
		return err
	}
	_, err := p.Write(pkt)
	return err
}

type writeOnly struct {
	io.Writer
}

func (writeOnly) Read([]byte) (int, error) {
	return 0, io.EOF
}

type readOnly struct {
	io.Reader
}

func (readOnly) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

// Recorder implements publish.Publisher by appending encoded updates.
// Health reports are not recorded.
type Recorder struct {
	Codec publish.Codec

	lock sync.Mutex
	rw   *ReadWriter
	w    io.Writer
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer, codec publish.Codec) *Recorder {
	if codec == nil {
		codec = publish.DefaultCodec
	}
	return &Recorder{Codec: codec, rw: New(writeOnly{w}), w: w}
}

// Publish implements publish.Publisher.
func (r *Recorder) Publish(ctx context.Context, u *chimu.Update) error {
	pkt, err := r.Codec.Marshal(u)
	if err != nil {
		return err
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.rw.WritePacket(pkt)
}

// Close implements io.Closer, closing the underlying writer if possible.
func (r *Recorder) Close() error {
	if closer, ok := r.w.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Player reads recorded updates.
type Player struct {
	Codec publish.Codec

	rw *ReadWriter
}

// NewPlayer creates a Player reading from r.
func NewPlayer(r io.Reader, codec publish.Codec) *Player {
	if codec == nil {
		codec = publish.DefaultCodec
	}
	return &Player{Codec: codec, rw: New(readOnly{r})}
}

// Next reads the next update. It returns io.EOF at the end of a recording.
func (p *Player) Next() (*chimu.Update, error) {
	pkt, err := p.rw.ReadPacket()
	if err != nil {
		return nil, err
	}
	var u chimu.Update
	if err = p.Codec.Unmarshal(pkt, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Replay publishes all remaining updates to pub. It returns the number of
// updates replayed.
func (p *Player) Replay(ctx context.Context, pub publish.Publisher) (int, error) {
	for count := 0; ; count++ {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		u, err := p.Next()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, err
		}
		if err = pub.Publish(ctx, u); err != nil {
			return count, err
		}
	}
}
