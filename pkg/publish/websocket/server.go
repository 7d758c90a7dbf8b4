// Package websocket fans sensor updates out to websocket clients.
package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/chimu.go/pkg/chimu"
	"github.com/robotalks/chimu.go/pkg/publish"
)

// DefaultQueueSize is the number of encoded updates buffered per client.
const DefaultQueueSize = 64

// Conn wraps websocket.Conn for exchanging encoded packets.
type Conn websocket.Conn

// NewConn wraps websocket.Conn.
func NewConn(conn *websocket.Conn) *Conn {
	return (*Conn)(conn)
}

// ReadPacket receives one message.
func (c *Conn) ReadPacket() (pkt []byte, err error) {
	err = websocket.Message.Receive((*websocket.Conn)(c), &pkt)
	return
}

// WritePacket sends one binary message.
func (c *Conn) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(c), pkt)
}

// Server implements publish.Publisher by broadcasting every update to all
// connected clients. A client which can't keep up loses updates.
type Server struct {
	Addr      string
	Codec     publish.Codec
	QueueSize int

	lock    sync.Mutex
	clients map[*Conn]chan []byte
}

// NewServer creates a Server.
func NewServer(addr string, codec publish.Codec) *Server {
	if codec == nil {
		codec = publish.DefaultCodec
	}
	return &Server{Addr: addr, Codec: codec, QueueSize: DefaultQueueSize}
}

// Name implements framework.Named.
func (s *Server) Name() string {
	return "websocket"
}

// Handler returns the http.Handler accepting websocket clients.
func (s *Server) Handler() http.Handler {
	return websocket.Handler(s.serve)
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.clients)
}

// Publish implements publish.Publisher.
func (s *Server) Publish(ctx context.Context, u *chimu.Update) error {
	pkt, err := s.Codec.Marshal(u)
	if err != nil {
		return err
	}
	s.broadcast(pkt)
	return nil
}

// PublishHealth implements publish.HealthPublisher.
func (s *Server) PublishHealth(ctx context.Context, h *publish.Health) error {
	pkt, err := s.Codec.Marshal(h)
	if err != nil {
		return err
	}
	s.broadcast(pkt)
	return nil
}

// Run implements Runnable.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{Addr: s.Addr, Handler: s.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	// Hijacked connections are not tracked by http.Server.
	s.closeAll()
	server.Close()
	return nil
}

func (s *Server) broadcast(pkt []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- pkt:
		default:
			glog.V(2).Info("websocket client queue full, update dropped")
		}
	}
}

func (s *Server) add(conn *Conn) chan []byte {
	size := s.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	ch := make(chan []byte, size)
	s.lock.Lock()
	if s.clients == nil {
		s.clients = make(map[*Conn]chan []byte)
	}
	s.clients[conn] = ch
	s.lock.Unlock()
	return ch
}

func (s *Server) remove(conn *Conn) {
	s.lock.Lock()
	if ch, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(ch)
	}
	s.lock.Unlock()
}

func (s *Server) closeAll() {
	s.lock.Lock()
	for conn, ch := range s.clients {
		delete(s.clients, conn)
		close(ch)
	}
	s.lock.Unlock()
}

func (s *Server) serve(ws *websocket.Conn) {
	ws.PayloadType = websocket.BinaryFrame
	conn := NewConn(ws)
	ch := s.add(conn)
	defer s.remove(conn)
	glog.Infof("websocket client %s connected", ws.Request().RemoteAddr)

	// Reading detects the client going away.
	go func() {
		for {
			if _, err := conn.ReadPacket(); err != nil {
				s.remove(conn)
				return
			}
		}
	}()
	for pkt := range ch {
		if err := conn.WritePacket(pkt); err != nil {
			glog.Warningf("websocket client %s: %v", ws.Request().RemoteAddr, err)
			return
		}
	}
}
