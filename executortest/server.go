// Package executortest provides a fake executor speaking the graph protocol,
// for use in tests.
package executortest

import (
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/cube2222/octoframe/plan"
	"github.com/cube2222/octoframe/serialization"
)

// Responder computes the reply to a received graph.
// Returning nil makes the server stay silent, so the client times out.
type Responder func(g plan.Graph) []byte

// Server accepts graphs on its own address and replies by dialing the client back.
type Server struct {
	t        testing.TB
	listener net.Listener

	mu           sync.Mutex
	replyAddress string
	framed       bool
	respond      Responder
	received     []plan.Graph
	raw          [][]byte
	lostReplies  int

	wg sync.WaitGroup
}

// NewServer starts a fake executor on a free loopback port, replying to replyAddress.
// It is shut down when the test finishes.
func NewServer(t testing.TB, replyAddress string) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("couldn't listen: %s", err)
	}
	s := &Server{
		t:            t,
		listener:     ln,
		replyAddress: replyAddress,
		respond: func(g plan.Graph) []byte {
			return []byte("ok")
		},
	}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(s.Close)
	return s
}

// SetResponder replaces the reply function. The default replies "ok".
func (s *Server) SetResponder(r Responder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.respond = r
}

// SetFramed makes replies use serialization.WriteFrame.
func (s *Server) SetFramed(framed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.framed = framed
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Received returns the graphs delivered so far, in arrival order.
func (s *Server) Received() []plan.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]plan.Graph, len(s.received))
	copy(out, s.received)
	return out
}

// RawMessages returns the undecoded messages delivered so far.
func (s *Server) RawMessages() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.raw))
	copy(out, s.raw)
	return out
}

// LostReplies counts replies that couldn't be delivered because the client
// no longer listened, e.g. after it gave up waiting.
func (s *Server) LostReplies() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lostReplies
}

func (s *Server) Close() {
	s.listener.Close()
	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	data, err := io.ReadAll(conn)
	conn.Close()
	if err != nil {
		s.t.Errorf("couldn't read graph: %s", err)
		return
	}

	g, err := serialization.DecodeGraph(data)
	if err != nil {
		s.t.Errorf("couldn't decode graph %q: %s", data, err)
		return
	}
	s.mu.Lock()
	s.received = append(s.received, g)
	s.raw = append(s.raw, data)
	respond, framed, replyAddress := s.respond, s.framed, s.replyAddress
	s.mu.Unlock()

	reply := respond(g)
	if reply == nil {
		return
	}

	out, err := net.DialTimeout("tcp", replyAddress, time.Second)
	if err != nil {
		s.mu.Lock()
		s.lostReplies++
		s.mu.Unlock()
		return
	}
	defer out.Close()
	if framed {
		err = serialization.WriteFrame(out, reply)
	} else {
		_, err = out.Write(reply)
	}
	if err != nil {
		s.t.Errorf("couldn't write reply: %s", err)
	}
}

// FreeAddress returns a loopback address that was free at the time of the call.
func FreeAddress(t testing.TB) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("couldn't find free port: %s", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}
