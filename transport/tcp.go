package transport

import (
	"context"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/cube2222/octoframe/serialization"
)

var (
	ErrConnect         = errors.New("couldn't reach executor")
	ErrListen          = errors.New("couldn't listen for executor response")
	ErrResponseTimeout = errors.New("timed out waiting for executor response")
)

const DefaultResponseTimeout = 30 * time.Second

type Options struct {
	// ExecutorAddress is where graphs are sent.
	ExecutorAddress string
	// ListenAddress is where the executor connects back with its response.
	ListenAddress string

	DialTimeout time.Duration
	// ResponseTimeout bounds the wait for a reply. Zero means DefaultResponseTimeout.
	ResponseTimeout time.Duration

	Framing         serialization.Framing
	MaxResponseSize int

	// PersistentListener keeps the response listener bound between exchanges
	// instead of binding a fresh one for every flush.
	PersistentListener bool
}

// TCP sends each graph over a fresh connection to the executor and waits for the
// executor to connect back with exactly one response.
type TCP struct {
	opts Options

	mu       sync.Mutex
	listener net.Listener
}

func NewTCP(opts Options) *TCP {
	if opts.Framing == nil {
		opts.Framing = serialization.Raw{}
	}
	if opts.ResponseTimeout <= 0 {
		opts.ResponseTimeout = DefaultResponseTimeout
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = serialization.DefaultMaxResponseSize
	}
	return &TCP{
		opts: opts,
	}
}

// Exchange delivers payload and returns the executor's response.
// The response listener is bound before sending, so an executor that replies
// immediately can't miss it.
func (t *TCP) Exchange(ctx context.Context, payload []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ln, err := t.listen()
	if err != nil {
		return nil, err
	}
	if !t.opts.PersistentListener {
		defer ln.Close()
	}

	if err := t.send(ctx, payload); err != nil {
		t.discardListener()
		return nil, err
	}

	data, err := t.receive(ctx, ln)
	if err != nil {
		// A late reply to this exchange must not be accepted by the next one.
		t.discardListener()
		return nil, err
	}
	return data, nil
}

func (t *TCP) discardListener() {
	if t.listener == nil {
		return
	}
	if err := t.listener.Close(); err != nil {
		log.Printf("couldn't close response listener: %s", err)
	}
	t.listener = nil
}

func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener == nil {
		return nil
	}
	err := t.listener.Close()
	t.listener = nil
	if err != nil {
		return errors.Wrap(err, "couldn't close response listener")
	}
	return nil
}

func (t *TCP) listen() (net.Listener, error) {
	if t.listener != nil {
		return t.listener, nil
	}
	ln, err := net.Listen("tcp", t.opts.ListenAddress)
	if err != nil {
		return nil, errors.Wrapf(ErrListen, "%s: %s", t.opts.ListenAddress, err)
	}
	if t.opts.PersistentListener {
		t.listener = ln
	}
	return ln, nil
}

func (t *TCP) send(ctx context.Context, payload []byte) error {
	dialer := net.Dialer{Timeout: t.opts.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", t.opts.ExecutorAddress)
	if err != nil {
		return errors.Wrapf(ErrConnect, "couldn't connect to %s: %s", t.opts.ExecutorAddress, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetWriteDeadline(deadline); err != nil {
			return errors.Wrapf(ErrConnect, "couldn't set write deadline: %s", err)
		}
	}
	if _, err := conn.Write(payload); err != nil {
		return errors.Wrapf(ErrConnect, "couldn't write graph to %s: %s", t.opts.ExecutorAddress, err)
	}
	return nil
}

type deadliner interface {
	SetDeadline(t time.Time) error
}

func (t *TCP) receive(ctx context.Context, ln net.Listener) ([]byte, error) {
	deadline := time.Now().Add(t.opts.ResponseTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	dl, ok := ln.(deadliner)
	if !ok {
		return nil, errors.Errorf("listener %T doesn't support deadlines", ln)
	}
	if err := dl.SetDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "couldn't set accept deadline")
	}

	// Cancellation unblocks Accept and Read by moving the deadline into the past.
	var conn net.Conn
	var done bool
	var connMu sync.Mutex
	stop := context.AfterFunc(ctx, func() {
		connMu.Lock()
		defer connMu.Unlock()
		if done {
			return
		}
		dl.SetDeadline(time.Now())
		if conn != nil {
			conn.SetReadDeadline(time.Now())
		}
	})
	defer func() {
		stop()
		connMu.Lock()
		done = true
		connMu.Unlock()
		// A persistent listener outlives this exchange, so it must not keep our deadline.
		dl.SetDeadline(time.Time{})
	}()

	accepted, err := ln.Accept()
	if err != nil {
		return nil, t.receiveError(ctx, err, "couldn't accept executor connection")
	}
	defer accepted.Close()
	log.Printf("executor connected back from %s", accepted.RemoteAddr())

	connMu.Lock()
	conn = accepted
	connMu.Unlock()
	if ctx.Err() != nil {
		return nil, errors.Wrap(ErrResponseTimeout, ctx.Err().Error())
	}

	if err := accepted.SetReadDeadline(deadline); err != nil {
		return nil, errors.Wrap(err, "couldn't set read deadline")
	}

	data, err := t.opts.Framing.ReadResponse(accepted, t.opts.MaxResponseSize)
	if err != nil {
		return nil, t.receiveError(ctx, err, "couldn't read executor response")
	}
	return data, nil
}

func (t *TCP) receiveError(ctx context.Context, err error, msg string) error {
	if ctx.Err() != nil {
		return errors.Wrapf(ErrResponseTimeout, "%s: %s", msg, ctx.Err())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrapf(ErrResponseTimeout, "%s: no response within %s", msg, t.opts.ResponseTimeout)
	}
	return errors.Wrap(err, msg)
}
