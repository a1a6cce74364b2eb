package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mash-protocol/crossval-go/pkg/hub"
	"github.com/mash-protocol/crossval-go/pkg/log"
)

// DefaultAddress is the default host link listen address.
const DefaultAddress = "127.0.0.1:7420"

// DefaultWriteTimeout bounds a single outbound frame write.
const DefaultWriteTimeout = 5 * time.Second

// DefaultSendQueueSize is the number of outbound frames buffered per
// connection.
const DefaultSendQueueSize = 16

// Accept retry backoff bounds.
const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Link errors.
var (
	ErrNoPoster         = errors.New("event poster is required")
	ErrUnknownEndpoint  = errors.New("no connection for host endpoint")
	ErrLinkRunning      = errors.New("host link already running")
	ErrConnectionClosed = errors.New("connection closed")
	ErrSendQueueFull    = errors.New("connection send queue full")
)

// LinkConfig configures a HostLink.
type LinkConfig struct {
	// Address to listen on (default: DefaultAddress).
	Address string

	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// WriteTimeout bounds each outbound write (default: DefaultWriteTimeout).
	// A connection whose write times out is closed.
	WriteTimeout time.Duration

	// SendQueueSize is the per-connection outbound queue capacity
	// (default: DefaultSendQueueSize).
	SendQueueSize int

	// Poster receives an EventMessageFromHost for every inbound frame.
	Poster hub.EventPoster

	// Logger is the optional logger for operational output.
	Logger *slog.Logger

	// ProtocolLogger captures frames and connection state (optional).
	ProtocolLogger log.Logger
}

// HostLink is the agent side of the host connection. Inbound frames are
// posted to the event loop as if relayed by the hub runtime, and replies
// are routed to the connection that last used the target endpoint.
type HostLink struct {
	config   LinkConfig
	listener net.Listener

	mu     sync.RWMutex
	conns  map[*hostConn]struct{}
	routes map[uint16]*hostConn

	running       atomic.Bool
	framesDropped atomic.Int64
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewHostLink creates a host link. Call Start to begin accepting.
func NewHostLink(config LinkConfig) (*HostLink, error) {
	if config.Poster == nil {
		return nil, ErrNoPoster
	}
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.SendQueueSize <= 0 {
		config.SendQueueSize = DefaultSendQueueSize
	}

	return &HostLink{
		config: config,
		conns:  make(map[*hostConn]struct{}),
		routes: make(map[uint16]*hostConn),
	}, nil
}

// Start listens on the configured address and accepts connections until
// Stop is called or ctx is cancelled.
func (l *HostLink) Start(ctx context.Context) error {
	if l.running.Load() {
		return ErrLinkRunning
	}

	listener, err := net.Listen("tcp", l.config.Address)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	l.listener = listener
	l.ctx, l.cancel = context.WithCancel(ctx)
	l.running.Store(true)

	l.wg.Add(2)
	go l.acceptLoop()
	go func() {
		defer l.wg.Done()
		<-l.ctx.Done()
		l.shutdown()
	}()

	l.infoLog("host link listening", "address", listener.Addr().String())
	return nil
}

// Stop closes the listener and all connections and waits for their
// goroutines to finish.
func (l *HostLink) Stop() error {
	if l.cancel == nil {
		return nil
	}
	l.cancel()
	l.wg.Wait()
	return nil
}

func (l *HostLink) shutdown() {
	l.running.Store(false)
	l.listener.Close()

	l.mu.Lock()
	for c := range l.conns {
		c.close()
	}
	l.mu.Unlock()
}

// Addr returns the listen address, or nil before Start.
func (l *HostLink) Addr() net.Addr {
	if l.listener != nil {
		return l.listener.Addr()
	}
	return nil
}

// ConnectionCount returns the number of open host connections.
func (l *HostLink) ConnectionCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.conns)
}

// FramesDropped returns the number of inbound frames that were discarded
// because they held no valid envelope or could not be queued.
func (l *HostLink) FramesDropped() int64 {
	return l.framesDropped.Load()
}

// SendMessageToHost implements hub.Transport. It never waits for the
// socket: the message is copied into a host frame and queued on the
// connection's writer, and release is called before returning. A full
// queue fails with ErrSendQueueFull.
func (l *HostLink) SendMessageToHost(data []byte, messageType uint32, hostEndpoint uint16, release hub.ReleaseFunc) error {
	l.mu.RLock()
	c := l.routes[hostEndpoint]
	l.mu.RUnlock()
	if c == nil {
		return fmt.Errorf("%w: %d", ErrUnknownEndpoint, hostEndpoint)
	}

	frame, err := EncodeHostFrame(&HostFrame{
		HostEndpoint: hostEndpoint,
		MessageType:  messageType,
		Message:      data,
	})
	if err != nil {
		return fmt.Errorf("failed to encode host frame: %w", err)
	}
	if uint32(len(frame)) > l.config.MaxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(frame), l.config.MaxMessageSize)
	}

	if err := c.enqueue(frame); err != nil {
		return err
	}
	if release != nil {
		release(data)
	}
	return nil
}

func (l *HostLink) acceptLoop() {
	defer l.wg.Done()

	var delay time.Duration
	for l.running.Load() {
		conn, err := l.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || !l.running.Load() {
				return
			}
			delay = nextAcceptDelay(delay)
			l.errorLog("accept failed", "error", err, "retryIn", delay)
			select {
			case <-time.After(delay):
			case <-l.ctx.Done():
				return
			}
			continue
		}
		delay = 0

		l.wg.Add(1)
		go l.handleConnection(conn)
	}
}

// nextAcceptDelay doubles the previous delay within the backoff bounds.
func nextAcceptDelay(prev time.Duration) time.Duration {
	if prev == 0 {
		return minAcceptDelay
	}
	return min(2*prev, maxAcceptDelay)
}

func (l *HostLink) handleConnection(conn net.Conn) {
	defer l.wg.Done()

	c := newHostConn(conn, l.config.MaxMessageSize, l.config.SendQueueSize, l.config.ProtocolLogger)

	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		conn.Close()
		return
	}
	l.conns[c] = struct{}{}
	l.mu.Unlock()

	l.infoLog("host connected", "connID", c.id, "remote", c.remoteAddr)
	l.logConnState(c, "", StateConnected.String())

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := c.writeLoop(l.config.WriteTimeout); err != nil {
			l.errorLog("host connection write failed", "connID", c.id, "error", err)
		}
	}()

	l.readLoop(c)

	l.mu.Lock()
	delete(l.conns, c)
	for ep, owner := range l.routes {
		if owner == c {
			delete(l.routes, ep)
		}
	}
	l.mu.Unlock()
	c.close()

	l.infoLog("host disconnected", "connID", c.id)
	l.logConnState(c, StateConnected.String(), StateDisconnected.String())
}

func (l *HostLink) readLoop(c *hostConn) {
	for {
		data, err := c.framer.ReadFrame()
		if err != nil {
			if l.running.Load() && !c.isClosed() {
				l.debugLog("host connection read ended", "connID", c.id, "error", err)
			}
			return
		}

		frame, err := DecodeHostFrame(data)
		if err != nil {
			l.framesDropped.Add(1)
			l.errorLog("dropping frame", "connID", c.id, "error", err)
			continue
		}

		l.mu.Lock()
		l.routes[frame.HostEndpoint] = c
		l.mu.Unlock()

		err = l.config.Poster.Post(hub.Event{
			SenderInstanceID: hub.SystemInstanceID,
			Type:             hub.EventMessageFromHost,
			Data: &hub.MessageFromHost{
				HostEndpoint: frame.HostEndpoint,
				MessageType:  frame.MessageType,
				Message:      frame.Message,
			},
		})
		if err != nil {
			l.framesDropped.Add(1)
			l.errorLog("could not queue host message", "connID", c.id, "error", err)
		}
	}
}

func (l *HostLink) logConnState(c *hostConn, oldState, newState string) {
	if l.config.ProtocolLogger == nil {
		return
	}
	l.config.ProtocolLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    log.DirectionInternal,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityHostLink,
			OldState: oldState,
			NewState: newState,
			Reason:   c.remoteAddr,
		},
	})
}

func (l *HostLink) debugLog(msg string, args ...any) {
	if l.config.Logger != nil {
		l.config.Logger.Debug(msg, args...)
	}
}

func (l *HostLink) infoLog(msg string, args ...any) {
	if l.config.Logger != nil {
		l.config.Logger.Info(msg, args...)
	}
}

func (l *HostLink) errorLog(msg string, args ...any) {
	if l.config.Logger != nil {
		l.config.Logger.Error(msg, args...)
	}
}

// hostConn is one accepted host connection. Only writeLoop writes to it.
type hostConn struct {
	conn       net.Conn
	framer     *Framer
	id         string
	remoteAddr string

	out       chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
}

func newHostConn(conn net.Conn, maxSize uint32, queueSize int, logger log.Logger) *hostConn {
	c := &hostConn{
		conn:       conn,
		framer:     NewFramer(conn, maxSize),
		id:         uuid.NewString(),
		remoteAddr: conn.RemoteAddr().String(),
		out:        make(chan []byte, queueSize),
		closeCh:    make(chan struct{}),
	}
	if logger != nil {
		c.framer.SetLogger(logger, c.id)
	}
	return c
}

// enqueue hands frame to the writer without blocking.
func (c *hostConn) enqueue(frame []byte) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	select {
	case c.out <- frame:
		return nil
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
		return fmt.Errorf("%w: %d frames pending", ErrSendQueueFull, len(c.out))
	}
}

// writeLoop writes queued frames until the connection closes. A failed
// write closes the connection and drops whatever is still queued.
func (c *hostConn) writeLoop(timeout time.Duration) error {
	for {
		select {
		case frame := <-c.out:
			if err := c.write(frame, timeout); err != nil {
				c.close()
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
		case <-c.closeCh:
			return nil
		}
	}
}

func (c *hostConn) write(frame []byte, timeout time.Duration) error {
	if timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.framer.WriteFrame(frame)
}

func (c *hostConn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *hostConn) close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.conn.Close()
	})
}

// Compile-time interface satisfaction check.
var _ hub.Transport = (*HostLink)(nil)
