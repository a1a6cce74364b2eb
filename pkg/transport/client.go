package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/mash-protocol/crossval-go/pkg/log"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// ErrUnexpectedMessage indicates a frame of a type the caller did not
// ask for.
var ErrUnexpectedMessage = errors.New("unexpected message type")

// DefaultConnectTimeout is the default HostClient dial timeout.
const DefaultConnectTimeout = 10 * time.Second

// ClientConfig configures a HostClient.
type ClientConfig struct {
	// HostEndpoint is stamped on every outbound frame.
	HostEndpoint uint16

	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// ConnectTimeout is the dial timeout when ctx has no deadline
	// (default: DefaultConnectTimeout).
	ConnectTimeout time.Duration

	// ProtocolLogger captures frames (optional).
	ProtocolLogger log.Logger
}

// HostClient is the host side of a host link.
type HostClient struct {
	conn     net.Conn
	framer   *Framer
	endpoint uint16

	closeCh   chan struct{}
	closeOnce sync.Once
	writeMu   sync.Mutex
	readMu    sync.Mutex
}

// Dial connects to a HostLink at address.
func Dial(ctx context.Context, address string, config ClientConfig) (*HostClient, error) {
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.ConnectTimeout)
		defer cancel()
	}

	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	c := &HostClient{
		conn:     conn,
		framer:   NewFramer(conn, config.MaxMessageSize),
		endpoint: config.HostEndpoint,
		closeCh:  make(chan struct{}),
	}
	if config.ProtocolLogger != nil {
		c.framer.SetLogger(config.ProtocolLogger, conn.LocalAddr().String())
	}
	return c, nil
}

// Endpoint returns the host endpoint stamped on outbound frames.
func (c *HostClient) Endpoint() uint16 {
	return c.endpoint
}

// LocalAddr returns the local network address.
func (c *HostClient) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Send sends payload as a message of the given type.
func (c *HostClient) Send(messageType uint32, payload []byte) error {
	frame, err := EncodeHostFrame(&HostFrame{
		HostEndpoint: c.endpoint,
		MessageType:  messageType,
		Message:      payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode host frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.closeCh:
		return ErrConnectionClosed
	default:
	}
	return c.framer.WriteFrame(frame)
}

// SendStepStart tells the agent to start step.
func (c *HostClient) SendStepStart(step wire.Step) error {
	payload, err := wire.EncodeStepStartCommand(&wire.StepStartCommand{Step: step})
	if err != nil {
		return err
	}
	return c.Send(uint32(wire.MessageTypeStepStart), payload)
}

// Receive reads the next frame. A non-positive timeout blocks.
func (c *HostClient) Receive(timeout time.Duration) (*HostFrame, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	select {
	case <-c.closeCh:
		return nil, ErrConnectionClosed
	default:
	}

	if timeout > 0 {
		c.conn.SetReadDeadline(time.Now().Add(timeout))
		defer c.conn.SetReadDeadline(time.Time{})
	}

	data, err := c.framer.ReadFrame()
	if err != nil {
		return nil, err
	}
	return DecodeHostFrame(data)
}

// ReceiveResult reads the next frame and decodes it as a step result.
func (c *HostClient) ReceiveResult(timeout time.Duration) (*wire.TestResult, error) {
	frame, err := c.Receive(timeout)
	if err != nil {
		return nil, err
	}
	if wire.MessageType(frame.MessageType) != wire.MessageTypeStepResult {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedMessage, wire.MessageType(frame.MessageType))
	}
	return wire.DecodeTestResult(frame.Message)
}

// Close closes the connection.
func (c *HostClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.conn.Close()
	})
	return err
}
