package commands

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/mash-protocol/crossval-go/pkg/transport"
	"github.com/mash-protocol/crossval-go/pkg/wire"
)

// DefaultResultWait is how long the console waits for a step result.
const DefaultResultWait = 2 * time.Second

// Console executes host console commands against an agent.
type Console struct {
	client *transport.HostClient
	out    io.Writer
	wait   time.Duration
}

// NewConsole creates a console that prints to out.
func NewConsole(client *transport.HostClient, out io.Writer, wait time.Duration) *Console {
	if wait <= 0 {
		wait = DefaultResultWait
	}
	return &Console{client: client, out: out, wait: wait}
}

// Execute runs one command line. It returns true when the console should
// exit.
func (c *Console) Execute(line string) (bool, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp()
	case "init":
		return false, c.step(wire.StepInit)
	case "setup":
		return false, c.step(wire.StepSetup)
	case "validate":
		return false, c.step(wire.StepValidate)
	case "step":
		return false, c.cmdStep(args)
	case "raw":
		return false, c.cmdRaw(args)
	case "recv":
		return false, c.await()
	case "quit", "exit", "q":
		return true, nil
	default:
		return false, fmt.Errorf("unknown command: %s (type 'help')", cmd)
	}
	return false, nil
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, `Commands:
  init | setup | validate   send a StepStartCommand and wait for a result
  step <n>                  send a StepStartCommand with raw step value n
  raw <type> <hex>          send a raw payload with the given message type
  recv                      wait for a pending result
  quit                      exit
`)
}

func (c *Console) step(step wire.Step) error {
	if err := c.client.SendStepStart(step); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "-> STEP_START %s (endpoint %d)\n", step, c.client.Endpoint())
	return c.await()
}

// cmdStep sends an arbitrary step value, bypassing encoder validation.
func (c *Console) cmdStep(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: step <n>")
	}
	n, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return fmt.Errorf("invalid step: %w", err)
	}
	payload, err := wire.Marshal(map[uint64]uint64{uint64(wire.KeyStep): n})
	if err != nil {
		return err
	}
	if err := c.client.Send(uint32(wire.MessageTypeStepStart), payload); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "-> STEP_START raw step %d\n", n)
	return c.await()
}

func (c *Console) cmdRaw(args []string) error {
	if len(args) != 2 {
		return errors.New("usage: raw <type> <hex>")
	}
	msgType, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid message type: %w", err)
	}
	payload, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("invalid hex payload: %w", err)
	}
	if err := c.client.Send(uint32(msgType), payload); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "-> %s %s\n", wire.MessageType(msgType), args[1])
	return c.await()
}

// await prints the next result, or notes that none arrived in time.
func (c *Console) await() error {
	result, err := c.client.ReceiveResult(c.wait)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			fmt.Fprintf(c.out, "<- (no result within %s)\n", c.wait)
			return nil
		}
		return err
	}
	fmt.Fprintf(c.out, "<- STEP_RESULT %s\n", result)
	return nil
}
