// Package transport executes commands on network devices over SSH. Each
// business operation opens exactly one session, performs one logical task,
// and closes it; there is no pooling or reuse across requests.
package transport

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/Gibrhan/Autoconf/internal/inventory"
)

// Classified connection failures. Anything else is wrapped as a generic
// transport error.
var (
	ErrConnectTimeout = errors.New("connect timeout")
	ErrAuthFailed     = errors.New("device authentication failed")
)

// Default timeouts applied when the configuration leaves them unset.
const (
	DefaultDialTimeout    = 10 * time.Second
	DefaultCommandTimeout = 30 * time.Second
)

// Conn is one open command-execution connection to a device.
type Conn interface {
	// Run sends one command line and returns the raw text response.
	Run(command string) (string, error)

	// RunConfigSet applies an ordered sequence of configuration lines.
	RunConfigSet(commands []string) (string, error)

	// Persist saves the running configuration to startup.
	Persist() (string, error)

	// Close terminates the session. Safe to call more than once.
	Close()
}

// Opener establishes device sessions. Satisfied by Client; handler tests
// substitute fakes.
type Opener interface {
	Open(dev inventory.Device) (Conn, error)
}

// Compile-time interface guards.
var (
	_ Opener = (*Client)(nil)
	_ Conn   = (*Session)(nil)
)

// Client opens transport sessions against inventory devices.
type Client struct {
	dialTimeout    time.Duration
	commandTimeout time.Duration
	logger         *zap.Logger
}

// NewClient creates a transport client.
func NewClient(dialTimeout, commandTimeout time.Duration, logger *zap.Logger) *Client {
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	if commandTimeout <= 0 {
		commandTimeout = DefaultCommandTimeout
	}
	return &Client{
		dialTimeout:    dialTimeout,
		commandTimeout: commandTimeout,
		logger:         logger,
	}
}

// Session is one open command-execution connection to a device. Close must
// run on every exit path; callers defer it immediately after Open.
type Session struct {
	client         *ssh.Client
	device         inventory.Device
	commandTimeout time.Duration
	closed         bool
}

// Open establishes an SSH connection to the device. Failures are classified
// as ErrConnectTimeout, ErrAuthFailed, or a wrapped transport error.
func (c *Client) Open(dev inventory.Device) (Conn, error) {
	addr := dev.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}

	cfg := &ssh.ClientConfig{
		User: dev.Username,
		Auth: []ssh.AuthMethod{
			ssh.Password(dev.Password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = dev.Password
				}
				return answers, nil
			}),
		},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // lab fleet, no host key distribution
		Timeout:         c.dialTimeout,
	}

	// Dial in a goroutine: ssh.Dial's Timeout covers the TCP connect but
	// not the full handshake against a wedged device.
	type dialResult struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialResult, 1)
	go func() {
		client, err := ssh.Dial("tcp", addr, cfg)
		ch <- dialResult{client: client, err: err}
	}()

	timer := time.NewTimer(c.dialTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s did not answer within %s", ErrConnectTimeout, addr, c.dialTimeout)
	case res := <-ch:
		if res.err != nil {
			err := classifyDialError(res.err)
			c.logger.Warn("transport open failed",
				zap.String("device", dev.Name),
				zap.String("addr", addr),
				zap.Error(res.err),
			)
			return nil, err
		}
		return &Session{
			client:         res.client,
			device:         dev,
			commandTimeout: c.commandTimeout,
		}, nil
	}
}

// classifyDialError maps an ssh.Dial failure onto the transport taxonomy.
func classifyDialError(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain") ||
		strings.Contains(msg, "permission denied") {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrConnectTimeout, err)
	}
	if strings.Contains(msg, "i/o timeout") {
		return fmt.Errorf("%w: %v", ErrConnectTimeout, err)
	}
	return fmt.Errorf("connection error: %w", err)
}

// Run executes one command on an exec channel and returns the combined
// output verbatim; no parsing or structuring is performed.
func (s *Session) Run(command string) (string, error) {
	type runResult struct {
		out string
		err error
	}
	ch := make(chan runResult, 1)
	go func() {
		sess, err := s.client.NewSession()
		if err != nil {
			ch <- runResult{err: fmt.Errorf("new channel: %w", err)}
			return
		}
		defer sess.Close()

		out, err := sess.CombinedOutput(command)
		ch <- runResult{out: string(out), err: err}
	}()

	timer := time.NewTimer(s.commandTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return "", fmt.Errorf("command %q timed out after %s", command, s.commandTimeout)
	case res := <-ch:
		if res.err != nil {
			return res.out, fmt.Errorf("run %q on %s: %w", command, s.device.Name, res.err)
		}
		return res.out, nil
	}
}

// RunConfigSet enters privileged and configuration mode over an interactive
// shell, applies the lines in order, and returns the raw transcript.
func (s *Session) RunConfigSet(commands []string) (string, error) {
	script := ConfigScript(s.device.Secret, commands)

	type runResult struct {
		out string
		err error
	}
	ch := make(chan runResult, 1)
	go func() {
		sess, err := s.client.NewSession()
		if err != nil {
			ch <- runResult{err: fmt.Errorf("new channel: %w", err)}
			return
		}
		defer sess.Close()

		modes := ssh.TerminalModes{
			ssh.ECHO:          0,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		if err := sess.RequestPty("vt100", 80, 200, modes); err != nil {
			ch <- runResult{err: fmt.Errorf("request pty: %w", err)}
			return
		}

		stdin, err := sess.StdinPipe()
		if err != nil {
			ch <- runResult{err: fmt.Errorf("stdin pipe: %w", err)}
			return
		}

		var out bytes.Buffer
		sess.Stdout = &out
		sess.Stderr = &out

		if err := sess.Shell(); err != nil {
			ch <- runResult{err: fmt.Errorf("start shell: %w", err)}
			return
		}

		for _, line := range script {
			if _, err := fmt.Fprintln(stdin, line); err != nil {
				ch <- runResult{out: out.String(), err: fmt.Errorf("send %q: %w", line, err)}
				return
			}
		}
		stdin.Close()

		err = sess.Wait()
		ch <- runResult{out: out.String(), err: err}
	}()

	timer := time.NewTimer(s.commandTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return "", fmt.Errorf("config set on %s timed out after %s", s.device.Name, s.commandTimeout)
	case res := <-ch:
		if res.err != nil {
			return res.out, fmt.Errorf("config set on %s: %w", s.device.Name, res.err)
		}
		return res.out, nil
	}
}

// Persist saves the running configuration to startup.
func (s *Session) Persist() (string, error) {
	return s.Run("write memory")
}

// Close terminates the connection. Safe to call more than once.
func (s *Session) Close() {
	if s == nil || s.closed {
		return
	}
	s.closed = true
	_ = s.client.Close()
}

// ConfigScript builds the shell line sequence for a config set: enable mode
// with the device secret when present, then the lines wrapped in
// "configure terminal" / "end". Lines already framing config mode are not
// duplicated.
func ConfigScript(secret string, commands []string) []string {
	script := []string{"terminal length 0"}
	if secret != "" {
		script = append(script, "enable", secret)
	}

	framed := len(commands) > 0 && isConfigEntry(commands[0])
	if !framed {
		script = append(script, "configure terminal")
	}
	script = append(script, commands...)
	if !framed {
		script = append(script, "end")
	}
	return append(script, "exit")
}

func isConfigEntry(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "configure terminal" || strings.HasPrefix(trimmed, "conf t")
}
