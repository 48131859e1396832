package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// SystemProber invokes the OS ping utility and maps its exit code:
// 0 is success, nonzero is error, and expiry of the outer timeout is
// timeout regardless of partial output.
type SystemProber struct {
	count   int
	timeout time.Duration
	logger  *zap.Logger
}

// NewSystemProber creates a prober that sends count echo requests under a
// hard overall timeout.
func NewSystemProber(count int, timeout time.Duration, logger *zap.Logger) *SystemProber {
	if count <= 0 {
		count = DefaultCount
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SystemProber{count: count, timeout: timeout, logger: logger}
}

// Probe pings host. The returned Result always carries the raw ping output
// so callers can surface vendor text verbatim.
func (p *SystemProber) Probe(ctx context.Context, host string) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	countFlag := "-c"
	if runtime.GOOS == "windows" {
		countFlag = "-n"
	}

	cmd := exec.CommandContext(ctx, "ping", countFlag, fmt.Sprint(p.count), host)
	out, err := cmd.CombinedOutput()
	output := string(out)

	if ctx.Err() == context.DeadlineExceeded {
		return Result{
			Status:  StatusTimeout,
			Message: "ping deadline exceeded",
			Output:  fmt.Sprintf("ping exceeded the %s limit", p.timeout),
		}
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{
				Status:  StatusError,
				Message: "device unreachable",
				Output:  output,
			}
		}
		p.logger.Warn("ping invocation failed", zap.String("host", host), zap.Error(err))
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("ping failed: %v", err),
			Output:  output,
		}
	}

	return Result{
		Status:         StatusSuccess,
		Message:        "device reachable",
		Output:         output,
		ResponseTimeMs: responseTimePtr(output),
	}
}
