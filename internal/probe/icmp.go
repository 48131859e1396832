package probe

import (
	"context"
	"fmt"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

// ICMPProber pings targets in-process via pro-bing instead of shelling out.
// Selected with probe.mode=icmp; useful where no ping binary is installed.
type ICMPProber struct {
	count   int
	timeout time.Duration
}

// NewICMPProber creates an in-process ICMP prober.
func NewICMPProber(count int, timeout time.Duration) *ICMPProber {
	if count <= 0 {
		count = DefaultCount
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ICMPProber{count: count, timeout: timeout}
}

// Probe sends ICMP echoes to host and maps statistics onto the same Result
// contract as the system prober.
func (p *ICMPProber) Probe(ctx context.Context, host string) Result {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return Result{
			Status:  StatusError,
			Message: fmt.Sprintf("create pinger: %v", err),
		}
	}

	pinger.Count = p.count
	pinger.Timeout = p.timeout
	pinger.SetPrivileged(runtime.GOOS == "windows")

	// Run in a goroutine so a caller cancellation stops the pinger.
	done := make(chan error, 1)
	go func() {
		done <- pinger.Run()
	}()

	select {
	case runErr := <-done:
		stats := pinger.Statistics()
		if runErr != nil {
			return Result{
				Status:  StatusError,
				Message: runErr.Error(),
			}
		}
		if stats.PacketsRecv == 0 {
			return Result{
				Status:  StatusError,
				Message: "device unreachable",
				Output:  statsLine(stats),
			}
		}
		rtt := float64(stats.AvgRtt) / float64(time.Millisecond)
		return Result{
			Status:         StatusSuccess,
			Message:        "device reachable",
			Output:         statsLine(stats),
			ResponseTimeMs: &rtt,
		}

	case <-ctx.Done():
		pinger.Stop()
		return Result{
			Status:  StatusTimeout,
			Message: "probe cancelled",
			Output:  fmt.Sprintf("probe exceeded the %s limit", p.timeout),
		}
	}
}

func statsLine(stats *probing.Statistics) string {
	return fmt.Sprintf("%d packets transmitted, %d received, %.1f%% packet loss, avg rtt %s",
		stats.PacketsSent, stats.PacketsRecv, stats.PacketLoss, stats.AvgRtt)
}
