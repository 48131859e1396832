// Package probe checks device reachability. The default prober shells out
// to the platform ping binary and parses its text output; an ICMP prober
// built on pro-bing is available where raw sockets are permitted.
package probe

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Probe statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Default probe parameters, matching the ping invocation contract.
const (
	DefaultCount   = 4
	DefaultTimeout = 10 * time.Second
)

// Result is the outcome of one reachability probe.
type Result struct {
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	Output         string   `json:"output"`
	ResponseTimeMs *float64 `json:"response_time"`
}

// Prober checks whether a host answers pings.
type Prober interface {
	Probe(ctx context.Context, host string) Result
}

// responseTimeRe matches English and localized ping time markers, e.g.
// "time=23.4 ms" or "tiempo<1 ms".
var responseTimeRe = regexp.MustCompile(`(?i)(?:time|tiempo)[=<]\s*(\d+(?:\.\d+)?)\s*ms`)

// ParseResponseTime extracts the first per-packet round-trip time from ping
// output. ok is false when no line carries a time marker.
func ParseResponseTime(output string) (ms float64, ok bool) {
	for _, line := range strings.Split(output, "\n") {
		m := responseTimeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return v, true
	}
	return 0, false
}

// responseTimePtr converts a parse result into the nullable JSON field.
func responseTimePtr(output string) *float64 {
	if v, ok := ParseResponseTime(output); ok {
		return &v
	}
	return nil
}
