package probe

import (
	"testing"

	"go.uber.org/zap"
)

func TestParseResponseTime(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   float64
		ok     bool
	}{
		{
			name:   "english",
			output: "64 bytes from 192.168.1.1: icmp_seq=1 ttl=255 time=23.4 ms",
			want:   23.4,
			ok:     true,
		},
		{
			name:   "localized",
			output: "Respuesta desde 192.168.1.1: bytes=32 tiempo=15 ms TTL=255",
			want:   15.0,
			ok:     true,
		},
		{
			name:   "sub millisecond marker",
			output: "Reply from 10.0.0.1: bytes=32 time<1 ms TTL=128",
			want:   1.0,
			ok:     true,
		},
		{
			name:   "uppercase unit",
			output: "reply: TIME=8.125 MS",
			want:   8.125,
			ok:     true,
		},
		{
			name: "first match wins across lines",
			output: "PING 192.168.1.1 (192.168.1.1) 56(84) bytes of data.\n" +
				"64 bytes from 192.168.1.1: icmp_seq=1 ttl=255 time=2.1 ms\n" +
				"64 bytes from 192.168.1.1: icmp_seq=2 ttl=255 time=9.9 ms\n",
			want: 2.1,
			ok:   true,
		},
		{
			name:   "no marker",
			output: "Request timed out.\nRequest timed out.",
			ok:     false,
		},
		{
			name:   "empty",
			output: "",
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseResponseTime(tt.output)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("ms = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResponseTimeIdempotent(t *testing.T) {
	output := "64 bytes from 10.1.1.1: icmp_seq=1 ttl=64 time=3.5 ms"
	first, ok1 := ParseResponseTime(output)
	second, ok2 := ParseResponseTime(output)
	if !ok1 || !ok2 || first != second {
		t.Errorf("parse not idempotent: (%v,%v) then (%v,%v)", first, ok1, second, ok2)
	}
}

func TestResponseTimePtr(t *testing.T) {
	if p := responseTimePtr("no marker here"); p != nil {
		t.Errorf("responseTimePtr = %v, want nil", *p)
	}
	p := responseTimePtr("time=4.2 ms")
	if p == nil || *p != 4.2 {
		t.Errorf("responseTimePtr = %v, want 4.2", p)
	}
}

func TestNewSystemProberDefaults(t *testing.T) {
	p := NewSystemProber(0, 0, zap.NewNop())
	if p.count != DefaultCount {
		t.Errorf("count = %d, want %d", p.count, DefaultCount)
	}
	if p.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", p.timeout, DefaultTimeout)
	}
}

func TestNewICMPProberDefaults(t *testing.T) {
	p := NewICMPProber(-1, 0)
	if p.count != DefaultCount {
		t.Errorf("count = %d, want %d", p.count, DefaultCount)
	}
	if p.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", p.timeout, DefaultTimeout)
	}
}
