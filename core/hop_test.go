package core

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func answeredProbe(ip net.IP) HopProbe {
	return HopProbe{Addr: ip, Name: ip.String(), RTT: time.Millisecond, ICMPType: TypeTimeExceeded}
}

func TestHopProbeAnswered(t *testing.T) {
	probe := answeredProbe(net.IPv4(10, 0, 0, 1))
	assert.True(t, probe.Answered())

	lost := HopProbe{Err: ErrHopTimeout}
	assert.False(t, lost.Answered())
}

func TestHopRecordResponder(t *testing.T) {
	first, last := net.IPv4(10, 0, 0, 1), net.IPv4(10, 0, 0, 2)
	hop := HopRecord{TTL: 2, Probes: []HopProbe{
		answeredProbe(first),
		answeredProbe(last),
		{Err: ErrHopTimeout},
	}}

	assert.True(t, last.Equal(hop.Responder()))
	assert.Equal(t, 1, hop.Unanswered())
}

func TestHopRecordNoResponder(t *testing.T) {
	hop := HopRecord{TTL: 1, Probes: []HopProbe{{Err: ErrHopTimeout}, {Err: ErrHopTimeout}}}

	assert.Nil(t, hop.Responder())
	assert.Equal(t, 2, hop.Unanswered())
	assert.False(t, hop.Reached(net.IPv4(10, 0, 0, 1)))
}

func TestHopRecordReached(t *testing.T) {
	dst := net.IPv4(192, 0, 2, 10)
	hop := HopRecord{TTL: 5, Probes: []HopProbe{answeredProbe(dst.To4())}}

	assert.True(t, hop.Reached(dst))
	assert.False(t, hop.Reached(net.IPv4(192, 0, 2, 11)))
}
