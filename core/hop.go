package core

import (
	"net"
	"time"
)

// HopProbe is the outcome of one traceroute probe. A probe is either answered, with Addr set,
// or lost to a network error, with Err set.
type HopProbe struct {
	Addr     net.IP        // address of the responder
	Name     string        // display name of the responder, the address itself in numeric mode
	RTT      time.Duration // time between sending the probe and receiving its answer
	ICMPType Type          // time exceeded for routers, destination unreachable for the destination
	ICMPCode uint8

	// Err is ErrHopTimeout when nothing answered, or the socket error that lost the probe.
	Err error
}

// Answered reports whether the probe received an ICMP answer.
func (p *HopProbe) Answered() bool {
	return p.Err == nil
}

// HopRecord contains the probes sent with one TTL, in the order they were sent.
type HopRecord struct {
	TTL    int
	Probes []HopProbe
}

// Responder returns the address that answered the last answered probe of the hop, or nil.
func (h *HopRecord) Responder() net.IP {
	for i := len(h.Probes) - 1; i >= 0; i-- {
		if h.Probes[i].Answered() {
			return h.Probes[i].Addr
		}
	}
	return nil
}

// Unanswered returns the number of probes of the hop that received no answer.
func (h *HopRecord) Unanswered() int {
	n := 0
	for i := range h.Probes {
		if !h.Probes[i].Answered() {
			n++
		}
	}
	return n
}

// Reached reports whether the hop's responder is dst.
func (h *HopRecord) Reached(dst net.IP) bool {
	responder := h.Responder()
	return responder != nil && responder.Equal(dst)
}
