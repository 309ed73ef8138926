package core

import (
	"net"
	"time"
)

// RoundTripResult is the end result of a round trip
type RoundTripResult int

const (
	// Replied is the result of when an echo request is successfully replied
	Replied RoundTripResult = iota
	// TimedOut is the result of when an echo request does not receive a reply in an expected time
	TimedOut
)

func (r RoundTripResult) String() string {
	switch r {
	case Replied:
		return "replied"
	case TimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// RoundTrip is the outcome of a single echo request. It is never modified once handed to the
// session handlers.
type RoundTrip struct {
	Seq uint16          // sequence number of the echo request
	Res RoundTripResult // result

	Src  net.IP        // source of the reply, replied only
	TTL  int           // IP TTL of the reply as it arrived, replied only
	Len  int           // length of the reply ICMP message, replied only
	Time time.Duration // rtt, replied only

	// Err is set on a timed out round trip when the request was lost to a socket error
	// rather than left unanswered.
	Err error
}

// buildTimedOutRT builds a round trip object containing data relevant to a timed out request.
func buildTimedOutRT(seq uint16, err error) RoundTrip {
	return RoundTrip{
		Seq: seq,
		Res: TimedOut,
		Err: err,
	}
}
