package core

import "errors"

var (
	// ErrMalformedPacket is returned when a received datagram is too short to hold the headers
	// we need, or when its ICMP checksum does not validate.
	ErrMalformedPacket = errors.New("malformed packet")

	// ErrSocketOpen is returned when a raw socket could not be opened at all, usually because
	// the process lacks the privileges required for raw sockets.
	ErrSocketOpen = errors.New("could not open socket")

	// ErrNoSamples is returned when round-trip statistics are requested from a session in
	// which no echo request was replied.
	ErrNoSamples = errors.New("no round-trip samples")

	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = errors.New("invalid settings")

	// ErrHopTimeout is the error of a traceroute probe that received no answer in time.
	ErrHopTimeout = errors.New("no answer before timeout")
)
