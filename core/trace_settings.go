package core

import (
	log "github.com/sirupsen/logrus"
)

// TraceSettings contains all configurable properties of a traceroute.
type TraceSettings struct {
	// MaxHops is the largest TTL probed before giving up on reaching the destination.
	MaxHops int

	// ProbesPerHop is the number of UDP probes sent with each TTL.
	ProbesPerHop int

	// Timeout is the time in seconds to wait for the ICMP answer of each probe.
	Timeout float64

	// Port is the UDP destination port of the probes. It should be closed on the destination so
	// that the last hop answers with a port unreachable message.
	Port int

	// Numeric disables the reverse lookup of hop addresses.
	Numeric bool

	// Summary asks the output to report the unanswered probes of every hop.
	Summary bool

	// LoggingLevel is the level of the tracer logger.
	LoggingLevel log.Level
}

// DefaultTraceSettings returns the default settings of a traceroute.
func DefaultTraceSettings() *TraceSettings {
	return &TraceSettings{
		MaxHops:      64,
		ProbesPerHop: 3,
		Timeout:      3,
		Port:         33434,
		Numeric:      false,
		Summary:      false,
		LoggingLevel: log.WarnLevel,
	}
}

func (s *TraceSettings) validate() error {
	v := &validator{}

	v.check(s.MaxHops > 0 && s.MaxHops <= maxTTL, "max hops must be between 1 and %d, got %d", maxTTL, s.MaxHops)
	v.check(s.ProbesPerHop > 0, "probes per hop must be positive, got %d", s.ProbesPerHop)
	v.check(s.Timeout > 0 && s.Timeout <= maxSeconds,
		"timeout must be positive and at most %d seconds, got %g", maxSeconds, s.Timeout)
	v.check(s.Port > 0 && s.Port <= 0xffff, "port must be between 1 and %d, got %d", 0xffff, s.Port)

	return v.err()
}
