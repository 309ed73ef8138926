package core

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"
)

const (
	// maxSeconds bounds every setting expressed in seconds.
	maxSeconds = 24 * 60 * 60

	// maxPacketSize is the largest payload that fits an IPv4 datagram along with both headers.
	maxPacketSize = 65535 - 20 - icmpHeaderLen

	maxTTL = 255
)

// Settings contains all configurable properties of a ping session.
type Settings struct {
	// Count is the amount of echo requests sent before the session ends.
	Count int

	// Interval is the time in seconds waited between the end of a probe and the next echo request.
	Interval float64

	// Timeout is the time in seconds to wait for the reply of each echo request.
	Timeout float64

	// PacketSize is the number of payload bytes following the ICMP header.
	PacketSize int

	// TTL is the IP Time to Live of outgoing echo requests.
	TTL int

	// Identifier is the ICMP identifier shared by every echo request of the session.
	Identifier int

	// LoggingLevel is the level of the session logger.
	LoggingLevel log.Level
}

// DefaultSettings returns the default settings for a ping session, change as you wish.
func DefaultSettings() *Settings {
	return &Settings{
		Count:        1000,
		Interval:     1,
		Timeout:      5,
		PacketSize:   64,
		TTL:          64,
		Identifier:   42,
		LoggingLevel: log.WarnLevel,
	}
}

func (s *Settings) validate() error {
	v := &validator{}

	v.check(s.Count > 0, "count must be positive, got %d", s.Count)
	v.check(s.Interval >= 0 && s.Interval <= maxSeconds,
		"interval must be between 0 and %d seconds, got %g", maxSeconds, s.Interval)
	v.check(s.Timeout > 0 && s.Timeout <= maxSeconds,
		"timeout must be positive and at most %d seconds, got %g", maxSeconds, s.Timeout)
	v.check(s.PacketSize >= 0 && s.PacketSize <= maxPacketSize,
		"packet size must be between 0 and %d bytes, got %d", maxPacketSize, s.PacketSize)
	v.check(s.TTL > 0 && s.TTL <= maxTTL, "ttl must be between 1 and %d, got %d", maxTTL, s.TTL)
	v.check(s.Identifier >= 0 && s.Identifier <= 0xffff,
		"identifier must be between 0 and %d, got %d", 0xffff, s.Identifier)

	return v.err()
}

// validator collects every failed check so that all problems are reported at once.
type validator struct {
	errs *multierror.Error
}

func (v *validator) check(ok bool, format string, args ...interface{}) {
	if !ok {
		v.errs = multierror.Append(v.errs, fmt.Errorf(format, args...))
	}
}

func (v *validator) err() error {
	if v.errs == nil {
		return nil
	}

	v.errs.ErrorFormat = func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return strings.Join(msgs, "; ")
	}

	return fmt.Errorf("%w: %w", ErrInvalidSettings, v.errs)
}
