package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
)

// Session is a sequence of echo requests sent one at a time to a single host.
type Session struct {
	settings *Settings

	// id is the identifier of every echo request of this session.
	id uint16

	// seq is the sequence number of the next echo request.
	seq uint16

	// payload is the filler data carried by every echo request.
	payload []byte

	// host is the address the session was created with.
	host string

	// addr is the resolved IPv4 address of the target host.
	addr net.IP

	network Network

	// logger is an instance of logrus used to log activities related to this session
	logger *log.Logger

	// results are the round trips completed so far, in sequence order.
	results []RoundTrip

	start time.Time
	end   time.Time

	isStarted  bool
	isFinished bool

	// stHandlers are the callback functions called when the session starts.
	stHandlers []func(*Session)

	// rtHandlers are the callback functions called when a round trip is completed.
	rtHandlers []func(*Session, *RoundTrip)

	// endHandlers are the callback functions called when the session ends.
	endHandlers []func(*Session, *Summary)
}

// NewSession creates a new Session to address using raw sockets.
func NewSession(address string, settings *Settings) (*Session, error) {
	logger := NewLogger(settings.LoggingLevel, os.Stderr)
	return newSession(address, settings, NewResolver(), NewRawNetwork(), logger)
}

func newSession(address string, settings *Settings, resolver Resolver, network Network,
	logger *log.Logger) (*Session, error) {

	logger.Debug("Validating settings")

	if err := settings.validate(); err != nil {
		return nil, err
	}

	logger.Infof("Resolving address %s", address)

	ip, err := resolver.LookupIPv4(context.Background(), address)
	if err != nil {
		return nil, fmt.Errorf("error while resolving address %s: %w", address, err)
	}

	logger.Infof("Address %s resolved to IP Address %s", address, ip)

	session := &Session{
		settings: settings,
		id:       uint16(settings.Identifier),
		seq:      0,
		payload:  NewEchoPayload(settings.PacketSize),
		host:     address,
		addr:     ip,
		network:  network,
		logger:   logger,
	}

	logger.Infof("Created session with id %d, addr %s, payload of %d bytes",
		session.id, session.addr, len(session.payload))

	return session, nil
}

// Run sends the configured amount of echo requests, one at a time, and returns the summary of
// the session. Cancelling ctx ends the session after the probe in flight. The only errors are
// the ones that prevent probing at all, such as failing to open a raw socket.
func (s *Session) Run(ctx context.Context) (*Summary, error) {
	if s.isFinished {
		return nil, errors.New("this session has already finished")
	}
	if s.isStarted {
		return nil, errors.New("this session has already started")
	}
	s.isStarted = true
	s.start = time.Now()

	s.logger.Info("Calling start callbacks")
	for _, f := range s.stHandlers {
		f(s)
	}

	for i := 0; i < s.settings.Count; i++ {
		if i > 0 {
			s.logger.Debugf("Waiting %s before the next request", s.getIntervalDuration())
			if err := sleepContext(ctx, s.getIntervalDuration()); err != nil {
				s.logger.Info("Stop requested while waiting, ending session")
				break
			}
		} else if ctx.Err() != nil {
			s.logger.Info("Stop requested before the first request, ending session")
			break
		}

		rt, err := s.probe()
		if err != nil {
			s.isFinished = true
			return nil, err
		}

		s.processRoundTrip(rt)
		s.seq++
	}

	return s.finish(), nil
}

// IsStarted returns whether this session is started
func (s *Session) IsStarted() bool {
	return s.isStarted
}

// IsFinished returns whether this session is finished
func (s *Session) IsFinished() bool {
	return s.isFinished
}

// Address is the resolved address of the target host in this session
func (s *Session) Address() net.IP {
	return s.addr
}

// Host is the address the session was created with, as given.
func (s *Session) Host() string {
	return s.host
}

// PayloadSize is the number of data bytes carried by each echo request.
func (s *Session) PayloadSize() int {
	return len(s.payload)
}

// AddOnStart adds a handler function that will be called when the session starts
func (s *Session) AddOnStart(handler func(*Session)) {
	s.stHandlers = append(s.stHandlers, handler)
}

// AddOnRecv adds a handler function that will be called after an echo request is replied or expires
func (s *Session) AddOnRecv(handler func(*Session, *RoundTrip)) {
	s.rtHandlers = append(s.rtHandlers, handler)
}

// AddOnFinish adds a handler function that will be called when the session ends
func (s *Session) AddOnFinish(handler func(*Session, *Summary)) {
	s.endHandlers = append(s.endHandlers, handler)
}

// Returns the interval setting parsed as a duration.
func (s *Session) getIntervalDuration() time.Duration {
	return secondsToDuration(s.settings.Interval)
}

// Returns the timeout setting parsed as a duration.
func (s *Session) getTimeoutDuration() time.Duration {
	return secondsToDuration(s.settings.Timeout)
}

// processRoundTrip records a round trip and calls all handlers for it.
func (s *Session) processRoundTrip(rt RoundTrip) {
	s.results = append(s.results, rt)

	s.logger.Infof("Calling all handlers for round trip of seq %d, %s", rt.Seq, rt.Res)
	for _, f := range s.rtHandlers {
		f(s, &rt)
	}
}

// finish summarizes the session and calls the ending callbacks.
func (s *Session) finish() *Summary {
	s.end = time.Now()

	summary := Summarize(s.results)
	summary.Start = s.start
	summary.End = s.end

	s.logger.Info("Calling ending callbacks")
	for _, f := range s.endHandlers {
		f(s, &summary)
	}

	s.isFinished = true
	s.logger.Info("Session ended")

	return &summary
}
