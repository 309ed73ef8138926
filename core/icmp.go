package core

import (
	"fmt"
	"time"
)

// maxIPv4HeaderLen is the length of an IPv4 header carrying the maximum amount of options.
const maxIPv4HeaderLen = 60

// probe runs a whole round trip on a socket of its own: it sends the echo request with the
// current sequence number and waits for its reply. It only returns an error when the socket
// cannot be opened; every other failure is recorded in the returned round trip.
func (s *Session) probe() (RoundTrip, error) {
	s.logger.Debugf("Opening socket for echo request of seq %d", s.seq)
	conn, err := s.network.ListenICMP()
	if err != nil {
		return RoundTrip{}, err
	}
	defer conn.Close()

	sent, err := s.sendEchoRequest(conn)
	if err != nil {
		s.logger.Errorf("Could not send echo request: %s", err)
		return buildTimedOutRT(s.seq, err), nil
	}

	return s.awaitReply(conn, sent), nil
}

// sendEchoRequest sends the echo request of the current sequence number and returns when it was sent.
func (s *Session) sendEchoRequest(conn ICMPConn) (time.Time, error) {
	msg := EncodeEcho(s.id, s.seq, s.payload)

	s.logger.Tracef("Writing ICMP message %x to address %s", msg, s.addr)
	sent := time.Now()
	if err := conn.WriteTo(msg, s.addr, s.settings.TTL); err != nil {
		return sent, fmt.Errorf("error while sending echo request: %w", err)
	}

	return sent, nil
}

// awaitReply reads datagrams until the reply of the current request arrives or the timeout
// expires. The socket sees every ICMP message reaching the host, so anything that is not our
// reply is skipped.
func (s *Session) awaitReply(conn ICMPConn, sent time.Time) RoundTrip {
	timeout := s.getTimeoutDuration()
	deadline := sent.Add(timeout)

	s.logger.Tracef("Setting read deadline to %s", deadline)
	if err := conn.SetReadDeadline(deadline); err != nil {
		return buildTimedOutRT(s.seq, fmt.Errorf("error while setting read deadline: %w", err))
	}

	buffer := make([]byte, maxIPv4HeaderLen+icmpHeaderLen+len(s.payload))
	for {
		length, _, err := conn.ReadFrom(buffer)
		received := time.Now()
		if err != nil {
			if isTimeout(err) {
				s.logger.Infof("Echo request of seq %d timed out after %s", s.seq, timeout)
				return buildTimedOutRT(s.seq, nil)
			}
			s.logger.Errorf("Error while reading from connection: %s", err)
			return buildTimedOutRT(s.seq, fmt.Errorf("error while reading from connection: %w", err))
		}

		rtt := received.Sub(sent)
		rt, ok := s.matchReply(buffer[:length], rtt)
		if ok && rtt <= timeout {
			return rt
		}

		if !received.Before(deadline) {
			s.logger.Infof("Echo request of seq %d timed out after %s", s.seq, timeout)
			return buildTimedOutRT(s.seq, nil)
		}
	}
}

// matchReply returns whether the datagram is the echo reply of the current request, and the round trip
// it completes if so.
func (s *Session) matchReply(datagram []byte, rtt time.Duration) (RoundTrip, bool) {
	s.logger.Tracef("Raw packet received: %x", datagram)

	h, err := DecodeHeader(datagram)
	if err != nil {
		s.logger.Debugf("Could not parse raw packet: %s", err)
		return RoundTrip{}, false
	}

	if h.Type != TypeEchoReply || h.Code != 0 {
		s.logger.Debugf("Received message that is not an echo reply, type %s and code %d", h.Type, h.Code)
		return RoundTrip{}, false
	}

	if h.ID != s.id {
		s.logger.Debugf("Echo reply ID does not match session ID. Expected: %d. Actual: %d.", s.id, h.ID)
		return RoundTrip{}, false
	}

	if h.Seq != s.seq {
		s.logger.Debugf("Echo reply seq does not match the pending request. Expected: %d. Actual: %d.", s.seq, h.Seq)
		return RoundTrip{}, false
	}

	s.logger.Debugf("Echo reply from %s matches request of seq %d", h.Src, s.seq)

	return RoundTrip{
		Seq:  h.Seq,
		Res:  Replied,
		Src:  h.Src,
		TTL:  h.TTL,
		Len:  icmpHeaderLen + len(h.Body),
		Time: rtt,
	}, true
}
