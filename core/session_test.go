package core

import (
	"context"
	"encoding/binary"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastSettings returns settings that do not wait between requests
func fastSettings(count int) *Settings {
	settings := DefaultSettings()
	settings.Count = count
	settings.Interval = 0
	settings.Timeout = 1
	return settings
}

// TestNewSession verifies that the variables are correctly initialized
func TestNewSession(t *testing.T) {
	s := newTestSession(t, DefaultSettings(), &fakeNetwork{})

	assert.Equal(t, uint16(0), s.seq)
	assert.Equal(t, uint16(42), s.id)
	assert.Equal(t, 64, s.PayloadSize())
	assert.Equal(t, "target.test", s.Host())
	assert.True(t, testTarget.Equal(s.Address()))
	assert.Empty(t, s.stHandlers)
	assert.Empty(t, s.rtHandlers)
	assert.Empty(t, s.endHandlers)

	assert.False(t, s.IsStarted())
	assert.False(t, s.IsFinished())
}

func TestNewSessionInvalidSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.Count = 0

	_, err := newSession("target.test", settings, &fakeResolver{}, &fakeNetwork{}, quietLogger())
	assert.ErrorIs(t, err, ErrInvalidSettings)
}

func TestNewSessionUnresolvable(t *testing.T) {
	_, err := newSession("nowhere.test", DefaultSettings(), &fakeResolver{}, &fakeNetwork{}, quietLogger())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere.test")
}

// TestSessionRunAllReplied verifies a session against a host answering every request
func TestSessionRunAllReplied(t *testing.T) {
	network := &fakeNetwork{onEcho: echoer(t, 57)}
	s := newTestSession(t, fastSettings(3), network)

	var rts []RoundTrip
	s.AddOnRecv(func(_ *Session, rt *RoundTrip) {
		rts = append(rts, *rt)
	})

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rts, 3)
	for i, rt := range rts {
		assert.Equal(t, Replied, rt.Res)
		assert.Equal(t, uint16(i), rt.Seq)
		assert.Equal(t, 57, rt.TTL)
		assert.True(t, testTarget.Equal(rt.Src))
		assert.Equal(t, icmpHeaderLen+64, rt.Len)
		assert.Less(t, rt.Time, time.Second)
	}

	assert.Equal(t, 3, summary.Sent)
	assert.Equal(t, 3, summary.Received)
	assert.Zero(t, summary.LostPercent)
	require.NotNil(t, summary.RTT)
	assert.LessOrEqual(t, summary.RTT.Min, summary.RTT.Mean)
	assert.LessOrEqual(t, summary.RTT.Mean, summary.RTT.Max)
	assert.False(t, summary.End.Before(summary.Start))

	assert.Equal(t, 3, network.opened)
	assert.Equal(t, network.opened, network.closed)
	assert.Equal(t, []int{64, 64, 64}, network.ttls)
	assert.True(t, s.IsStarted())
	assert.True(t, s.IsFinished())
}

// TestSessionRunSilentHost verifies a session against a host that never answers
func TestSessionRunSilentHost(t *testing.T) {
	network := &fakeNetwork{}
	s := newTestSession(t, fastSettings(2), network)

	var rts []RoundTrip
	s.AddOnRecv(func(_ *Session, rt *RoundTrip) {
		rts = append(rts, *rt)
	})

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rts, 2)
	for _, rt := range rts {
		assert.Equal(t, TimedOut, rt.Res)
		assert.NoError(t, rt.Err)
	}

	assert.Equal(t, 2, summary.Sent)
	assert.Equal(t, 0, summary.Received)
	assert.Equal(t, 100.0, summary.LostPercent)
	assert.Nil(t, summary.RTT)

	_, err = summary.RoundTrips()
	assert.ErrorIs(t, err, ErrNoSamples)
	assert.Equal(t, network.opened, network.closed)
}

// TestSessionRunPartialLoss drops every other reply
func TestSessionRunPartialLoss(t *testing.T) {
	reply := echoer(t, 64)
	network := &fakeNetwork{onEcho: func(msg []byte, dst net.IP, ttl int) [][]byte {
		if binary.BigEndian.Uint16(msg[6:8])%2 == 1 {
			return nil
		}
		return reply(msg, dst, ttl)
	}}
	s := newTestSession(t, fastSettings(4), network)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Sent)
	assert.Equal(t, 2, summary.Received)
	assert.Equal(t, 50.0, summary.LostPercent)
}

func TestSessionRunOpenFailure(t *testing.T) {
	network := &fakeNetwork{listenErr: openError(icmpPrivilegedNetwork, errors.New("operation not permitted"))}
	s := newTestSession(t, fastSettings(3), network)

	finished := false
	s.AddOnFinish(func(*Session, *Summary) {
		finished = true
	})

	summary, err := s.Run(context.Background())
	assert.ErrorIs(t, err, ErrSocketOpen)
	assert.Nil(t, summary)
	assert.False(t, finished)
	assert.True(t, s.IsFinished())
}

// TestSessionRunSendError verifies that a failed send is a lost request, not the end of the session
func TestSessionRunSendError(t *testing.T) {
	writeErr := errors.New("network is unreachable")
	network := &fakeNetwork{writeErr: writeErr}
	s := newTestSession(t, fastSettings(2), network)

	var rts []RoundTrip
	s.AddOnRecv(func(_ *Session, rt *RoundTrip) {
		rts = append(rts, *rt)
	})

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, rts, 2)
	for _, rt := range rts {
		assert.Equal(t, TimedOut, rt.Res)
		assert.ErrorIs(t, rt.Err, writeErr)
	}
	assert.Equal(t, 100.0, summary.LostPercent)
	assert.Equal(t, 2, network.closed)
}

func TestSessionRunCanceledBeforeStart(t *testing.T) {
	network := &fakeNetwork{onEcho: echoer(t, 64)}
	s := newTestSession(t, fastSettings(3), network)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Sent)
	assert.Zero(t, network.opened)
	assert.True(t, s.IsFinished())
}

// TestSessionRunCanceledWhileWaiting verifies that cancelling during the interval ends the session
// with the statistics gathered so far
func TestSessionRunCanceledWhileWaiting(t *testing.T) {
	network := &fakeNetwork{onEcho: echoer(t, 64)}
	settings := fastSettings(1000)
	settings.Interval = 3600
	s := newTestSession(t, settings, network)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.AddOnRecv(func(*Session, *RoundTrip) {
		cancel()
	})

	done := make(chan *Summary, 1)
	go func() {
		summary, err := s.Run(ctx)
		assert.NoError(t, err)
		done <- summary
	}()

	select {
	case summary := <-done:
		assert.Equal(t, 1, summary.Sent)
		assert.Equal(t, 1, summary.Received)
	case <-time.After(5 * time.Second):
		t.Error("Cancel did not stop the session in time")
	}
}

func TestSessionRunTwice(t *testing.T) {
	s := newTestSession(t, fastSettings(1), &fakeNetwork{onEcho: echoer(t, 64)})

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	_, err = s.Run(context.Background())
	assert.Error(t, err)
}

// TestSessionHandlers verifies the order and the arguments of every handler
func TestSessionHandlers(t *testing.T) {
	s := newTestSession(t, fastSettings(2), &fakeNetwork{onEcho: echoer(t, 64)})

	var events []string
	s.AddOnStart(func(session *Session) {
		assert.Same(t, s, session)
		assert.True(t, session.IsStarted())
		events = append(events, "start")
	})
	s.AddOnRecv(func(_ *Session, rt *RoundTrip) {
		events = append(events, rt.Res.String())
	})
	s.AddOnFinish(func(_ *Session, summary *Summary) {
		assert.Equal(t, 2, summary.Received)
		events = append(events, "finish")
	})

	_, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"start", "replied", "replied", "finish"}, events)
}

// TestSessionCustomTTLAndIdentifier verifies that the settings reach the wire
func TestSessionCustomTTLAndIdentifier(t *testing.T) {
	var ids []uint16
	var sizes []int
	reply := echoer(t, 64)
	network := &fakeNetwork{onEcho: func(msg []byte, dst net.IP, ttl int) [][]byte {
		ids = append(ids, binary.BigEndian.Uint16(msg[4:6]))
		sizes = append(sizes, len(msg))
		return reply(msg, dst, ttl)
	}}

	settings := fastSettings(2)
	settings.TTL = 3
	settings.Identifier = 0xbeef
	settings.PacketSize = 0
	s := newTestSession(t, settings, network)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Received)
	assert.Equal(t, []int{3, 3}, network.ttls)
	assert.Equal(t, []uint16{0xbeef, 0xbeef}, ids)
	assert.Equal(t, []int{icmpHeaderLen, icmpHeaderLen}, sizes)
}

// TestSessionIntervalIsWaited verifies that the interval separates requests but is not waited after the last one
func TestSessionIntervalIsWaited(t *testing.T) {
	settings := fastSettings(3)
	settings.Interval = 0.05
	s := newTestSession(t, settings, &fakeNetwork{onEcho: echoer(t, 64)})

	start := time.Now()
	_, err := s.Run(context.Background())
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}
