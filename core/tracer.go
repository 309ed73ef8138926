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

// maxHopResponseLen holds a whole Ethernet-sized datagram, so ICMP errors quoting up to 576 bytes
// (RFC 1812) with RFC 4884 extensions are read without truncation.
const maxHopResponseLen = 1500

// Tracer discovers the routers between this host and a destination by sending UDP probes with
// increasing TTLs and listening for the ICMP messages they trigger.
type Tracer struct {
	settings *TraceSettings

	// host is the address the tracer was created with.
	host string

	// addr is the resolved IPv4 address of the destination.
	addr net.IP

	network  Network
	resolver Resolver

	// logger is an instance of logrus used to log activities related to this trace
	logger *log.Logger

	// hops are the hop records produced so far, in TTL order.
	hops []HopRecord

	isStarted bool

	// hopHandlers are the callback functions called after every TTL is probed.
	hopHandlers []func(*Tracer, *HopRecord)
}

// NewTracer creates a Tracer to host using raw sockets.
func NewTracer(host string, settings *TraceSettings) (*Tracer, error) {
	logger := NewLogger(settings.LoggingLevel, os.Stderr)
	return newTracer(host, settings, NewResolver(), NewRawNetwork(), logger)
}

func newTracer(host string, settings *TraceSettings, resolver Resolver, network Network,
	logger *log.Logger) (*Tracer, error) {

	logger.Debug("Validating trace settings")

	if err := settings.validate(); err != nil {
		return nil, err
	}

	logger.Infof("Resolving address %s", host)

	ip, err := resolver.LookupIPv4(context.Background(), host)
	if err != nil {
		return nil, fmt.Errorf("error while resolving address %s: %w", host, err)
	}

	logger.Infof("Address %s resolved to IP Address %s", host, ip)

	return &Tracer{
		settings: settings,
		host:     host,
		addr:     ip,
		network:  network,
		resolver: resolver,
		logger:   logger,
	}, nil
}

// Run probes every TTL from 1 until the destination answers or the maximum amount of hops is
// reached, and returns one record per TTL. Cancelling ctx stops the trace between probes. The
// only error is failing to open the raw ICMP socket, which prevents probing at all.
func (t *Tracer) Run(ctx context.Context) ([]HopRecord, error) {
	if t.isStarted {
		return nil, errors.New("this trace has already started")
	}
	t.isStarted = true

	for ttl := 1; ttl <= t.settings.MaxHops; ttl++ {
		hop := HopRecord{TTL: ttl}

		for i := 0; i < t.settings.ProbesPerHop && ctx.Err() == nil; i++ {
			probe, err := t.probe(ctx, ttl)
			if err != nil {
				return t.hops, err
			}
			hop.Probes = append(hop.Probes, probe)
		}

		if len(hop.Probes) > 0 {
			t.processHop(hop)
		}

		if ctx.Err() != nil {
			t.logger.Info("Stop requested, ending trace")
			break
		}

		if hop.Reached(t.addr) {
			t.logger.Infof("Destination %s reached with TTL %d", t.addr, ttl)
			break
		}
	}

	return t.hops, nil
}

// Address is the resolved address of the destination.
func (t *Tracer) Address() net.IP {
	return t.addr
}

// Host is the destination the tracer was created with, as given.
func (t *Tracer) Host() string {
	return t.host
}

// Settings returns the settings of the trace.
func (t *Tracer) Settings() TraceSettings {
	return *t.settings
}

// AddOnHop adds a handler function that will be called after each TTL is probed
func (t *Tracer) AddOnHop(handler func(*Tracer, *HopRecord)) {
	t.hopHandlers = append(t.hopHandlers, handler)
}

// probe sends one UDP probe with the given TTL and waits for the ICMP message it triggers. Both
// sockets live only as long as the probe. It only returns an error when the raw ICMP socket
// cannot be opened; every other failure is recorded in the returned probe.
func (t *Tracer) probe(ctx context.Context, ttl int) (HopProbe, error) {
	t.logger.Debugf("Opening sockets for probe with TTL %d", ttl)

	recv, err := t.network.ListenICMP()
	if err != nil {
		return HopProbe{}, err
	}
	defer recv.Close()

	send, err := t.network.DialUDP(&net.UDPAddr{IP: t.addr, Port: t.settings.Port}, ttl)
	if err != nil {
		t.logger.Errorf("Could not open probe socket with TTL %d: %s", ttl, err)
		return HopProbe{Err: fmt.Errorf("error while opening probe socket: %w", err)}, nil
	}
	defer send.Close()

	localPort := 0
	if laddr, ok := send.LocalAddr().(*net.UDPAddr); ok {
		localPort = laddr.Port
	}

	timeout := secondsToDuration(t.settings.Timeout)
	start := time.Now()
	deadline := start.Add(timeout)

	if err := recv.SetReadDeadline(deadline); err != nil {
		return HopProbe{Err: fmt.Errorf("error while setting read deadline: %w", err)}, nil
	}

	t.logger.Tracef("Sending empty UDP datagram to %s:%d from port %d with TTL %d",
		t.addr, t.settings.Port, localPort, ttl)
	if _, err := send.Write([]byte{}); err != nil {
		t.logger.Errorf("Could not send probe with TTL %d: %s", ttl, err)
		return HopProbe{Err: fmt.Errorf("error while sending probe: %w", err)}, nil
	}

	buffer := make([]byte, maxHopResponseLen)
	for {
		length, _, err := recv.ReadFrom(buffer)
		end := time.Now()
		if err != nil {
			if isTimeout(err) {
				t.logger.Infof("Probe with TTL %d timed out after %s", ttl, timeout)
				return HopProbe{Err: ErrHopTimeout}, nil
			}
			t.logger.Errorf("Error while reading from connection: %s", err)
			return HopProbe{Err: fmt.Errorf("error while reading from connection: %w", err)}, nil
		}

		t.logger.Tracef("Raw packet received: %x", buffer[:length])
		resp, err := parseHopResponse(buffer[:length])
		switch {
		case err != nil:
			t.logger.Debugf("Could not parse raw packet: %s", err)
		case !resp.matches(t.addr, t.settings.Port, localPort):
			t.logger.Debugf("Received %s from %s that does not answer our probe", resp.TypeCode, resp.Src)
		default:
			if resp.reachedPort() {
				t.logger.Debugf("Port unreachable from %s, the probe reached its destination", resp.Src)
			}
			return t.answered(ctx, resp, end.Sub(start)), nil
		}

		if !end.Before(deadline) {
			t.logger.Infof("Probe with TTL %d timed out after %s", ttl, timeout)
			return HopProbe{Err: ErrHopTimeout}, nil
		}
	}
}

// answered builds the probe answered by resp, naming the responder unless in numeric mode.
func (t *Tracer) answered(ctx context.Context, resp *hopResponse, rtt time.Duration) HopProbe {
	// resp points into the read buffer
	addr := append(net.IP(nil), resp.Src.To4()...)

	name := addr.String()
	if !t.settings.Numeric {
		name = t.resolver.LookupName(ctx, addr)
	}

	return HopProbe{
		Addr:     addr,
		Name:     name,
		RTT:      rtt,
		ICMPType: Type(resp.TypeCode.Type()),
		ICMPCode: resp.TypeCode.Code(),
	}
}

// processHop records a hop and calls all handlers for it.
func (t *Tracer) processHop(hop HopRecord) {
	t.hops = append(t.hops, hop)

	t.logger.Infof("Calling all handlers for hop %d", hop.TTL)
	for _, f := range t.hopHandlers {
		f(t, &hop)
	}
}
