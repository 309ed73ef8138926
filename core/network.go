package core

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/net/ipv4"
)

const (
	icmpProtocol          = 1
	icmpPrivilegedNetwork = "ip4:icmp"
	udpNetwork            = "udp4"
)

// Network opens the sockets used by probes. Each probe opens its own sockets and closes them
// before the next one starts.
type Network interface {
	// ListenICMP opens a raw ICMP socket. Datagrams read from it include their IPv4 header.
	ListenICMP() (ICMPConn, error)

	// DialUDP opens a UDP socket connected to dst whose outgoing datagrams carry the given TTL.
	DialUDP(dst *net.UDPAddr, ttl int) (UDPConn, error)
}

// ICMPConn is a raw ICMP endpoint.
type ICMPConn interface {
	// WriteTo sends the ICMP message msg to dst in an IPv4 datagram with the given TTL.
	WriteTo(msg []byte, dst net.IP, ttl int) error

	// ReadFrom copies the next datagram, IPv4 header included, into b and returns its length
	// and sender.
	ReadFrom(b []byte) (int, net.IP, error)

	SetReadDeadline(t time.Time) error
	Close() error
}

// UDPConn is the sending side of a traceroute probe.
type UDPConn interface {
	Write(b []byte) (int, error)
	LocalAddr() net.Addr
	Close() error
}

// rawNetwork is the Network backed by the operating system. Raw sockets need elevated privileges.
type rawNetwork struct{}

// NewRawNetwork returns the Network backed by real IPv4 sockets.
func NewRawNetwork() Network {
	return rawNetwork{}
}

func (rawNetwork) ListenICMP() (ICMPConn, error) {
	c, err := net.ListenPacket(icmpPrivilegedNetwork, "0.0.0.0")
	if err != nil {
		return nil, openError(icmpPrivilegedNetwork, err)
	}

	rc, err := ipv4.NewRawConn(c)
	if err != nil {
		c.Close()
		return nil, openError(icmpPrivilegedNetwork, err)
	}

	return &rawICMPConn{conn: rc}, nil
}

func (rawNetwork) DialUDP(dst *net.UDPAddr, ttl int) (UDPConn, error) {
	c, err := net.DialUDP(udpNetwork, nil, dst)
	if err != nil {
		return nil, openError(udpNetwork, err)
	}

	if err := ipv4.NewConn(c).SetTTL(ttl); err != nil {
		c.Close()
		return nil, fmt.Errorf("could not set TTL %d on UDP socket: %w", ttl, err)
	}

	return c, nil
}

// openError wraps a socket creation failure in ErrSocketOpen, pointing at privileges when the
// kernel refused the operation.
func openError(network string, err error) error {
	if errors.Is(err, os.ErrPermission) {
		return fmt.Errorf("%w %s: %w (raw sockets require root or CAP_NET_RAW)", ErrSocketOpen, network, err)
	}
	return fmt.Errorf("%w %s: %w", ErrSocketOpen, network, err)
}

// rawICMPConn writes whole IPv4 datagrams so the TTL of every echo request is under our control,
// and reads datagrams with their header so the reply TTL can be reported.
type rawICMPConn struct {
	conn *ipv4.RawConn
}

func (c *rawICMPConn) WriteTo(msg []byte, dst net.IP, ttl int) error {
	h := &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + len(msg),
		TTL:      ttl,
		Protocol: icmpProtocol,
		Dst:      dst.To4(),
	}
	return c.conn.WriteTo(h, msg, nil)
}

func (c *rawICMPConn) ReadFrom(b []byte) (int, net.IP, error) {
	h, p, _, err := c.conn.ReadFrom(b)
	if err != nil {
		return 0, nil, err
	}
	return h.Len + len(p), h.Src, nil
}

func (c *rawICMPConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

func (c *rawICMPConn) Close() error {
	return c.conn.Close()
}

// isTimeout reports whether err is the expiry of a read deadline.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var neterr net.Error
	return errors.As(err, &neterr) && neterr.Timeout()
}
