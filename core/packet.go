package core

import (
	"encoding/binary"
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// icmpHeaderLen is the length of the fixed ICMP header: type, code, checksum, identifier and sequence.
const icmpHeaderLen = 8

// Type is the type of an ICMP message.
type Type uint8

// ICMP message types handled or displayed by this package.
const (
	TypeEchoReply              Type = 0
	TypeDestinationUnreachable Type = 3
	TypeRedirect               Type = 5
	TypeEcho                   Type = 8
	TypeRouterAdvertisement    Type = 9
	TypeRouterSolicitation     Type = 10
	TypeTimeExceeded           Type = 11
	TypeTimestamp              Type = 13
	TypeTimestampReply         Type = 14
)

// codePortUnreachable is the destination unreachable code sent by a host with no listener on the port.
const codePortUnreachable = 3

var typeNames = map[Type]string{
	TypeEchoReply:              "echo reply",
	TypeDestinationUnreachable: "destination unreachable",
	TypeRedirect:               "redirect",
	TypeEcho:                   "echo request",
	TypeRouterAdvertisement:    "router advertisement",
	TypeRouterSolicitation:     "router solicitation",
	TypeTimeExceeded:           "time exceeded",
	TypeTimestamp:              "timestamp request",
	TypeTimestampReply:         "timestamp reply",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("type %d", uint8(t))
}

// Message is an ICMP message with an identifier and a sequence number in its header.
type Message struct {
	Type     Type
	Code     uint8
	Checksum uint16
	ID       uint16
	Seq      uint16
	Payload  []byte
}

// Marshal returns the wire form of m. The checksum is always recomputed and stored back in m.
func (m *Message) Marshal() []byte {
	b := make([]byte, icmpHeaderLen+len(m.Payload))
	b[0] = byte(m.Type)
	b[1] = m.Code
	binary.BigEndian.PutUint16(b[4:6], m.ID)
	binary.BigEndian.PutUint16(b[6:8], m.Seq)
	copy(b[icmpHeaderLen:], m.Payload)

	m.Checksum = Checksum(b)
	binary.BigEndian.PutUint16(b[2:4], m.Checksum)

	return b
}

// EncodeEcho returns an echo request carrying id, seq and payload, ready to be written to a raw socket.
func EncodeEcho(id, seq uint16, payload []byte) []byte {
	msg := &Message{
		Type:    TypeEcho,
		Code:    0,
		ID:      id,
		Seq:     seq,
		Payload: payload,
	}

	return msg.Marshal()
}

// NewEchoPayload returns size bytes of filler counting up from zero.
func NewEchoPayload(size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = byte(i)
	}
	return payload
}

// Header holds the fields of a received datagram: the ICMP header and the parts of the
// enclosing IPv4 header we report.
type Header struct {
	Type     Type
	Code     uint8
	Checksum uint16
	ID       uint16
	Seq      uint16

	// TTL is the time to live carried by the IPv4 header, i.e. the sender's outgoing TTL
	// minus the hops travelled.
	TTL int

	// Src is the sender of the datagram.
	Src net.IP

	// Body is everything after the 8-byte ICMP header.
	Body []byte
}

// DecodeHeader parses a datagram read from a raw ICMP socket, which starts with the IPv4 header.
// It fails with ErrMalformedPacket if the datagram is truncated or its ICMP checksum is wrong.
func DecodeHeader(datagram []byte) (*Header, error) {
	if len(datagram) < ipv4.HeaderLen+icmpHeaderLen {
		return nil, fmt.Errorf("%w: %d bytes received of min %d",
			ErrMalformedPacket, len(datagram), ipv4.HeaderLen+icmpHeaderLen)
	}

	iph, err := ipv4.ParseHeader(datagram)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPacket, err)
	}
	if iph.Version != ipv4.Version || iph.Len < ipv4.HeaderLen {
		return nil, fmt.Errorf("%w: invalid IPv4 header, version %d and length %d",
			ErrMalformedPacket, iph.Version, iph.Len)
	}

	msg := datagram[iph.Len:]
	if len(msg) < icmpHeaderLen {
		return nil, fmt.Errorf("%w: ICMP message of %d bytes after a %d-byte IP header",
			ErrMalformedPacket, len(msg), iph.Len)
	}

	if !ValidChecksum(msg) {
		return nil, fmt.Errorf("%w: checksum 0x%04x does not match contents",
			ErrMalformedPacket, binary.BigEndian.Uint16(msg[2:4]))
	}

	return &Header{
		Type:     Type(msg[0]),
		Code:     msg[1],
		Checksum: binary.BigEndian.Uint16(msg[2:4]),
		ID:       binary.BigEndian.Uint16(msg[4:6]),
		Seq:      binary.BigEndian.Uint16(msg[6:8]),
		TTL:      iph.TTL,
		Src:      iph.Src,
		Body:     msg[icmpHeaderLen:],
	}, nil
}
