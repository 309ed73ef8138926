package core

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// hopResponse holds the fields of an ICMP error message needed to match it with a traceroute probe.
type hopResponse struct {
	Src      net.IP
	TypeCode layers.ICMPv4TypeCode

	// HasInner is set when the datagram quoted by the ICMP message could be decoded as UDP.
	HasInner     bool
	InnerDst     net.IP
	InnerSrcPort uint16
	InnerDstPort uint16
}

// parseHopResponse decodes a datagram read from a raw ICMP socket, IPv4 header included.
func parseHopResponse(datagram []byte) (*hopResponse, error) {
	var ipLayer layers.IPv4
	var icmpLayer layers.ICMPv4
	decoded := []gopacket.LayerType{}

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeIPv4, &ipLayer, &icmpLayer)
	parser.IgnoreUnsupported = true
	if err := parser.DecodeLayers(datagram, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedPacket, err)
	}
	// unsupported layers are ignored, so make sure we got as far as ICMP
	if len(decoded) < 2 {
		return nil, fmt.Errorf("%w: no ICMP layer in datagram", ErrMalformedPacket)
	}

	if !ValidChecksum(ipLayer.Payload) {
		return nil, fmt.Errorf("%w: checksum 0x%04x does not match contents", ErrMalformedPacket, icmpLayer.Checksum)
	}

	resp := &hopResponse{
		Src:      ipLayer.SrcIP,
		TypeCode: icmpLayer.TypeCode,
	}

	// the quoted header needs a parser of its own, gopacket does not decode nested IP layers
	var innerIPLayer layers.IPv4
	var innerUDPLayer layers.UDP
	innerParser := gopacket.NewDecodingLayerParser(layers.LayerTypeIPv4, &innerIPLayer, &innerUDPLayer)
	innerParser.IgnoreUnsupported = true
	if err := innerParser.DecodeLayers(icmpLayer.Payload, &decoded); err == nil && len(decoded) == 2 {
		resp.HasInner = true
		resp.InnerDst = innerIPLayer.DstIP
		resp.InnerSrcPort = uint16(innerUDPLayer.SrcPort)
		resp.InnerDstPort = uint16(innerUDPLayer.DstPort)
	}

	return resp, nil
}

// matches reports whether the response answers the UDP probe sent from localPort to dst:port.
// When the quoted datagram is missing, any time exceeded or destination unreachable is accepted.
func (r *hopResponse) matches(dst net.IP, port int, localPort int) bool {
	switch Type(r.TypeCode.Type()) {
	case TypeTimeExceeded, TypeDestinationUnreachable:
	default:
		return false
	}

	if !r.HasInner {
		return true
	}

	return r.InnerDst.Equal(dst) &&
		int(r.InnerDstPort) == port &&
		(localPort == 0 || int(r.InnerSrcPort) == localPort)
}

// reachedPort reports whether the response is the port unreachable sent by the destination itself.
func (r *hopResponse) reachedPort() bool {
	return Type(r.TypeCode.Type()) == TypeDestinationUnreachable && r.TypeCode.Code() == codePortUnreachable
}
