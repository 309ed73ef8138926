package core

// Checksum computes the Internet checksum (RFC 1071) of b.
//
// The data is summed as big-endian 16-bit words, a trailing odd byte being the high half of
// a zero-padded word. Carries are folded back until none remain and the one's complement is
// returned, ready to be written big-endian into a header.
func Checksum(b []byte) uint16 {
	return ^foldedSum(b)
}

// ValidChecksum reports whether b, a message whose checksum field is already filled in,
// sums to 0xffff.
func ValidChecksum(b []byte) bool {
	return foldedSum(b) == 0xffff
}

func foldedSum(b []byte) uint16 {
	var sum uint64

	n := len(b) &^ 1
	for i := 0; i < n; i += 2 {
		sum += uint64(b[i])<<8 | uint64(b[i+1])
	}

	if len(b)%2 == 1 {
		sum += uint64(b[len(b)-1]) << 8
	}

	for sum > 0xffff {
		sum = (sum >> 16) + (sum & 0xffff)
	}

	return uint16(sum)
}
