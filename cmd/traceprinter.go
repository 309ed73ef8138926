package cmd

import (
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/karan9123/Networks/core"
)

// tracePrinter writes one line per hop, naming each new responder once followed by the
// round-trip times of its probes.
type tracePrinter struct {
	out io.Writer

	// summary adds the count of unanswered probes to every hop.
	summary bool
}

func (p *tracePrinter) register(t *core.Tracer) {
	t.AddOnHop(p.onHop)
}

func (p *tracePrinter) printStart(host string, addr net.IP, maxHops int) {
	fmt.Fprintf(p.out, "traceroute to %s (%s), %d hops max\n", host, addr, maxHops)
}

func (p *tracePrinter) onHop(_ *core.Tracer, hop *core.HopRecord) {
	var line strings.Builder
	fmt.Fprintf(&line, "%2d ", hop.TTL)

	var last net.IP
	for _, probe := range hop.Probes {
		if !probe.Answered() {
			line.WriteString(" *")
			continue
		}

		if !probe.Addr.Equal(last) {
			fmt.Fprintf(&line, " %s (%s)", probe.Name, probe.Addr)
			last = probe.Addr
		}
		fmt.Fprintf(&line, "  %.3f ms", milliseconds(probe.RTT))
	}

	if p.summary {
		fmt.Fprintf(&line, "  (%d of %d probes not answered)", hop.Unanswered(), len(hop.Probes))
	}

	fmt.Fprintln(p.out, line.String())
}
