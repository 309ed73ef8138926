package cmd

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/karan9123/Networks/core"
)

// pingPrinter writes the progress of a ping session in the format of the classic utility.
type pingPrinter struct {
	out io.Writer
}

func (p *pingPrinter) register(s *core.Session) {
	s.AddOnStart(p.onStart)
	s.AddOnRecv(p.onRoundTrip)
	s.AddOnFinish(p.onFinish)
}

func (p *pingPrinter) onStart(s *core.Session) {
	p.printStart(s.Host(), s.Address(), s.PayloadSize())
}

func (p *pingPrinter) printStart(host string, addr net.IP, size int) {
	fmt.Fprintf(p.out, "PING %s (%s): %d data bytes\n", host, addr, size)
}

func (p *pingPrinter) onRoundTrip(_ *core.Session, rt *core.RoundTrip) {
	switch {
	case rt.Res == core.Replied:
		fmt.Fprintf(p.out, "%d bytes from %s: icmp_seq=%d ttl=%d time=%.3f ms\n",
			rt.Len, rt.Src, rt.Seq, rt.TTL, milliseconds(rt.Time))
	case rt.Err != nil:
		fmt.Fprintf(p.out, "Request failed for icmp_seq %d: %s\n", rt.Seq, rt.Err)
	default:
		fmt.Fprintf(p.out, "Request timeout for icmp_seq %d\n", rt.Seq)
	}
}

func (p *pingPrinter) onFinish(s *core.Session, summary *core.Summary) {
	p.printSummary(s.Host(), summary)
}

func (p *pingPrinter) printSummary(host string, summary *core.Summary) {
	fmt.Fprintln(p.out)
	fmt.Fprintf(p.out, "--- %s ping statistics ---\n", host)

	totalTime := summary.End.Sub(summary.Start).Truncate(time.Millisecond)
	fmt.Fprintf(p.out, "%d packets transmitted, %d packets received, %.1f%% packet loss, time %s\n",
		summary.Sent, summary.Received, summary.LostPercent, totalTime)

	stats, err := summary.RoundTrips()
	if err != nil {
		fmt.Fprintln(p.out, "no replies, round-trip statistics unavailable")
		return
	}

	fmt.Fprintf(p.out, "round-trip min/avg/max/mdev = %.3f/%.3f/%.3f/%.3f ms\n",
		milliseconds(stats.Min), milliseconds(stats.Mean), milliseconds(stats.Max), milliseconds(stats.MDev))
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
