package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/karan9123/Networks/core"
)

// Runner is the struct that is responsible for running the program
type Runner struct {
	run    func(ctx context.Context) error
	ctx    context.Context
	cancel context.CancelFunc
	sigch  chan os.Signal
	endch  chan error
}

// newRunner creates a runner with the initialized values
func newRunner(run func(ctx context.Context) error) *Runner {
	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		run:    run,
		ctx:    ctx,
		cancel: cancel,
		sigch:  make(chan os.Signal, 1),
		endch:  make(chan error, 1),
	}
}

// newPingRunner creates a runner of a ping session that prints to out
func newPingRunner(addr string, settings *core.Settings, out io.Writer) (*Runner, error) {
	session, err := core.NewSession(addr, settings)
	if err != nil {
		return nil, err
	}

	printer := &pingPrinter{out: out}
	printer.register(session)

	return newRunner(func(ctx context.Context) error {
		_, err := session.Run(ctx)
		return err
	}), nil
}

// newTraceRunner creates a runner of a traceroute that prints to out
func newTraceRunner(addr string, settings *core.TraceSettings, out io.Writer) (*Runner, error) {
	tracer, err := core.NewTracer(addr, settings)
	if err != nil {
		return nil, err
	}

	printer := &tracePrinter{out: out, summary: settings.Summary}
	printer.register(tracer)

	return newRunner(func(ctx context.Context) error {
		printer.printStart(tracer.Host(), tracer.Address(), settings.MaxHops)
		_, err := tracer.Run(ctx)
		return err
	}), nil
}

// Start starts the runner
func (r *Runner) Start() {
	r.handleSignals()

	go func() {
		err := r.run(r.ctx)
		r.cancel()
		r.endch <- err
	}()
}

// RequestStop requests the stop of the run, which ends after the probe in flight
func (r *Runner) RequestStop() {
	r.cancel()
}

// Wait blocks the caller until the runner finishes
func (r *Runner) Wait() error {
	return <-r.endch
}

// handleSignals stops the run on the first interrupt or termination signal
func (r *Runner) handleSignals() {
	signal.Notify(r.sigch, os.Interrupt, syscall.SIGTERM)
	go func() {
		defer signal.Stop(r.sigch)

		select {
		case <-r.sigch:
			r.RequestStop()
		case <-r.ctx.Done():
		}
	}()
}
