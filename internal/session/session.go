// Package session wires the core C1-C11 components into the concurrent
// producer/consumer pipeline described in spec §5: a goroutine reads the
// interpreter's stdout and accumulates it until an idle window elapses,
// and the retry state machine runs in Run's loop, reacting to each
// drained chunk of output. Commands reach the interpreter's stdin from
// Submit (user commands) and from Run's loop (resent rewrites). Modeled on the teacher's channel-based
// zmachine.Run/output-channel plumbing (cmd/gametest/main.go).
package session

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"

	"github.com/hfyorke/zrepair/internal/retrymachine"
	"github.com/hfyorke/zrepair/internal/sessionlog"
	"github.com/hfyorke/zrepair/internal/telemetry"
)

// DefaultIdleWindow is the quiescence period used to decide an
// interpreter has finished emitting one chunk of output (spec §5: "a
// short idle window, e.g. 120 ms after last byte, is sufficient").
const DefaultIdleWindow = 120 * time.Millisecond

// Interpreter is the subprocess-shaped collaborator the session drives:
// line-oriented stdin, byte-stream stdout, matching spec §5's "inputs
// lines on stdin; emits lines on stdout. No structured protocol;
// boundaries determined by idleness."
type Interpreter interface {
	io.Writer // stdin
	io.Reader // stdout
}

// Display receives text the session decides the human player should see.
type Display interface {
	Show(text string)
}

// DisplayFunc adapts a function to Display.
type DisplayFunc func(string)

func (f DisplayFunc) Show(text string) { f(text) }

// Session owns one running Machine plus the goroutines that feed it
// drained interpreter output and forward resend commands.
type Session struct {
	interp     Interpreter
	machine    *retrymachine.Machine
	display    Display
	log        *sessionlog.Logger
	idleWindow time.Duration

	outputCh chan string
	errCh    chan error
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithIdleWindow overrides DefaultIdleWindow, mainly for faster tests.
func WithIdleWindow(d time.Duration) Option {
	return func(s *Session) { s.idleWindow = d }
}

// WithSessionLog attaches an operator debug logger (spec §2.2).
func WithSessionLog(l *sessionlog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// New builds a Session. telemetryLogger may be nil to disable C11 events.
func New(interp Interpreter, rewriter retrymachine.Rewriter, telemetryLogger *telemetry.Logger, display Display, opts ...Option) *Session {
	s := &Session{
		interp:     interp,
		machine:    retrymachine.New(rewriter, telemetryLogger),
		display:    display,
		idleWindow: DefaultIdleWindow,
		outputCh:   make(chan string, 16),
		errCh:      make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = sessionlog.NewNop()
	}
	return s
}

// Run starts the producer goroutine (reads+drains interpreter stdout),
// then drives the state machine with each drained chunk on the calling
// goroutine until ctx is cancelled or the interpreter's stream closes.
// It is the caller's responsibility to run Submit from another goroutine
// (or before calling Run) to feed user commands in.
func (s *Session) Run(ctx context.Context) error {
	go s.produce(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-s.errCh:
			return err
		case chunk, ok := <-s.outputCh:
			if !ok {
				return nil
			}
			s.handleChunk(ctx, chunk)
		}
	}
}

// Submit sends a user command: it writes the command to the
// interpreter's stdin and transitions the state machine Idle ->
// CommandSent, per spec §4.10.
func (s *Session) Submit(cmd string) error {
	s.machine.SubmitCommand(cmd)
	_, err := io.WriteString(s.interp, cmd+"\n")
	return err
}

func (s *Session) handleChunk(ctx context.Context, chunk string) {
	before := s.machine.State()
	outcome := s.machine.Advance(ctx, chunk)
	s.log.StateTransition(before.String(), s.machine.State().String())

	if outcome.ShowToUser != "" {
		s.display.Show(outcome.ShowToUser)
	}
	if outcome.ResendCommand != "" {
		if _, err := io.WriteString(s.interp, outcome.ResendCommand+"\n"); err != nil {
			select {
			case s.errCh <- err:
			default:
			}
		}
	}
}

// produce reads raw bytes from the interpreter, accumulating them until
// idleWindow elapses since the last byte, then emits one drained chunk
// on outputCh (spec §5 "Ordering with the interpreter").
func (s *Session) produce(ctx context.Context) {
	defer close(s.outputCh)

	r := bufio.NewReader(s.interp)
	byteCh := make(chan byte, 4096)
	readErrCh := make(chan error, 1)

	go func() {
		for {
			b, err := r.ReadByte()
			if err != nil {
				readErrCh <- err
				return
			}
			select {
			case byteCh <- b:
			case <-ctx.Done():
				return
			}
		}
	}()

	var buf strings.Builder
	timer := time.NewTimer(s.idleWindow)
	defer timer.Stop()

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		text := buf.String()
		buf.Reset()
		select {
		case s.outputCh <- text:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case b := <-byteCh:
			buf.WriteByte(b)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.idleWindow)
		case <-timer.C:
			flush()
			timer.Reset(s.idleWindow)
		case err := <-readErrCh:
			flush()
			if err != io.EOF {
				select {
				case s.errCh <- err:
				default:
				}
			}
			return
		}
	}
}
