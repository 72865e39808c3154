// Package retrymachine implements the strict single-retry finite
// automaton that sequences C5-C9 and drives fallback disclosure (spec
// §3 "RetryState", §4.10, component C10). At most one rewrite is ever
// emitted per original user command.
package retrymachine

import (
	"context"

	"github.com/hfyorke/zrepair/internal/detector"
	"github.com/hfyorke/zrepair/internal/promptbuilder"
	"github.com/hfyorke/zrepair/internal/sanitizer"
	"github.com/hfyorke/zrepair/internal/sessionlog"
	"github.com/hfyorke/zrepair/internal/telemetry"
	"github.com/hfyorke/zrepair/internal/validator"
	"github.com/hfyorke/zrepair/internal/vocabulary"
)

// State is one node of the retry automaton (spec §4.10).
type State int

const (
	Idle State = iota
	CommandSent
	ErrorDetected
	RetrySent
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case CommandSent:
		return "CommandSent"
	case ErrorDetected:
		return "ErrorDetected"
	case RetrySent:
		return "RetrySent"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Rewriter is the synchronous capability the machine calls into when it
// needs a candidate rewrite: build the prompt, call the LLM, sanitize,
// validate. Implementations wrap C6-C9; see Pipeline below for the
// concrete composition the spec describes.
type Rewriter interface {
	Rewrite(ctx context.Context, gameOutput, originalCommand string, failureType detector.FailureType) (rewrite string, ok bool)
}

// Completer is the minimal LLM contract the Pipeline rewriter needs
// (spec §4.7); llmclient.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Pipeline composes C6 (prompt builder) -> C7 (LLM) -> C8 (sanitizer) ->
// C9 (validator) into the single synchronous Rewriter call the state
// machine needs.
type Pipeline struct {
	LLM   Completer
	Vocab *vocabulary.Vocabulary
	// Log, if set, records every validator rejection (spec §2.2:
	// sessionlog covers "LLM calls, validation rejects, and state-machine
	// transitions"). LLM call logging is the Completer's own concern
	// (llmclient.WithSessionLog).
	Log *sessionlog.Logger
}

func (p *Pipeline) Rewrite(ctx context.Context, gameOutput, originalCommand string, failureType detector.FailureType) (string, bool) {
	system, user := promptbuilder.Build(gameOutput, originalCommand, failureType, p.Vocab)
	if user == "" {
		return "", false
	}

	raw, err := p.LLM.Complete(ctx, system, user)
	if err != nil {
		return "", false
	}

	cleaned, ok := sanitizer.Sanitize(raw)
	if !ok {
		if p.Log != nil {
			p.Log.ValidationReject(raw, "sanitizer rejected the response (sentinel or empty after cleanup)")
		}
		return "", false
	}

	accepted, ok, reason := validator.Validate(cleaned, p.Vocab)
	if !ok {
		if p.Log != nil {
			p.Log.ValidationReject(cleaned, reason)
		}
		return "", false
	}

	return accepted, true
}

// Machine drives one session's sequence of (command, output) pairs
// through the automaton. It is not safe for concurrent use from more
// than one goroutine at a time (spec §5: the state machine runs on a
// single producer thread).
type Machine struct {
	rewriter  Rewriter
	telemetry *telemetry.Logger

	state            State
	originalCommand  string
	originalFailure  *detector.Info
	originalOutput   string
	attemptedRewrite string
}

// New builds a Machine in the Idle state.
func New(rewriter Rewriter, logger *telemetry.Logger) *Machine {
	return &Machine{rewriter: rewriter, telemetry: logger, state: Idle}
}

// State returns the machine's current state.
func (m *Machine) State() State { return m.state }

// RetryAvailable reports whether a rewrite may still be attempted for
// the in-flight command (spec §4.10 invariant: true only in Idle and
// CommandSent).
func (m *Machine) RetryAvailable() bool {
	return m.state == Idle || m.state == CommandSent
}

// Outcome is what the caller should do after feeding one piece of
// interpreter output to the machine.
type Outcome struct {
	// ShowToUser is the text the caller should display, or "" if nothing
	// should be shown yet (a retry is in flight).
	ShowToUser string
	// ResendCommand is non-empty when the caller must send this text to
	// the interpreter and wait for its output before calling Advance
	// again.
	ResendCommand string
	// Done reports whether this user utterance has reached a terminal
	// state (Idle) and the machine is ready for the next command.
	Done bool
}

// SubmitCommand transitions Idle -> CommandSent for a freshly entered
// user command. Calling it while not Idle resets state, matching the
// spec's "resets to Idle on new user command" lifecycle rule.
func (m *Machine) SubmitCommand(cmd string) {
	m.state = CommandSent
	m.originalCommand = cmd
	m.originalFailure = nil
	m.originalOutput = ""
	m.attemptedRewrite = ""
}

// Advance classifies one piece of interpreter output and drives the
// automaton forward by exactly one transition, per spec §4.10's table.
func (m *Machine) Advance(ctx context.Context, output string) Outcome {
	switch m.state {
	case CommandSent:
		return m.advanceFromCommandSent(ctx, output)
	case RetrySent:
		return m.advanceFromRetrySent(output)
	default:
		// Idle, ErrorDetected, Failed: Advance should only be called
		// after SubmitCommand or while RetrySent; anything else is a
		// caller error, treated as a no-op that discloses the output
		// verbatim rather than panicking.
		return Outcome{ShowToUser: output, Done: true}
	}
}

func (m *Machine) advanceFromCommandSent(ctx context.Context, output string) Outcome {
	info := detector.Detect(output)

	if info == nil || !info.IsRewritable {
		m.state = Idle
		return Outcome{ShowToUser: output, Done: true}
	}

	m.state = ErrorDetected
	m.originalFailure = info
	m.originalOutput = output

	rewrite, ok := m.rewriter.Rewrite(ctx, output, m.originalCommand, info.Type)

	if m.telemetry != nil {
		m.telemetry.LogRewriteAttempt(telemetry.RewriteAttempt{
			OriginalCommand: m.originalCommand,
			Rewrite:         rewrite,
			RewriteExists:   ok,
			FailureType:     info.Type.String(),
			IsRewritable:    info.IsRewritable,
			GameOutput:      output,
		})
	}

	if !ok {
		m.state = Idle
		return Outcome{ShowToUser: output, Done: true}
	}

	m.state = RetrySent
	m.attemptedRewrite = rewrite
	return Outcome{ResendCommand: rewrite}
}

func (m *Machine) advanceFromRetrySent(retryOutput string) Outcome {
	retryInfo := detector.Detect(retryOutput)
	// Any classified failure on the retry — rewritable or not — falls to
	// Failed; only a clean (nil) classification counts as success. Do not
	// collapse this into "show whichever output is non-empty" (spec §9):
	// a non-rewritable failure here (GameRefusal, Ambiguity, ...) still
	// must disclose the ORIGINAL command's failure, not the retry's.
	success := retryInfo == nil

	if m.telemetry != nil {
		m.telemetry.LogRetryResult(telemetry.RetryResult{
			OriginalCommand: m.originalCommand,
			Rewrite:         m.attemptedRewrite,
			Success:         success,
			RetryOutput:     retryOutput,
		})
	}

	if success {
		m.state = Idle
		return Outcome{ShowToUser: retryOutput, Done: true}
	}

	// RetrySent -> Failed -> Idle: disclose the ORIGINAL failure, never
	// the retry's (spec §3 Disclosure invariant, §9 design note).
	m.state = Failed
	original := m.originalOutput
	m.state = Idle
	return Outcome{ShowToUser: original, Done: true}
}
