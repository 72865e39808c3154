// Command zrepair-demo is a manual smoke-test harness: it loads a story
// file's dictionary, wires a stub (or real) LLM backend through the
// retry pipeline, and drives a tiny scripted fake interpreter so a
// developer can watch the single-retry invariant play out end to end.
// It is not the product's launcher; CLI wiring for a real session host
// lives outside this module.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hfyorke/zrepair/internal/config"
	"github.com/hfyorke/zrepair/internal/dictionary"
	"github.com/hfyorke/zrepair/internal/llmclient"
	"github.com/hfyorke/zrepair/internal/retrymachine"
	"github.com/hfyorke/zrepair/internal/session"
	"github.com/hfyorke/zrepair/internal/sessionlog"
	"github.com/hfyorke/zrepair/internal/storyreader"
	"github.com/hfyorke/zrepair/internal/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		storyPath string
		gameName  string
		provider  string
		apiKey    string
		useStub   bool
		logDir    string
	)

	root := &cobra.Command{
		Use:   "zrepair-demo",
		Short: "Manual smoke-test harness for the parser repair pipeline",
		Long: `zrepair-demo loads a Z-machine story's dictionary, wires a stub or
real LLM backend through the retry pipeline, and plays back a scripted
fake interpreter transcript so you can watch a rewrite and its
single-retry invariant unfold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), demoOptions{
				storyPath: storyPath,
				gameName:  gameName,
				provider:  provider,
				apiKey:    apiKey,
				useStub:   useStub,
				logDir:    logDir,
			})
		},
	}

	flags := root.Flags()
	flags.StringVarP(&storyPath, "story", "s", "", "path to a .z3-.z8 story file (required)")
	flags.StringVar(&gameName, "game-name", "demo", "name used for telemetry/session log file naming")
	flags.StringVar(&provider, "provider", "openai-compatible", "LLM provider (openai-compatible, gemini, anthropic, groq, together)")
	flags.StringVar(&apiKey, "api-key", os.Getenv("ZREPAIR_API_KEY"), "LLM API key (defaults to $ZREPAIR_API_KEY)")
	flags.BoolVar(&useStub, "stub", true, "use a deterministic stub backend instead of a real LLM call")
	flags.StringVar(&logDir, "log-dir", ".", "directory for telemetry and session log files")
	root.MarkFlagRequired("story")

	return root
}

type demoOptions struct {
	storyPath string
	gameName  string
	provider  string
	apiKey    string
	useStub   bool
	logDir    string
}

func runDemo(ctx context.Context, opts demoOptions) error {
	storyBytes, err := os.ReadFile(opts.storyPath)
	if err != nil {
		return fmt.Errorf("read story file: %w", err)
	}

	vocab, err := dictionary.Parse(storyreader.New(storyBytes))
	if err != nil {
		return fmt.Errorf("parse dictionary: %w", err)
	}
	fmt.Println(vocab.Summary())

	sessLog, err := sessionlog.New(opts.logDir, opts.gameName)
	if err != nil {
		return fmt.Errorf("open session log: %w", err)
	}

	var llm *llmclient.Client
	if opts.useStub {
		llm = llmclient.NewWithBackend(&llmclient.Stub{Response: "take leaflet"}, 50, 0.3, 5*time.Second, llmclient.WithSessionLog(sessLog))
	} else {
		cfg := config.New(
			config.WithProvider(config.Provider(opts.provider)),
			config.WithAPIKey(opts.apiKey),
		)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid LLM config: %w", err)
		}
		llm = llmclient.New(cfg, llmclient.WithSessionLog(sessLog))
	}

	telemetryLogger := telemetry.New(opts.logDir, opts.gameName)
	defer telemetryLogger.Close()

	rewriter := &retrymachine.Pipeline{LLM: llm, Vocab: vocab, Log: sessLog}
	interp := newScriptedInterpreter([]string{
		"You are standing in an open field.",
		`I don't know the word "grab".`,
		"Taken.",
	})

	program := newTranscriptProgram()
	display := newTeaDisplay(program)

	sess := session.New(interp, rewriter, telemetryLogger, display, session.WithSessionLog(sessLog))

	runCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		sess.Submit("look")
		time.Sleep(300 * time.Millisecond)
		sess.Submit("grab leaflet")
	}()

	programDone := make(chan error, 1)
	go func() {
		_, err := program.Run()
		programDone <- err
	}()

	sessErr := sess.Run(runCtx)
	program.Quit()
	<-programDone

	if sessErr != nil && sessErr != context.DeadlineExceeded {
		return fmt.Errorf("session ended: %w", sessErr)
	}

	return nil
}

// scriptedInterpreter plays back a fixed sequence of output lines, one
// line per command written to it, ignoring the commands' text; it stands
// in for the opaque interpreter subprocess.
type scriptedInterpreter struct {
	lines   []string
	pos     int
	buf     strings.Reader
	written chan struct{}
}

func newScriptedInterpreter(lines []string) *scriptedInterpreter {
	return &scriptedInterpreter{lines: lines, written: make(chan struct{}, len(lines))}
}

func (s *scriptedInterpreter) Write(p []byte) (int, error) {
	select {
	case s.written <- struct{}{}:
	default:
	}
	return len(p), nil
}

func (s *scriptedInterpreter) Read(p []byte) (int, error) {
	if s.buf.Len() == 0 {
		if s.pos >= len(s.lines) {
			time.Sleep(time.Hour)
			return 0, nil
		}
		<-s.written
		s.buf = *strings.NewReader(s.lines[s.pos])
		s.pos++
	}
	return s.buf.Read(p)
}
