package retrymachine

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hfyorke/zrepair/internal/detector"
	"github.com/hfyorke/zrepair/internal/sessionlog"
	"github.com/hfyorke/zrepair/internal/telemetry"
	"github.com/hfyorke/zrepair/internal/vocabulary"
)

type fakeCompleter struct {
	response string
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	return f.response, nil
}

type fakeRewriter struct {
	rewrite string
	ok      bool
	calls   int
}

func (f *fakeRewriter) Rewrite(ctx context.Context, gameOutput, originalCommand string, failureType detector.FailureType) (string, bool) {
	f.calls++
	return f.rewrite, f.ok
}

func TestSubmitCommandTransitionsToCommandSent(t *testing.T) {
	m := New(&fakeRewriter{}, nil)
	m.SubmitCommand("xyzzy")

	assert.Equal(t, CommandSent, m.State())
	assert.True(t, m.RetryAvailable(), "RetryAvailable() should be true in CommandSent")
}

func TestAdvanceOnSuccessGoesStraightToIdle(t *testing.T) {
	rw := &fakeRewriter{}
	m := New(rw, nil)
	m.SubmitCommand("take leaflet")

	out := m.Advance(context.Background(), "Taken.")

	assert.Equal(t, "Taken.", out.ShowToUser)
	assert.Empty(t, out.ResendCommand)
	assert.True(t, out.Done)
	assert.Equal(t, Idle, m.State())
	assert.Zero(t, rw.calls, "rewriter should not be consulted on success")
}

func TestAdvanceOnFailureWithAcceptedRewriteSendsRetry(t *testing.T) {
	rw := &fakeRewriter{rewrite: "take leaflet", ok: true}
	m := New(rw, nil)
	m.SubmitCommand("grab leaflet")

	out := m.Advance(context.Background(), "I don't know the word \"grab\".")

	require.Equal(t, "take leaflet", out.ResendCommand)
	assert.False(t, out.Done, "Done should be false while a retry is in flight")
	assert.Equal(t, RetrySent, m.State())
	assert.False(t, m.RetryAvailable(), "RetryAvailable() should be false in RetrySent")
}

func TestAdvanceOnFailureWithNoRewriteDisclosesOriginal(t *testing.T) {
	rw := &fakeRewriter{ok: false}
	m := New(rw, nil)
	m.SubmitCommand("grab leaflet")

	out := m.Advance(context.Background(), "I don't know the word \"grab\".")

	assert.Equal(t, "I don't know the word \"grab\".", out.ShowToUser)
	assert.True(t, out.Done)
	assert.Empty(t, out.ResendCommand)
	assert.Equal(t, Idle, m.State())
}

func TestRetrySuccessShowsRetryOutput(t *testing.T) {
	rw := &fakeRewriter{rewrite: "take leaflet", ok: true}
	m := New(rw, nil)
	m.SubmitCommand("grab leaflet")
	m.Advance(context.Background(), "I don't know the word \"grab\".")

	out := m.Advance(context.Background(), "Taken.")

	assert.Equal(t, "Taken.", out.ShowToUser)
	assert.True(t, out.Done)
	assert.Equal(t, Idle, m.State())
}

func TestRetryFailureDisclosesOriginalNotRetryOutput(t *testing.T) {
	rw := &fakeRewriter{rewrite: "take leaflet", ok: true}
	m := New(rw, nil)
	m.SubmitCommand("grab leaflet")
	m.Advance(context.Background(), "I don't know the word \"grab\".")

	out := m.Advance(context.Background(), "That's not a verb I recognise.")

	assert.Equal(t, "I don't know the word \"grab\".", out.ShowToUser,
		"must disclose the ORIGINAL failure, not the retry's")
	assert.True(t, out.Done, "Done should be true after the single retry is exhausted")
	assert.Equal(t, Idle, m.State())
}

// TestRetryOutputRefusalStillDisclosesOriginal guards against
// collapsing "retry output is any failure -> Failed" into "show
// whichever output is non-empty": a retry that itself provokes a
// non-rewritable failure (here a game refusal) must still disclose the
// ORIGINAL command's failure text, not the retry's refusal text.
func TestRetryOutputRefusalStillDisclosesOriginal(t *testing.T) {
	rw := &fakeRewriter{rewrite: "take leaflet", ok: true}
	m := New(rw, nil)
	m.SubmitCommand("grab leaflet")
	m.Advance(context.Background(), "I don't know the word \"grab\".")

	out := m.Advance(context.Background(), "You can't do that.")

	assert.Equal(t, "I don't know the word \"grab\".", out.ShowToUser,
		"a non-rewritable failure on the retry must still disclose the ORIGINAL failure")
	assert.True(t, out.Done)
	assert.Equal(t, Idle, m.State())
}

func TestMachineNeverTakesTwoRewritePathsForSameCommand(t *testing.T) {
	rw := &fakeRewriter{rewrite: "take leaflet", ok: true}
	m := New(rw, nil)
	m.SubmitCommand("grab leaflet")
	m.Advance(context.Background(), "I don't know the word \"grab\".")
	m.Advance(context.Background(), "That's not a verb I recognise.")

	assert.Equal(t, 1, rw.calls, "rewriter called more than once for a single original command")
}

// TestPipelineLogsValidationReject confirms Pipeline threads a rejection
// reason from validator.Validate into sessionlog instead of discarding
// it, the gap the dead-methods review comment called out.
func TestPipelineLogsValidationReject(t *testing.T) {
	var buf bytes.Buffer
	log, err := sessionlog.New("", "demo", sessionlog.WithWriter(&buf))
	require.NoError(t, err)

	vocab := vocabulary.New(3)
	vocab.AddWord("take", vocabulary.Verb)

	p := &Pipeline{
		LLM:   &fakeCompleter{response: "frotz leaflet"},
		Vocab: vocab,
		Log:   log,
	}

	_, ok := p.Rewrite(context.Background(), `I don't know the word "grab".`, "grab leaflet", detector.UnknownVerb)

	assert.False(t, ok)
	out := buf.String()
	assert.Contains(t, out, `"validation reject"`)
	assert.True(t, strings.Contains(out, "verb not in vocabulary"), "session log output = %q, want the validator's rejection reason", out)
}

func TestLogsRewriteAttemptAndRetryResult(t *testing.T) {
	dir := t.TempDir()
	logger := telemetry.New(dir, "zork1")
	rw := &fakeRewriter{rewrite: "take leaflet", ok: true}
	m := New(rw, logger)

	m.SubmitCommand("grab leaflet")
	m.Advance(context.Background(), "I don't know the word \"grab\".")
	require.Equal(t, 1, logger.PendingCount())

	m.Advance(context.Background(), "Taken.")
	assert.Equal(t, 2, logger.PendingCount())
}
