package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/wesm/rosterview/internal/sequence"
	"github.com/wesm/rosterview/internal/testutil"
)

func TestRunSequence_Completes(t *testing.T) {
	var buf bytes.Buffer
	seq := sequence.New([]float64{1, 2.5}, sequence.MinDelay)

	if cancelled := runSequence(context.Background(), &buf, seq); cancelled {
		t.Fatal("runSequence reported cancellation")
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	testutil.AssertStrings(t, lines,
		"1\t[1/2  50%]",
		"2.5\t[2/2 100%]",
		sequence.CompletedMarker,
	)
}

func TestRunSequence_Cancelled(t *testing.T) {
	var buf bytes.Buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := sequence.New([]float64{1, 2, 3}, sequence.MinDelay)
	if cancelled := runSequence(ctx, &buf, seq); !cancelled {
		t.Fatal("runSequence did not report cancellation")
	}
	if got := strings.TrimSpace(buf.String()); got != sequence.CancelledMarker {
		t.Errorf("output = %q, want %q", got, sequence.CancelledMarker)
	}
}
