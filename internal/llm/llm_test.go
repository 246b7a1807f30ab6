// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

// scriptedClient returns canned responses, failing the first failures calls.
type scriptedClient struct {
	failures int
	calls    int
	response string
}

func (s *scriptedClient) Complete(ctx context.Context, prompt string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", errors.New("transient failure")
	}
	return s.response, nil
}

func TestRemoveThinkTags(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no tags", "plain answer", "plain answer"},
		{"single block", "<think>hmm\nlet me see</think>the answer", "the answer"},
		{"multiple blocks", "<think>a</think>x<think>b</think>y", "xy"},
		{"unclosed tag left alone", "<think>never closed", "<think>never closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RemoveThinkTags(tt.input); got != tt.want {
				t.Errorf("RemoveThinkTags(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestInvokeWithRetry(t *testing.T) {
	orig := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	defer func() { RetryBaseDelay = orig }()

	c := &scriptedClient{failures: 2, response: "done"}
	got, err := InvokeWithRetry(context.Background(), c, "prompt", time.Second, 3)
	if err != nil {
		t.Fatalf("InvokeWithRetry: %v", err)
	}
	if got != "done" {
		t.Errorf("got %q, want done", got)
	}
	if c.calls != 3 {
		t.Errorf("calls = %d, want 3", c.calls)
	}
}

func TestInvokeWithRetryExhausted(t *testing.T) {
	orig := RetryBaseDelay
	RetryBaseDelay = time.Millisecond
	defer func() { RetryBaseDelay = orig }()

	c := &scriptedClient{failures: 10, response: "unreachable"}
	if _, err := InvokeWithRetry(context.Background(), c, "prompt", time.Second, 1); err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if c.calls != 2 {
		t.Errorf("calls = %d, want 2", c.calls)
	}
}

func TestInvokeWithRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &scriptedClient{failures: 10}
	if _, err := InvokeWithRetry(ctx, c, "prompt", time.Second, 5); err == nil {
		t.Fatal("expected error on cancelled context")
	}
	if c.calls > 1 {
		t.Errorf("calls = %d, want at most 1", c.calls)
	}
}
