package llmclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport returns one canned response per call, in order,
// letting tests drive the continuation loop deterministically.
type scriptedTransport struct {
	responses [][]Delta
	errs      []error
	calls     int
}

func (s *scriptedTransport) Complete(_ context.Context, _ []Message) ([]Delta, error) {
	idx := s.calls
	s.calls++
	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}
	if idx >= len(s.responses) {
		return nil, errors.New("scriptedTransport: no more scripted responses")
	}
	return s.responses[idx], nil
}

func TestComplete_SingleTurn(t *testing.T) {
	transport := &scriptedTransport{
		responses: [][]Delta{
			{{Content: "hello "}, {Content: "world", FinishReason: "stop"}},
		},
	}
	client := New(transport, 8)
	resp, err := client.Complete(context.Background(), "", "say hi")
	require.NoError(t, err)
	assert.Equal(t, "hello world", resp.Content)
	assert.Equal(t, 0, resp.Continuations)
	assert.False(t, resp.TruncatedAtLimit)
}

func TestComplete_ContinuesOnLengthFinish(t *testing.T) {
	transport := &scriptedTransport{
		responses: [][]Delta{
			{{Content: "part one", FinishReason: "length"}},
			{{Content: " part two", FinishReason: "stop"}},
		},
	}
	client := New(transport, 8)
	resp, err := client.Complete(context.Background(), "", "write something long")
	require.NoError(t, err)
	assert.Equal(t, "part one part two", resp.Content)
	assert.Equal(t, 1, resp.Continuations)
	assert.True(t, resp.TruncatedAtLimit)
}

func TestComplete_StopsAtContinuationCeiling(t *testing.T) {
	transport := &scriptedTransport{
		responses: [][]Delta{
			{{Content: "a", FinishReason: "length"}},
			{{Content: "b", FinishReason: "length"}},
			{{Content: "c", FinishReason: "length"}},
		},
	}
	client := New(transport, 2)
	resp, err := client.Complete(context.Background(), "", "keep going")
	require.NoError(t, err)
	assert.Equal(t, "abc", resp.Content)
	assert.Equal(t, 2, resp.Continuations)
	assert.True(t, resp.TruncatedAtLimit)
}

func TestComplete_RejectsEmptyPrompt(t *testing.T) {
	client := New(&scriptedTransport{}, 8)
	_, err := client.Complete(context.Background(), "", "   ")
	require.Error(t, err)
}

func TestExtractCodeFence_FirstBlockOnly(t *testing.T) {
	content := "here is the file:\n```go\npackage main\n```\nand some trailing prose\n```go\nignored\n```"
	got := ExtractCodeFence(content)
	assert.Equal(t, "package main", got)
}

func TestExtractCodeFence_NoFenceReturnsTrimmed(t *testing.T) {
	got := ExtractCodeFence("  plain text  \n")
	assert.Equal(t, "plain text", got)
}
