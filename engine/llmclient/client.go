// Package llmclient implements the LLM Client (spec §4.2): two transport
// variants (chat-relay and direct-streaming), the continuation loop that
// re-issues a request when the model stops on a length limit, and the
// fenced-code-block extraction every Step Executor calls this client for.
package llmclient

import (
	"context"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/weaveflow/weaveflow/engine/core"
	"github.com/weaveflow/weaveflow/pkg/logger"
)

const backoffBaseDuration = 100 * time.Millisecond

// Message is one turn of a chat-style conversation, OpenAI's shape.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Delta is one incremental SSE chunk from the direct-streaming transport.
type Delta struct {
	Content          string `json:"content,omitempty"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
	FinishReason     string `json:"finish_reason,omitempty"`
}

// Response is the fully-accumulated result of one completion (after the
// continuation loop has run to either a natural stop or the ceiling).
type Response struct {
	Content          string
	ReasoningContent string
	Continuations    int
	TruncatedAtLimit bool
}

// Transport is the seam between the continuation loop and the wire. The
// chat-relay and direct-streaming clients each implement it; this
// package's tests supply a scripted fake so the continuation loop runs
// with no network access, the way the teacher isolates llmadapter.LLMClient
// behind an interface for its orchestrator.
type Transport interface {
	// Complete sends messages and returns the deltas observed, in order,
	// terminating when the stream ends. It must respect ctx cancellation.
	Complete(ctx context.Context, messages []Message) ([]Delta, error)
}

// Client drives one or more Transport calls per request, handling
// retries and the continuation-on-truncation loop per spec §4.2.
type Client struct {
	transport           Transport
	continuationCeiling int
}

const continuationPrompt = "Continue directly from the previous content, ensure seamless continuation, " +
	"correct syntax, no repetition, do not acknowledge — just continue."

// New builds a Client around transport. continuationCeiling bounds how
// many times a single request may be re-issued after a length-truncated
// finish_reason before the client gives up and returns what it has.
func New(transport Transport, continuationCeiling int) *Client {
	if continuationCeiling <= 0 {
		continuationCeiling = 8
	}
	return &Client{transport: transport, continuationCeiling: continuationCeiling}
}

// Complete runs the full request/continuation cycle for a single prompt
// and returns the accumulated response. reasoning_content is accumulated
// but never required by callers (Open Question 1: discarded downstream).
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (*Response, error) {
	if strings.TrimSpace(userPrompt) == "" {
		return nil, core.NewError(core.ErrInputMissing, "prompt is empty")
	}
	messages := buildInitialMessages(systemPrompt, userPrompt)
	resp := &Response{}
	log := logger.FromContext(ctx)

	for {
		deltas, err := c.completeWithRetry(ctx, messages)
		if err != nil {
			return nil, core.WrapError(core.ErrLLM, "completion request failed", err)
		}
		turnContent, turnReasoning, finishReason := accumulate(deltas)
		resp.Content += turnContent
		resp.ReasoningContent += turnReasoning

		if finishReason != "length" {
			return resp, nil
		}
		resp.TruncatedAtLimit = true
		if resp.Continuations >= c.continuationCeiling {
			log.Warn("continuation ceiling reached", "ceiling", c.continuationCeiling)
			return resp, nil
		}
		resp.Continuations++
		log.Debug("continuing truncated completion", "attempt", resp.Continuations)
		messages = append(messages,
			Message{Role: "assistant", Content: turnContent},
			Message{Role: "user", Content: continuationPrompt},
		)
	}
}

func (c *Client) completeWithRetry(ctx context.Context, messages []Message) ([]Delta, error) {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(backoffBaseDuration))
	var deltas []Delta
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var callErr error
		deltas, callErr = c.transport.Complete(ctx, messages)
		if callErr != nil {
			return retry.RetryableError(callErr)
		}
		return nil
	})
	return deltas, err
}

func buildInitialMessages(systemPrompt, userPrompt string) []Message {
	var messages []Message
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, Message{Role: "user", Content: userPrompt})
	return messages
}

func accumulate(deltas []Delta) (content, reasoning, finishReason string) {
	var contentBuf, reasoningBuf strings.Builder
	for _, d := range deltas {
		contentBuf.WriteString(d.Content)
		reasoningBuf.WriteString(d.ReasoningContent)
		if d.FinishReason != "" {
			finishReason = d.FinishReason
		}
	}
	return contentBuf.String(), reasoningBuf.String(), finishReason
}
