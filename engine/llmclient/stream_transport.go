package llmclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/weaveflow/weaveflow/engine/core"
)

// StreamTransport talks directly to an OpenAI-compatible chat-completions
// endpoint with stream:true, consuming the server-sent-events response
// body line by line (spec §4.2, §6: OPENAI_API_BASE/OPENAI_MODEL or the
// *_CODER variant). Each SSE "data:" line carries one chunk shaped like
// {"choices":[{"delta":{"content":"...","reasoning_content":"..."},
// "finish_reason":null}]}; the stream ends at "data: [DONE]".
type StreamTransport struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

func NewStreamTransport(httpClient *http.Client, baseURL, apiKey, model string) *StreamTransport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &StreamTransport{httpClient: httpClient, baseURL: baseURL, apiKey: apiKey, model: model}
}

type streamRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

func (t *StreamTransport) Complete(ctx context.Context, messages []Message) ([]Delta, error) {
	body, err := json.Marshal(streamRequest{Model: t.model, Messages: messages, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to encode stream request: %w", err)
	}

	endpoint := strings.TrimSuffix(t.baseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("failed to build stream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stream endpoint returned status %d", resp.StatusCode)
	}

	return parseSSE(ctx, resp)
}

func parseSSE(ctx context.Context, resp *http.Response) ([]Delta, error) {
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var deltas []Delta
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return deltas, ctx.Err()
		default:
		}

		line := scanner.Text()
		data, ok := strings.CutPrefix(line, "data: ")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		delta := Delta{Content: choice.Delta.Content, ReasoningContent: choice.Delta.ReasoningContent}
		if choice.FinishReason != nil {
			delta.FinishReason = *choice.FinishReason
		}
		deltas = append(deltas, delta)
	}
	if err := scanner.Err(); err != nil {
		return deltas, core.WrapError(core.ErrLLM, "stream read failed", err)
	}
	return deltas, nil
}
