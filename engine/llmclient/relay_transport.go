package llmclient

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/weaveflow/weaveflow/engine/core"
)

// RelayTransport talks to the chat-relay endpoint (spec §4.2, §6:
// CHAT_API_URL): a single POST carrying the content of the last message
// and a session id (earlier messages are not sent), answered with the
// full reply in one response body — no
// streaming, so Complete returns exactly one Delta with finish_reason
// "stop".
type RelayTransport struct {
	client    *resty.Client
	url       string
	sessionID string
}

type relayRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

type relayResponse struct {
	Reply string `json:"reply"`
}

// NewRelayTransport builds a transport bound to a chat-relay endpoint.
// sessionID is forwarded on every call, letting the relay maintain its
// own server-side conversation state across calls.
func NewRelayTransport(client *resty.Client, url, sessionID string) *RelayTransport {
	return &RelayTransport{client: client, url: url, sessionID: sessionID}
}

func (t *RelayTransport) Complete(ctx context.Context, messages []Message) ([]Delta, error) {
	if len(messages) == 0 {
		return nil, core.NewError(core.ErrInputMissing, "no messages to send")
	}
	last := messages[len(messages)-1]

	var out relayResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(relayRequest{Message: last.Content, SessionID: t.sessionID}).
		SetResult(&out).
		Post(t.url)
	if err != nil {
		return nil, fmt.Errorf("chat relay request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("chat relay returned status %d: %s", resp.StatusCode(), resp.String())
	}
	return []Delta{{Content: out.Reply, FinishReason: "stop"}}, nil
}
