package llm

import "context"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation message. All content is plain text; the
// synthesis pipeline never sends images.
type Message struct {
	Role    Role
	Content string
}

type ChatRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

type ChatResponse struct {
	ID           string
	Content      string
	FinishReason string
	Usage        Usage
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Provider is implemented by each model backend.
type Provider interface {
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// Client binds a Provider to a fixed model and temperature and exposes the
// single-prompt completion call the analysis pipeline uses.
type Client struct {
	Provider    Provider
	Model       string
	Temperature float64
	MaxTokens   int
}

// Complete sends one user prompt and returns the raw completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.Provider.Chat(ctx, &ChatRequest{
		Model:       c.Model,
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   c.MaxTokens,
		Temperature: c.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
