// Package llm defines the LLM client boundary the runtime consumes. Transport
// implementations live outside this module; the runtime only depends on the
// Complete contract.
package llm

import "context"

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries the messages for one completion call.
type Request struct {
	Messages []Message `json:"messages"`
}

// Response is the model's reply.
type Response struct {
	Content string `json:"content"`
}

// Client turns natural-language prompts into completions.
//
//go:generate mockgen -source=llm.go -destination=mock_client.go -package=llm
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// PromptRequest builds a single-user-message request from a prompt string.
func PromptRequest(prompt string) Request {
	return Request{Messages: []Message{{Role: "user", Content: prompt}}}
}
