package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPromptRequest(t *testing.T) {
	req := PromptRequest("hello")
	require.Len(t, req.Messages, 1)
	require.Equal(t, "user", req.Messages[0].Role)
	require.Equal(t, "hello", req.Messages[0].Content)
}

func TestScripted(t *testing.T) {
	s := NewScripted("first", "second")

	resp, err := s.Complete(context.Background(), PromptRequest("a"))
	require.NoError(t, err)
	require.Equal(t, "first", resp.Content)

	resp, err = s.Complete(context.Background(), PromptRequest("b"))
	require.NoError(t, err)
	require.Equal(t, "second", resp.Content)

	_, err = s.Complete(context.Background(), PromptRequest("c"))
	require.Error(t, err)

	calls := s.Calls()
	require.Len(t, calls, 3)
	require.Equal(t, "a", calls[0].Messages[0].Content)
}
