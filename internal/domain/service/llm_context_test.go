package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLLMCallContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Unknown, WorkflowFromContext(ctx))
	assert.Equal(t, Unknown, ProviderFromContext(ctx))

	ctx = WithWorkflowProvider(ctx, "script_generate", " openai ")
	ctx = WithLLMCall(ctx, LLMCall{Attempt: 2})

	call := LLMCallFromContext(ctx)
	assert.Equal(t, "script_generate", call.Workflow)
	assert.Equal(t, "openai", call.Provider)
	assert.Equal(t, 2, call.Attempt)
}
