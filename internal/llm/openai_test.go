package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClientDefaults(t *testing.T) {
	_, err := NewOpenAIClient("", "")
	assert.Error(t, err)

	c, err := NewOpenAIClient("key", "")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", c.model)
	assert.Equal(t, "openai", c.Name())

	c, err = NewOpenAIClient("key", "gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", c.model)
}
