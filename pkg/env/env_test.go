package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	t.Setenv("TIX_ENV_TEST", "value")
	assert.Equal(t, "value", Get("TIX_ENV_TEST", "fallback"))

	t.Setenv("TIX_ENV_TEST", "   ")
	assert.Equal(t, "fallback", Get("TIX_ENV_TEST", "fallback"))
}

func TestFirst(t *testing.T) {
	t.Setenv("TIX_ENV_A", "")
	t.Setenv("TIX_ENV_B", "web.2")
	assert.Equal(t, "web.2", First("TIX_ENV_A", "TIX_ENV_B"))
	assert.Empty(t, First("TIX_ENV_A"))
}
