package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortscript-api/internal/application/script/library"
	"shortscript-api/internal/application/script/validate"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBudgetCmd(t *testing.T) {
	out, err := run(t, "budget")
	require.NoError(t, err)
	assert.Contains(t, out, "DURATION")
	assert.Contains(t, out, "90s")
	assert.Contains(t, out, "2.2 words/second")
}

func TestValidateCmd(t *testing.T) {
	out, err := run(t, "validate", "--idea", "  how to brew pour-over coffee at home  ", "--duration", "30", "--type", "educational", "--tone", "casual")
	require.NoError(t, err)

	var res validate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.IsValid)
	require.NotNil(t, res.Sanitized)
	assert.Equal(t, "how to brew pour-over coffee at home", res.Sanitized.Idea)
}

func TestValidateCmd_Invalid(t *testing.T) {
	out, err := run(t, "validate", "--idea", "short", "--duration", "25")
	require.Error(t, err)

	var res validate.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.False(t, res.IsValid)
	assert.NotEmpty(t, res.Errors)
}

func TestExamplesCmd_Limit(t *testing.T) {
	out, err := run(t, "examples", "--tone", "casual", "--limit", "2")
	require.NoError(t, err)

	var examples []library.Example
	require.NoError(t, json.Unmarshal([]byte(out), &examples))
	assert.LessOrEqual(t, len(examples), 2)
	for _, ex := range examples {
		assert.Contains(t, ex.Tones, "casual")
	}
}
