package ierrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexError_Unwrap_PreservesCause(t *testing.T) {
	cause := errors.New("boom")
	ie := New(CodeFetchFailed, "fetch failed", cause)

	require.NotNil(t, ie)
	assert.Equal(t, cause, errors.Unwrap(ie))
	assert.True(t, errors.Is(ie, cause))
}

func TestIndexError_Error_FormatsCodeAndMessage(t *testing.T) {
	ie := New(CodeProjectNotFound, "project foo not found", nil)
	assert.Equal(t, "[ProjectNotFound] project foo not found", ie.Error())
}

func TestIndexError_Is_MatchesByCode(t *testing.T) {
	a := New(CodeFetchTimeout, "a", nil)
	b := New(CodeFetchTimeout, "b", nil)
	c := New(CodeFetchFailed, "c", nil)

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestSeverityFromCode_FatalOnes(t *testing.T) {
	fatal := []string{CodeDimensionMismatch, CodeMissingAPIKey, CodeCheckpointWriteFailed}
	for _, code := range fatal {
		ie := New(code, "x", nil)
		assert.True(t, IsFatal(ie), code)
	}
}

func TestRecoverableFromCode_TimeoutsAlwaysRecoverable(t *testing.T) {
	ie := New(CodeFetchTimeout, "slow", nil)
	assert.True(t, IsRetryable(ie))

	ie2 := New(CodeFetchFailed, "404", nil)
	assert.False(t, IsRetryable(ie2))

	// 408/429 are recoverable exceptions to the 4xx rule (§7).
	ie3 := New(CodeFetchFailed, "429", nil).WithRetryable(true)
	assert.True(t, IsRetryable(ie3))
}

func TestWithDetailAndSuggestion_Chain(t *testing.T) {
	ie := New(CodeInvalidInput, "bad slug", nil).
		WithDetail("field", "project_id").
		WithSuggestion("use lowercase alphanumerics and hyphens")

	assert.Equal(t, "project_id", ie.Details["field"])
	assert.Equal(t, "use lowercase alphanumerics and hyphens", ie.Suggestion)
}

func TestCode_ExtractsStableCode(t *testing.T) {
	assert.Equal(t, CodeNoSource, Code(New(CodeNoSource, "x", nil)))
	assert.Equal(t, "", Code(errors.New("plain")))
}
