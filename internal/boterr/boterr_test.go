package boterr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	t.Parallel()

	e := Newf(NotFound, "symbol %q is not known", "ZZZZ")
	assert.Equal(t, `not-found: symbol "ZZZZ" is not known`, e.Error())
}

func TestErrorsAsRoundTrip(t *testing.T) {
	t.Parallel()

	var wrapped error = New(RateLimited, "slow down")
	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, RateLimited, e.Kind)
}

func TestFormatIsAlwaysPrivate(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{InvalidInput, RateLimited, NotFound, UpstreamFailure, PartialFailure, Unknown} {
		reply := Format(New(kind, "message"))
		assert.True(t, reply.IsPrivate, "kind %s", kind)
		assert.Contains(t, reply.Text, "message")
	}
}

func TestFormatIncludesSuggestions(t *testing.T) {
	t.Parallel()

	e := New(NotFound, `Could not find "APPL".`).WithSuggestions([]string{"AAPL", "AMPL"})
	reply := Format(e)
	assert.Contains(t, reply.Text, "AAPL")
	assert.Contains(t, reply.Text, "Did you mean")
}

func TestFormatNeverLeaksMeta(t *testing.T) {
	t.Parallel()

	e := New(UpstreamFailure, "Data provider is unavailable.").
		WithMeta("provider_body", `{"code":500,"message":"internal secret detail"}`)
	reply := Format(e)
	assert.NotContains(t, reply.Text, "internal secret detail")
	assert.NotContains(t, reply.Text, "provider_body")
}
