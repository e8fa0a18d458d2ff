package apiclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEnvelope(t *testing.T) {
	type item struct {
		ID string `json:"id"`
	}

	t.Run("result", func(t *testing.T) {
		var out item
		require.NoError(t, DecodeEnvelope([]byte(`{"result":{"id":"a"}}`), &out))
		assert.Equal(t, "a", out.ID)
	})

	t.Run("results", func(t *testing.T) {
		var out []item
		require.NoError(t, DecodeEnvelope([]byte(`{"results":[{"id":"a"},{"id":"b"}]}`), &out))
		assert.Len(t, out, 2)
	})

	tests := map[string]string{
		"bare object": `{"id":"a"}`,
		"null result": `{"result":null}`,
		"array body":  `[{"id":"a"}]`,
		"not json":    `<html>`,
		"wrong shape": `{"result":"text"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			var out item
			assert.ErrorIs(t, DecodeEnvelope([]byte(body), &out), ErrMalformedResponse)
		})
	}

	t.Run("nil out only checks shape", func(t *testing.T) {
		assert.NoError(t, DecodeEnvelope([]byte(`{"result":{}}`), nil))
	})
}
