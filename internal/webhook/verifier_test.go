package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClareAI/astra-meeting-service/internal/domain"
)

func TestVerify(t *testing.T) {
	v := NewVerifier("test-secret", "test-api-key")
	body := []byte(`{"type":"call.session_started"}`)

	t.Run("valid signature and API key", func(t *testing.T) {
		err := v.Verify(body, v.Sign(body), "test-api-key")
		assert.NoError(t, err)
	})

	t.Run("signature with sha256 prefix", func(t *testing.T) {
		err := v.Verify(body, "sha256="+v.Sign(body), "test-api-key")
		assert.NoError(t, err)
	})

	t.Run("missing signature", func(t *testing.T) {
		err := v.Verify(body, "", "test-api-key")
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("missing API key", func(t *testing.T) {
		err := v.Verify(body, v.Sign(body), "")
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("wrong API key", func(t *testing.T) {
		err := v.Verify(body, v.Sign(body), "other-key")
		require.Error(t, err)
		assert.True(t, domain.IsAuth(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewVerifier("other-secret", "test-api-key")
		err := v.Verify(body, other.Sign(body), "test-api-key")
		require.Error(t, err)
		assert.True(t, domain.IsAuth(err))
	})

	t.Run("tampered body", func(t *testing.T) {
		signature := v.Sign(body)
		err := v.Verify([]byte(`{"type":"call.session_ended"}`), signature, "test-api-key")
		require.Error(t, err)
		assert.True(t, domain.IsAuth(err))
	})

	t.Run("garbage signature", func(t *testing.T) {
		err := v.Verify(body, "not-a-hex-digest", "test-api-key")
		require.Error(t, err)
		assert.True(t, domain.IsAuth(err))
	})
}

func TestSignDeterministic(t *testing.T) {
	v := NewVerifier("s", "k")
	body := []byte("payload")
	assert.Equal(t, v.Sign(body), v.Sign(body))
	assert.NotEqual(t, v.Sign(body), v.Sign([]byte("other")))
}
