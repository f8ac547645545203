package mercadopago

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest(t *testing.T) {
	assert.Equal(t, "id:123;request-id:req-1;ts:1704908010;", Manifest("123", "req-1", "1704908010"))
	assert.Equal(t, "id:abc;ts:1;", Manifest("ABC", "", "1"))
}

func TestVerifySignature(t *testing.T) {
	secret := "webhook-secret"
	sig := Sign(secret, Manifest("987", "req-9", "1700000000"))
	header := "ts=1700000000,v1=" + sig

	require.NoError(t, VerifySignature(secret, header, "req-9", "987"))
	require.NoError(t, VerifySignature(secret, " v1="+sig+" , ts=1700000000", "req-9", "987"))

	assert.ErrorIs(t, VerifySignature(secret, header, "req-9", "988"), ErrSignatureInvalid)
	assert.ErrorIs(t, VerifySignature("other", header, "req-9", "987"), ErrSignatureInvalid)
	assert.ErrorIs(t, VerifySignature(secret, "ts=1700000000", "req-9", "987"), ErrSignatureInvalid)
	assert.ErrorIs(t, VerifySignature(secret, "", "req-9", "987"), ErrSignatureMissing)
}
