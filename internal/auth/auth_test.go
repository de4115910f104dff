package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := New("test-secret")

	token, err := issuer.Issue("cove", "anne")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	assert.NoError(t, issuer.Verify(token, "cove", "anne"))
}

func TestVerifyRejectsMismatchedClaims(t *testing.T) {
	issuer := New("test-secret")

	token, err := issuer.Issue("cove", "anne")
	require.NoError(t, err)

	assert.ErrorIs(t, issuer.Verify(token, "cove", "mary"), ErrInvalidToken)
	assert.ErrorIs(t, issuer.Verify(token, "bay", "anne"), ErrInvalidToken)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	token, err := New("secret-a").Issue("cove", "anne")
	require.NoError(t, err)

	assert.ErrorIs(t, New("secret-b").Verify(token, "cove", "anne"), ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	assert.ErrorIs(t, New("secret").Verify("not-a-token", "cove", "anne"), ErrInvalidToken)
}
