package csrf

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	signer := NewSigner("secret", time.Minute)

	pair, err := signer.Issue("listing-submit")
	require.NoError(t, err)
	assert.Equal(t, "_token_listing-submit", pair.Field)

	assert.NoError(t, signer.Verify("listing-submit", pair.Token))
}

func TestVerifyRejectsWrongForm(t *testing.T) {
	signer := NewSigner("secret", time.Minute)

	pair, err := signer.Issue("listing-submit")
	require.NoError(t, err)

	assert.Error(t, signer.Verify("listing-admin", pair.Token))
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	signer := NewSigner("secret", time.Minute)

	pair, err := signer.Issue("listing-submit")
	require.NoError(t, err)

	parts := strings.Split(pair.Token, ".")
	require.Len(t, parts, 3)
	parts[2] = strings.Repeat("0", len(parts[2]))
	assert.Error(t, signer.Verify("listing-submit", strings.Join(parts, ".")))

	assert.Error(t, signer.Verify("listing-submit", "not-a-token"))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := NewSigner("secret", time.Nanosecond)

	pair, err := signer.Issue("listing-submit")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	assert.Error(t, signer.Verify("listing-submit", pair.Token))
}

func TestVerifyRejectsDifferentSecret(t *testing.T) {
	pair, err := NewSigner("secret-a", time.Minute).Issue("listing-submit")
	require.NoError(t, err)

	assert.Error(t, NewSigner("secret-b", time.Minute).Verify("listing-submit", pair.Token))
}

func TestIssueRequiresFormID(t *testing.T) {
	signer := NewSigner("secret", time.Minute)

	_, err := signer.Issue("")
	assert.Error(t, err)
}
