package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// TokenPair is the hidden-field name/value pair embedded in rendered forms.
type TokenPair struct {
	Field string `json:"field"`
	Token string `json:"token"`
}

// Signer creates and validates anti-forgery tokens for form submissions.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner constructs a signer with the provided secret and TTL.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Signer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue returns a token pair scoped to the given form identifier.
func (s *Signer) Issue(formID string) (TokenPair, error) {
	if formID == "" {
		return TokenPair{}, fmt.Errorf("formID required")
	}
	if len(s.secret) == 0 {
		return TokenPair{}, fmt.Errorf("signing secret missing")
	}
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return TokenPair{}, fmt.Errorf("generate nonce: %w", err)
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedNonce := base64.RawURLEncoding.EncodeToString(nonce)
	payload := fmt.Sprintf("%s|%d|%s", formID, expiresAt.Unix(), encodedNonce)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	signature := hex.EncodeToString(mac.Sum(nil))
	token := strings.Join([]string{fmt.Sprintf("%d", expiresAt.Unix()), encodedNonce, signature}, ".")
	return TokenPair{Field: "_token_" + formID, Token: token}, nil
}

// Verify checks a submitted token against the form identifier it was issued for.
func (s *Signer) Verify(formID, token string) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return fmt.Errorf("invalid token format")
	}
	ts := parts[0]
	encodedNonce := parts[1]
	signature := parts[2]

	expUnix, err := parseUnix(ts)
	if err != nil {
		return err
	}

	payload := fmt.Sprintf("%s|%s|%s", formID, ts, encodedNonce)
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("invalid token signature")
	}
	if time.Now().After(time.Unix(expUnix, 0)) {
		return fmt.Errorf("token expired")
	}
	return nil
}

func parseUnix(raw string) (int64, error) {
	var ts int64
	_, err := fmt.Sscanf(raw, "%d", &ts)
	if err != nil {
		return 0, fmt.Errorf("invalid timestamp")
	}
	return ts, nil
}
