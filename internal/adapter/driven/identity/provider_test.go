package identity

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diillson/energy-usage-dashboard-go/internal/shared/types"
)

const testIssuer = "https://cognito-idp.us-east-2.amazonaws.com/us-east-2_test"

// fakeIDToken monta um JWT não assinado com cabeçalho RS256.
func fakeIDToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	enc := base64.RawURLEncoding
	header, err := json.Marshal(map[string]string{"alg": "RS256", "typ": "JWT", "kid": "test"})
	require.NoError(t, err)
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	return enc.EncodeToString(header) + "." + enc.EncodeToString(payload) + "." + enc.EncodeToString([]byte("signature"))
}

func validClaims() map[string]interface{} {
	return map[string]interface{}{
		"iss":              testIssuer,
		"sub":              "1234-abcd",
		"aud":              "client-1",
		"exp":              time.Now().Add(time.Hour).Unix(),
		"iat":              time.Now().Add(-time.Minute).Unix(),
		"email":            "ana@example.com",
		"cognito:username": "ana",
	}
}

func TestStaticProvider_CurrentIdentity(t *testing.T) {
	raw := fakeIDToken(t, validClaims())
	p := NewStaticProvider(raw, testIssuer, "client-1")

	id, err := p.CurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", id.Email)
	assert.Equal(t, "ana", id.Name)
	assert.Equal(t, "1234-abcd", id.Subject)

	tok, err := p.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, raw, tok.AccessToken)
	assert.Equal(t, "Bearer", tok.Type())
}

func TestStaticProvider_Rejections(t *testing.T) {
	expired := validClaims()
	expired["exp"] = time.Now().Add(-time.Hour).Unix()

	noEmail := validClaims()
	delete(noEmail, "email")

	tests := []struct {
		name     string
		raw      string
		clientID string
	}{
		{name: "empty token", raw: ""},
		{name: "garbage", raw: "not-a-jwt"},
		{name: "expired", raw: fakeIDToken(t, expired)},
		{name: "missing email", raw: fakeIDToken(t, noEmail)},
		{name: "wrong audience", raw: fakeIDToken(t, validClaims()), clientID: "other-client"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewStaticProvider(tt.raw, "", tt.clientID)
			_, err := p.CurrentIdentity(context.Background())
			assert.ErrorIs(t, err, types.ErrNotAuthenticated)
		})
	}
}

func TestOAuth2Provider_RefreshesIDToken(t *testing.T) {
	raw := fakeIDToken(t, validClaims())
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "refresh-1", r.PostForm.Get("refresh_token"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"access_token":"access-1","id_token":%q,"token_type":"Bearer","expires_in":3600}`, raw)
	}))
	defer server.Close()

	p, err := NewProvider(context.Background(), types.IdentityConfig{
		Mode:         ModeOAuth2,
		Issuer:       testIssuer,
		ClientID:     "client-1",
		TokenURL:     server.URL,
		RefreshToken: "refresh-1",
	})
	require.NoError(t, err)

	id, err := p.CurrentIdentity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", id.Email)

	tok, err := p.TokenSource().Token()
	require.NoError(t, err)
	assert.Equal(t, raw, tok.AccessToken)

	// token ainda válido: não deve haver nova troca
	assert.Equal(t, int32(1), calls.Load())
}

func TestOAuth2Provider_MissingIDToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"access-1","token_type":"Bearer","expires_in":3600}`))
	}))
	defer server.Close()

	p, err := NewOAuth2Provider(context.Background(), types.IdentityConfig{TokenURL: server.URL, RefreshToken: "r"})
	require.NoError(t, err)

	_, err = p.CurrentIdentity(context.Background())
	assert.ErrorIs(t, err, types.ErrNotAuthenticated)
}

func TestNewProvider_Validation(t *testing.T) {
	_, err := NewProvider(context.Background(), types.IdentityConfig{Mode: "saml"})
	assert.Error(t, err)

	_, err = NewProvider(context.Background(), types.IdentityConfig{Mode: ModeOAuth2, TokenURL: "http://x"})
	assert.Error(t, err)

	p, err := NewProvider(context.Background(), types.IdentityConfig{})
	require.NoError(t, err)
	assert.IsType(t, &StaticProvider{}, p)
}
