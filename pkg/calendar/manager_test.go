package calendar

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCreateEvent_MissingCredentialsFailsExplicitly(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "credentials.json"), filepath.Join(dir, "token.json"))

	_, err := m.CreateEvent(context.Background(), "Take Medicines", "", time.Now(), 30)

	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestAuthURL_MissingCredentialsFailsExplicitly(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "credentials.json"), filepath.Join(dir, "token.json"))

	_, err := m.AuthURL("state")

	assert.ErrorIs(t, err, ErrCredentialsMissing)
}

func TestTokenCache_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "credentials.json"), filepath.Join(dir, "token.json"))

	assert.False(t, m.Authorized())

	tok := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Now().Add(time.Hour).UTC(),
	}
	require.NoError(t, m.saveToken(tok))

	assert.True(t, m.Authorized())

	loaded, err := m.loadToken()
	require.NoError(t, err)
	assert.Equal(t, "access", loaded.AccessToken)
	assert.Equal(t, "refresh", loaded.RefreshToken)
}
