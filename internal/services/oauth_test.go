package services

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"mixmate/internal/config"
	"mixmate/internal/models"
	"mixmate/internal/testutil"
)

func newTestExchanger(t *testing.T) (*OAuthExchanger, *testutil.MockHTTPServer) {
	t.Helper()
	server := testutil.NewMockHTTPServer()
	t.Cleanup(server.Close)

	e := NewOAuthExchanger(&config.Config{
		SpotifyClientID:     "sp-id",
		SpotifyClientSecret: "sp-secret",
	}).WithEndpoint(models.SourceSpotify, oauth2.Endpoint{
		AuthURL:   server.URL() + "/authorize",
		TokenURL:  server.URL() + "/token",
		AuthStyle: oauth2.AuthStyleInParams,
	})
	return e, server
}

func TestOAuthExchanger_Exchange(t *testing.T) {
	e, server := newTestExchanger(t)

	server.On("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "http://localhost:8080/callback", r.PostForm.Get("redirect_uri"))
		testutil.WriteJSON(w, http.StatusOK, "", map[string]any{
			"access_token":  "user-access",
			"refresh_token": "user-refresh",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	})

	token, err := e.Exchange(context.Background(), models.SourceSpotify, "the-code", "http://localhost:8080/callback")
	require.NoError(t, err)
	assert.Equal(t, "user-access", token.AccessToken)
	assert.Equal(t, "user-refresh", token.RefreshToken)
	assert.False(t, token.Expiry.IsZero())
}

func TestOAuthExchanger_ExchangeErrors(t *testing.T) {
	e, server := newTestExchanger(t)
	server.On("/token", func(w http.ResponseWriter, r *http.Request) {
		testutil.WriteJSON(w, http.StatusBadRequest, "", map[string]any{"error": "invalid_grant"})
	})

	_, err := e.Exchange(context.Background(), models.SourceSpotify, "", "http://x")
	assert.Error(t, err, "empty code")

	_, err = e.Exchange(context.Background(), models.SourceYouTube, "code", "http://x")
	assert.ErrorIs(t, err, models.ErrUnknownPlatform, "youtube has no client configured")

	_, err = e.Exchange(context.Background(), models.SourceSpotify, "bad-code", "http://x")
	var platformErr *PlatformError
	require.ErrorAs(t, err, &platformErr)
	assert.Equal(t, "token_exchange", platformErr.Operation)
}

func TestOAuthExchanger_AuthCodeURL(t *testing.T) {
	e, server := newTestExchanger(t)

	link, err := e.AuthCodeURL(models.SourceSpotify, "state-1", "http://localhost:8080/callback")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, server.URL()+"/authorize", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "sp-id", u.Query().Get("client_id"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
	assert.Equal(t, "http://localhost:8080/callback", u.Query().Get("redirect_uri"))
	assert.Equal(t, "playlist-modify-private playlist-modify-public", u.Query().Get("scope"))

	_, err = e.AuthCodeURL(models.SourceTidal, "s", "r")
	assert.ErrorIs(t, err, models.ErrUnknownPlatform)
}

func TestNewOAuthExchanger_YouTube(t *testing.T) {
	e := NewOAuthExchanger(&config.Config{YouTubeClientID: "yt", YouTubeClientSecret: "secret"})

	link, err := e.AuthCodeURL(models.SourceYouTube, "s", "http://localhost/cb")
	require.NoError(t, err)
	assert.Contains(t, link, "accounts.google.com")
	assert.Contains(t, link, url.QueryEscape("https://www.googleapis.com/auth/youtube"))

	_, err = e.AuthCodeURL(models.SourceSpotify, "s", "r")
	assert.ErrorIs(t, err, models.ErrUnknownPlatform)
}
