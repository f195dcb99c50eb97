package services

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/spotify"
	"google.golang.org/api/youtube/v3"

	"mixmate/internal/config"
	"mixmate/internal/models"
)

// Scopes needed to create and fill playlists on the user's behalf
var exportScopes = map[models.Source][]string{
	models.SourceSpotify: {"playlist-modify-private", "playlist-modify-public"},
	models.SourceYouTube: {youtube.YoutubeScope},
}

// OAuthExchanger trades an authorization code for a user access token. The
// token is handed back to the caller and never stored here.
type OAuthExchanger struct {
	configs map[models.Source]*oauth2.Config
}

// NewOAuthExchanger builds an oauth2 config for every platform with a user
// consent flow and client credentials
func NewOAuthExchanger(cfg *config.Config) *OAuthExchanger {
	e := &OAuthExchanger{configs: make(map[models.Source]*oauth2.Config)}

	if cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "" {
		e.configs[models.SourceSpotify] = &oauth2.Config{
			ClientID:     cfg.SpotifyClientID,
			ClientSecret: cfg.SpotifyClientSecret,
			Endpoint:     spotify.Endpoint,
			Scopes:       exportScopes[models.SourceSpotify],
		}
	}
	if cfg.YouTubeClientID != "" && cfg.YouTubeClientSecret != "" {
		e.configs[models.SourceYouTube] = &oauth2.Config{
			ClientID:     cfg.YouTubeClientID,
			ClientSecret: cfg.YouTubeClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       exportScopes[models.SourceYouTube],
		}
	}
	return e
}

// WithEndpoint overrides the token endpoint of a platform
func (e *OAuthExchanger) WithEndpoint(platform models.Source, endpoint oauth2.Endpoint) *OAuthExchanger {
	if c, ok := e.configs[platform]; ok {
		c.Endpoint = endpoint
	}
	return e
}

// AuthCodeURL returns the consent page link for a platform
func (e *OAuthExchanger) AuthCodeURL(platform models.Source, state, redirectURL string) (string, error) {
	c, err := e.config(platform, redirectURL)
	if err != nil {
		return "", err
	}
	return c.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// Exchange trades a code for a token
func (e *OAuthExchanger) Exchange(ctx context.Context, platform models.Source, code, redirectURL string) (*oauth2.Token, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}
	c, err := e.config(platform, redirectURL)
	if err != nil {
		return nil, err
	}

	token, err := c.Exchange(ctx, code)
	if err != nil {
		return nil, &PlatformError{Platform: string(platform), Operation: "token_exchange", Message: "code exchange failed", Err: err}
	}
	return token, nil
}

// config returns a copy carrying the redirect for this request
func (e *OAuthExchanger) config(platform models.Source, redirectURL string) (*oauth2.Config, error) {
	base, ok := e.configs[platform]
	if !ok {
		return nil, fmt.Errorf("%w: no OAuth client configured for %s", models.ErrUnknownPlatform, platform)
	}
	c := *base
	c.RedirectURL = redirectURL
	return &c, nil
}
