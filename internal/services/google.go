package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/jobtrail/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
)

// GoogleTokenExchanger implements [TokenExchanger] against the Google OAuth token endpoint.
type GoogleTokenExchanger struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// NewGoogleTokenExchanger creates an exchanger for the configured OAuth client.
//
// A nil client uses [http.DefaultClient].
func NewGoogleTokenExchanger(cfg shared.GoogleConfig, client *http.Client) (*GoogleTokenExchanger, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("%w: missing google client_id", shared.ErrMissingCredentials)
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing google client_secret", shared.ErrMissingCredentials)
	}

	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     endpoint,
	}

	if client == nil {
		client = http.DefaultClient
	}
	return &GoogleTokenExchanger{config: config, httpClient: client}, nil
}

// Exchange performs a refresh_token grant and returns the new access token.
func (e *GoogleTokenExchanger) Exchange(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, shared.ErrNoRefreshToken
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	token, err := e.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, exchangeError(err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access_token", shared.ErrProvider)
	}
	return token, nil
}

// exchangeError maps token endpoint failures onto the shared error kinds.
func exchangeError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("%w: token exchange failed: %v", shared.ErrProvider, err)
	}

	status := 0
	if re.Response != nil {
		status = re.Response.StatusCode
	}
	detail := re.ErrorCode
	if re.ErrorDescription != "" {
		detail += ": " + re.ErrorDescription
	}

	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, strings.TrimSpace(detail))
	default:
		return fmt.Errorf("%w: token endpoint returned status %d", shared.ErrProvider, status)
	}
}
