// package services defines the external provider clients used by a sync run
//
// Google OAuth token endpoint, Gmail API
package services

import (
	"context"

	"github.com/desertthunder/jobtrail/internal/models"
	"golang.org/x/oauth2"
)

// TokenExchanger trades a long-lived refresh credential for a short-lived access token.
type TokenExchanger interface {
	// Exchange returns a fresh access token. Rejected credentials are reported as
	// [shared.ErrAuthFailed], other provider failures as [shared.ErrProvider].
	Exchange(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// MessageFetcher lists and fetches mailbox message metadata.
type MessageFetcher interface {
	// FetchCandidates returns header metadata for the recent messages matching the configured query.
	// Messages whose detail fetch fails are left out.
	FetchCandidates(ctx context.Context, accessToken string) ([]models.Message, error)

	// FetchMessage returns header metadata for a single message.
	FetchMessage(ctx context.Context, accessToken, id string) (*models.Message, error)
}
