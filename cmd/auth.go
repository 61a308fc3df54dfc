package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/jobtrail/internal/models"
	"github.com/desertthunder/jobtrail/internal/repositories"
	"github.com/desertthunder/jobtrail/internal/server"
	"github.com/desertthunder/jobtrail/internal/services"
	"github.com/urfave/cli/v3"
)

// CredentialsSet stores a Google refresh token for the owner, replacing any previous one.
func (r *Runner) CredentialsSet(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(cmd.String("refresh-token"))

	if cmd.Bool("verify") {
		if err := r.verifyToken(ctx, token); err != nil {
			return hint(err)
		}
		r.logger.Info("refresh token verified")
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	credential := &models.Credential{UserID: userID, Provider: models.ProviderGoogle, RefreshToken: token}
	if err := repositories.NewCredentialRepository(db).Save(ctx, credential); err != nil {
		return err
	}

	r.logger.Info("credential stored", "user", userID)
	return r.writePlain("✓ Gmail linked for %s\n", userID)
}

// CredentialsStatus reports whether a refresh token is stored and, with --verify, whether it still exchanges.
func (r *Runner) CredentialsStatus(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	credential, err := repositories.NewCredentialRepository(db).Get(ctx, userID, models.ProviderGoogle)
	if err != nil {
		r.writePlain("%s\n", r.palette.Err("✗ No refresh token stored for "+userID))
		return hint(err)
	}

	r.writePlain("%s\n", r.palette.OK("✓ Refresh token stored for "+userID))
	r.writePlain("Updated: %s\n", credential.UpdatedAt.Format("2006-01-02 15:04:05"))

	if !cmd.Bool("verify") {
		return nil
	}
	if err := r.verifyToken(ctx, credential.RefreshToken); err != nil {
		r.writePlain("%s\n", r.palette.Err("✗ Token exchange failed"))
		return hint(err)
	}
	return r.writePlain("%s\n", r.palette.OK("✓ Token exchange succeeded"))
}

// CredentialsDelete unlinks the owner's mailbox.
func (r *Runner) CredentialsDelete(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	if err := repositories.NewCredentialRepository(db).Delete(ctx, userID, models.ProviderGoogle); err != nil {
		return err
	}
	return r.writePlain("✓ Gmail unlinked for %s\n", userID)
}

func (r *Runner) verifyToken(ctx context.Context, refreshToken string) error {
	exchanger, err := services.NewGoogleTokenExchanger(r.config.Google, r.httpClient)
	if err != nil {
		return err
	}
	_, err = exchanger.Exchange(ctx, refreshToken)
	return err
}

// TokenIssue prints a bearer token for the owner, signed with auth.jwt_secret.
func (r *Runner) TokenIssue(ctx context.Context, cmd *cli.Command) error {
	userID, err := r.owner(cmd)
	if err != nil {
		return err
	}

	token, err := server.IssueToken(r.config.Auth, userID, cmd.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	return r.writePlain("%s\n", token)
}
