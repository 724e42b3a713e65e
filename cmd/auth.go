package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/Carrieukie/spotify-mcp-server/internal/auth"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
	"github.com/Carrieukie/spotify-mcp-server/internal/ui"
)

// AuthLogin runs the browser authorization regardless of stored tokens.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	a, err := r.wire()
	if err != nil {
		return err
	}
	defer a.close()

	r.logger.Info("starting Spotify authorization", "redirect_uri", r.config.Credentials.Spotify.RedirectURI)
	if _, err := a.manager.Authorize(ctx); err != nil {
		return err
	}

	record, _ := a.store.Load()
	r.writePlain("%s\n", ui.Styles.OK("Authorized with Spotify"))
	r.writePlain("%s", ui.Styles.Field("Storage", a.backend))
	if record.Scope != "" {
		r.writePlain("%s", ui.Styles.Field("Scope", record.Scope))
	}
	return nil
}

// authReport is the JSON form of `auth status`.
type authReport struct {
	Backend         string `json:"backend"`
	Stored          bool   `json:"stored"`
	AccessToken     string `json:"access_token,omitempty"`
	HasRefreshToken bool   `json:"has_refresh_token"`
	Scope           string `json:"scope,omitempty"`
	Valid           *bool  `json:"valid,omitempty"`
	Status          int    `json:"status,omitempty"`
	Error           string `json:"error,omitempty"`
}

// AuthStatus prints the stored credentials and probes them once.
//
// Unlike the token manager it never refreshes or starts a browser flow.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	a, err := r.wire()
	if err != nil {
		return err
	}
	defer a.close()

	record, stored := a.store.Load()
	report := authReport{
		Backend:         a.backend,
		Stored:          stored,
		AccessToken:     shared.Redact(record.AccessToken),
		HasRefreshToken: record.HasRefreshToken(),
		Scope:           record.Scope,
	}
	if !stored {
		report.AccessToken = ""
	}

	if stored && record.HasAccessToken() && !cmd.Bool("offline") {
		err := a.prober.Probe(ctx, record.AccessToken)
		valid := err == nil
		report.Valid = &valid
		if err != nil {
			report.Status = auth.StatusOf(err)
			report.Error = err.Error()
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlain("%s", ui.Styles.Header("Spotify authorization"))
	r.writePlain("%s", ui.Styles.Field("Storage", report.Backend))
	if !stored {
		r.writePlain("%s\n", ui.Styles.Err("No tokens stored"))
		r.writePlain("%s\n", ui.Styles.Help("Run `spotmcp auth login` to authorize."))
		return nil
	}

	r.writePlain("%s", ui.Styles.Field("Access token", report.AccessToken))
	r.writePlain("%s", ui.Styles.Field("Refresh token", shared.Redact(record.RefreshToken)))
	if report.Scope != "" {
		r.writePlain("%s", ui.Styles.Field("Scope", report.Scope))
	}

	switch {
	case report.Valid == nil:
	case *report.Valid:
		r.writePlain("%s\n", ui.Styles.OK("Spotify accepts the access token"))
	case report.Status == http.StatusUnauthorized && report.HasRefreshToken:
		r.writePlain("%s\n", ui.Styles.Warn("Access token expired; it will be refreshed on the next call"))
	case report.Status == http.StatusUnauthorized:
		r.writePlain("%s\n", ui.Styles.Err("Access token expired and no refresh token is stored"))
	default:
		r.writePlain("%s\n", ui.Styles.Err("Could not check the token: "+report.Error))
	}
	return nil
}

// AuthRefresh forces a refresh-token exchange.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	a, err := r.wire()
	if err != nil {
		return err
	}
	defer a.close()

	if _, err := a.manager.Refresh(ctx); err != nil {
		if errors.Is(err, shared.ErrNoRefreshToken) {
			r.writePlain("%s\n", ui.Styles.Help("Run `spotmcp auth login` to authorize again."))
		}
		return err
	}
	return r.writePlain("%s\n", ui.Styles.OK("Access token refreshed"))
}
