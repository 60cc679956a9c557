package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/api"
	"github.com/beyond-api/beyond-cli/internal/auth"
	"github.com/beyond-api/beyond-cli/internal/config"
	"github.com/beyond-api/beyond-cli/internal/iocontext"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "auth",
		Aliases: []string{"au"},
		Short:   "Manage OAuth tokens",
		Long:    "Obtain, refresh and remove API tokens. Tokens are stored per profile in your OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthRefreshCmd())
	cmd.AddCommand(newAuthClientCredentialsCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthProfilesCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		code        string
		apiURL      string
		listenAddr  string
		waitTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange an authorization code for tokens",
		Long: strings.TrimSpace(`
Run the OAuth authorization code flow and store the resulting tokens.

Without --code a local callback server is started and the authorization page
is opened in your browser. With --code an already obtained code is exchanged
directly. BEYOND_CLIENT_ID and BEYOND_CLIENT_SECRET must be configured.`),
		Example: strings.TrimSpace(`
  # Browser flow
  beyond auth login --api-url https://shop.example.com/api

  # Exchange a code you already have
  beyond auth login --code AbC123 --profile staging`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			factory := newClientFactory()
			factory.apiURL = apiURL
			ac, err := factory.load(false)
			if err != nil {
				return err
			}
			if strings.TrimSpace(ac.Config.ClientID) == "" || strings.TrimSpace(ac.Config.ClientSecret) == "" {
				return api.ErrMissingClientCredentials
			}

			if code == "" {
				code, err = receiveAuthorizationCode(cmd, ac, listenAddr, waitTimeout)
				if err != nil {
					return err
				}
			}

			res, err := ac.Client.Auth().ExchangeAuthorizationCode(cmdContext(cmd), ac.Session, code)
			if err != nil {
				return err
			}
			if err := failureErr(res); err != nil {
				return err
			}
			return finishGrant(cmd, ac, "Logged in")
		}),
	}

	cmd.Flags().StringVar(&code, "code", "", "Authorization code to exchange (skips the browser flow)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (overrides BEYOND_API_URL)")
	cmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:0", "Loopback address for the OAuth callback")
	cmd.Flags().DurationVar(&waitTimeout, "wait", 5*time.Minute, "How long to wait for the browser callback")
	flagAlias(cmd.Flags(), "api-url", "url")

	return cmd
}

func receiveAuthorizationCode(cmd *cobra.Command, ac *apiContext, listenAddr string, wait time.Duration) (string, error) {
	server, err := auth.NewCallbackServer(ac.Config.APIURL, ac.Config.ClientID, listenAddr)
	if err != nil {
		return "", fmt.Errorf("failed to create callback server: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmdContext(cmd), wait)
	defer cancel()

	result, err := server.Start(ctx, iocontext.GetIO(cmd.Context()).ErrOut)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("authorization timed out after %s", wait)
		}
		return "", fmt.Errorf("authorization failed: %w", err)
	}
	if result.Error != nil {
		return "", result.Error
	}
	return result.Code, nil
}

func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Trade the stored refresh token for a new token pair",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ac, err := newClientFactory().load(false)
			if err != nil {
				return err
			}
			res, err := ac.Client.Auth().Refresh(cmdContext(cmd), ac.Session)
			if err != nil {
				return err
			}
			if err := failureErr(res); err != nil {
				return err
			}
			return finishGrant(cmd, ac, "Tokens refreshed")
		}),
	}
}

func newAuthClientCredentialsCmd() *cobra.Command {
	var apiURL string

	cmd := &cobra.Command{
		Use:     "client-credentials",
		Aliases: []string{"cc"},
		Short:   "Obtain a token for the app itself, without a user",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			factory := newClientFactory()
			factory.apiURL = apiURL
			ac, err := factory.load(false)
			if err != nil {
				return err
			}
			res, err := ac.Client.Auth().ClientCredentials(cmdContext(cmd), ac.Session)
			if err != nil {
				return err
			}
			if err := failureErr(res); err != nil {
				return err
			}
			return finishGrant(cmd, ac, "Client token obtained")
		}),
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "API base URL (overrides BEYOND_API_URL)")
	flagAlias(cmd.Flags(), "api-url", "url")
	return cmd
}

// finishGrant stores the session's new tokens and reports them.
func finishGrant(cmd *cobra.Command, ac *apiContext, action string) error {
	if err := ac.saveSession(); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	if isJSON(cmd) {
		return printResult(cmd, sessionStatus(ac))
	}
	printMessage(cmd, "%s.\n", action)
	printMessage(cmd, "  API URL: %s\n", ac.Session.APIURL)
	if !ac.FromEnv {
		printMessage(cmd, "  Profile: %s\n", ac.Profile)
	}
	if expiry := ac.Session.Expiry(); !expiry.IsZero() {
		printMessage(cmd, "  Expires: %s\n", expiry.Format(time.RFC3339))
	}
	return nil
}

func sessionStatus(ac *apiContext) map[string]any {
	access, refresh := ac.Session.Tokens()
	status := map[string]any{
		"authenticated": access != "",
		"api_url":       ac.Session.APIURL,
		"access_token":  maskToken(access),
		"refresh_token": maskToken(refresh),
		"source":        "keychain",
	}
	if ac.FromEnv {
		status["source"] = "env"
	} else {
		status["profile"] = ac.Profile
	}
	expiry := ac.Session.Expiry()
	if claims, err := api.ParseAccessClaims(access); err == nil {
		if len(claims.Scopes) > 0 {
			status["scopes"] = claims.Scopes
		}
		if claims.Subject != "" {
			status["subject"] = claims.Subject
		}
		if expiry.IsZero() {
			expiry = claims.ExpiresAt
		}
	}
	if !expiry.IsZero() {
		status["expiry"] = expiry.Format(time.RFC3339)
		status["expired"] = time.Now().After(expiry)
	}
	return status
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Long:  "Display the session for the active profile. Tokens are masked.",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			ac, err := newClientFactory().load(true)
			if err != nil {
				if errors.Is(err, config.ErrNotLoggedIn) || errors.Is(err, config.ErrMissingAPIURL) {
					if isJSON(cmd) {
						return printResult(cmd, map[string]any{
							"authenticated": false,
							"message":       "Not authenticated. Run 'beyond auth login'.",
						})
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'beyond auth login' to obtain tokens.")
					return nil
				}
				return err
			}

			status := sessionStatus(ac)
			if isJSON(cmd) {
				return printResult(cmd, status)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Authenticated")
			_, _ = fmt.Fprintf(out, "  API URL: %s\n", status["api_url"])
			_, _ = fmt.Fprintf(out, "  Access Token: %s\n", status["access_token"])
			if status["refresh_token"] != "" {
				_, _ = fmt.Fprintf(out, "  Refresh Token: %s\n", status["refresh_token"])
			}
			if expiry, ok := status["expiry"]; ok {
				_, _ = fmt.Fprintf(out, "  Expires: %s\n", expiry)
			}
			if scopes, ok := status["scopes"].([]string); ok {
				_, _ = fmt.Fprintf(out, "  Scopes: %s\n", strings.Join(scopes, " "))
			}
			if profile, ok := status["profile"]; ok {
				_, _ = fmt.Fprintf(out, "  Profile: %s\n", profile)
			}
			_, _ = fmt.Fprintf(out, "  Source: %s\n", status["source"])
			return nil
		}),
	}
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored tokens",
		Long:  "Delete the tokens of the active profile (or --profile) from your OS keychain.",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profile, err := config.ResolveProfile(flags.Profile)
			if err != nil {
				return err
			}
			if err := config.DeleteCredentials(profile); err != nil {
				return err
			}
			printMessage(cmd, "Profile %s removed.\n", profile)
			return nil
		}),
	}
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List stored profiles",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, err := config.CurrentProfile()
			if err != nil {
				return err
			}

			rows := make([]any, 0, len(profiles))
			for _, p := range profiles {
				rows = append(rows, map[string]any{"name": p, "current": p == current})
			}
			return printResult(cmd, rows)
		}),
	}
}
