package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/isdelr/jobboard-be/internal/client"
)

// appKeyType is the key for storing the app in the command context.
type appKeyType string

const appKey appKeyType = "app"

// app carries the per-invocation session and API client.
type app struct {
	client    *client.Client
	tokenFile client.TokenFile
	mapAPIKey string
}

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".jobctl-token"
	}
	return filepath.Join(dir, "jobctl", "token")
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("JOBCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "jobctl",
		Short:         "Browse job listings and track applications.",
		SilenceUsage:  true,
		SilenceErrors: false,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			apiURL := v.GetString("api-url")
			if apiURL == "" {
				return errors.New("api url is not set (--api-url or JOBCTL_API_URL)")
			}

			tokenFile := client.TokenFile{Path: v.GetString("token-file")}
			session, err := tokenFile.Load()
			if err != nil {
				return err
			}

			a := &app{
				client:    client.New(apiURL, session),
				tokenFile: tokenFile,
				mapAPIKey: v.GetString("map-api-key"),
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},
	}

	cmd.PersistentFlags().String("api-url", "http://localhost:8080", "job board API base URL")
	cmd.PersistentFlags().String("token-file", defaultTokenPath(), "where the session token is stored")
	cmd.PersistentFlags().String("map-api-key", "", "static map API key; enables map links")

	cmd.AddCommand(
		newRegisterCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newJobsCmd(),
		newJobCmd(),
		newApplyCmd(),
		newEventsCmd(),
		newWatchCmd(),
	)
	return cmd
}

func resolveApp(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return a, nil
}

// describe turns API errors into the short messages shown to users.
func describe(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, client.ErrNotAuthenticated):
		return errors.New("not logged in; run `jobctl login` first")
	case client.IsUnauthorized(err):
		return errors.New("session expired or invalid; run `jobctl login` again")
	case client.IsNotFound(err):
		return errors.New("job not found")
	default:
		return err
	}
}
