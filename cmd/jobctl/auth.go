package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isdelr/jobboard-be/internal/client"
)

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("username", "u", "", "account username")
	cmd.Flags().StringP("password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
}

func credentials(cmd *cobra.Command) (string, string) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	return username, password
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			username, password := credentials(cmd)
			res, err := a.client.Register(cmd.Context(), username, password)
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (%s)\n", res.Username, res.UserID)
			return nil
		},
	}
	credentialFlags(cmd)
	return cmd
}

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			username, password := credentials(cmd)
			if err := a.client.Login(cmd.Context(), username, password); err != nil {
				if client.IsUnauthorized(err) {
					return errors.New("username or password incorrect")
				}
				return err
			}
			if err := a.tokenFile.Save(a.client.Session()); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
			return nil
		},
	}
	credentialFlags(cmd)
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			a.client.Session().Clear()
			if err := a.tokenFile.Remove(); err != nil {
				return fmt.Errorf("remove session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}
