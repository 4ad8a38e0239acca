package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/comitanigiacomo/kanso-report-engine/internal/config"
	"github.com/comitanigiacomo/kanso-report-engine/internal/core/services"
)

func newTokenCmd(envFile *string) *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the report API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			if !cfg.Auth.Enabled() {
				return errors.New("JWT_SECRET is not set")
			}

			token, err := services.NewTokenService(cfg.Auth.Secret, cfg.Auth.Issuer, cfg.Auth.TTL).GenerateToken(subject)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "client name carried in the token")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
