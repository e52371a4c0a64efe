package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"crane-booking-backend/internal/booking"
	"crane-booking-backend/internal/mw"
)

func newTokenCmd(load configLoader) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a requester or admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := load()
			if err != nil {
				return err
			}
			auth := mw.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
			token, err := auth.Issue(subject, booking.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "requester id the token is issued to")
	cmd.Flags().StringVar(&role, "role", string(booking.RoleRequester), "requester or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
