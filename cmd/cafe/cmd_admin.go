package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aniicone/cafe-api/app/repositories"
	"github.com/aniicone/cafe-api/app/services"
	"github.com/aniicone/cafe-api/config"
	"github.com/aniicone/cafe-api/internal/server"
	"github.com/aniicone/cafe-api/pkg/auth"
	"github.com/aniicone/cafe-api/pkg/database"
)

// cafe admin:promote <uid>
var adminPromoteCmd = &cobra.Command{
	Use:   "admin:promote <uid>",
	Short: "Grant the admin role to an identity",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		done, err := bootDB(cmd.Context())
		if err != nil {
			return err
		}
		defer done()

		provider, err := server.NewIdentityProvider(cmd.Context())
		if err != nil {
			return err
		}
		identity := services.NewIdentityService(provider, repositories.NewUserRepository(database.DB))
		if err := identity.PromoteToAdmin(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s is now an admin\n", args[0])
		return nil
	},
}

var mint struct {
	email string
	name  string
	role  string
	ttl   time.Duration
}

// cafe token:mint <uid>
var tokenMintCmd = &cobra.Command{
	Use:   "token:mint <uid>",
	Short: "Issue an ID token from the local identity provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		if config.IdentityProvider() != "local" {
			return errors.New("token:mint requires IDENTITY_PROVIDER=local")
		}
		secret := config.LocalIdentitySecret()
		if secret == "" {
			return errors.New("LOCAL_IDENTITY_SECRET is not set")
		}

		tok, err := auth.NewLocalProvider(secret).Mint(args[0], mint.email, mint.name, mint.role, mint.ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	f := tokenMintCmd.Flags()
	f.StringVar(&mint.email, "email", "", "email claim")
	f.StringVar(&mint.name, "name", "", "name claim")
	f.StringVar(&mint.role, "role", "", "role claim (customer or admin)")
	f.DurationVar(&mint.ttl, "ttl", time.Hour, "token lifetime")
}
