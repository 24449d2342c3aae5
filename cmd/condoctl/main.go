// Package main provides condoctl, the operator CLI for a condo deployment.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"condo/internal/governance/residence"
	"condo/internal/governance/store/sqlstore"
	jwttoken "condo/internal/jwt_token"
	"condo/internal/platform/config"
	"condo/internal/platform/database"
	id "condo/pkg/domain"
)

const (
	Version = "0.1.0"
	appName = "condoctl"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Operate a condo governance server",
		Long: `condoctl reads the same configuration as the server (CONDO_CONFIG and
CONDO_* variables) and performs operator tasks against it.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(tokenCmd(), residencesCmd(), migrateCmd(), versionCmd())
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
		},
	}
}

func tokenCmd() *cobra.Command {
	var (
		wallet string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, err := id.ParseAddress(wallet)
			if err != nil {
				return fmt.Errorf("--wallet: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.Auth.TokenTTL
			}
			tokens := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
			token, err := tokens.GenerateAccessToken(addr, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "Wallet address the token is issued to")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}

func residencesCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "residences",
		Short: "List every valid residence id",
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := residence.All()
			out := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(out).Encode(all)
			}
			for _, r := range all {
				loc, _ := residence.Decode(r)
				fmt.Fprintf(out, "%s\tblock %d\tgroup %d\tunit %d\n", r, loc.Block, loc.Group, loc.Unit)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print a JSON array")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the governance tables in the configured database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.Storage.Driver == "" || cfg.Storage.Driver == "memory" {
				return fmt.Errorf("storage driver %q has no schema", cfg.Storage.Driver)
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			db, dialect, err := database.Open(ctx, cfg.Storage)
			if err != nil {
				return err
			}
			defer db.Close()
			st, err := sqlstore.New(db, dialect)
			if err != nil {
				return err
			}
			if err := st.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s database\n", dialect)
			return nil
		},
	}
}
