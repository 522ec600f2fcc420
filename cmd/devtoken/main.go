// Command devtoken mints and inspects access tokens for local testing.
//
//	devtoken mint -u alice -r admin
//	devtoken inspect <token>
package main

import (
	"fmt"
	"os"
	"time"

	"ecomove/internal/auth"
	"ecomove/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "devtoken",
		Short:         "Mint and inspect EcoMove access tokens",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("secret", "", "signing secret (defaults to JWT_SECRET)")

	mint := &cobra.Command{
		Use:   "mint",
		Short: "Print a signed access token",
		Args:  cobra.NoArgs,
		RunE:  runMint,
	}
	mint.Flags().StringP("user", "u", "", "user id to put in the token")
	mint.Flags().StringP("role", "r", auth.RoleUser, "role: user or admin")
	mint.Flags().Bool("refresh", false, "also print a refresh token")
	_ = mint.MarkFlagRequired("user")

	inspect := &cobra.Command{
		Use:   "inspect TOKEN",
		Short: "Validate a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE:  runInspect,
	}

	root.AddCommand(mint, inspect)
	return root
}

func signingSecret(cmd *cobra.Command) (string, error) {
	secret, _ := cmd.Flags().GetString("secret")
	if secret != "" {
		return secret, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	return cfg.JWTSecret, nil
}

func runMint(cmd *cobra.Command, _ []string) error {
	userID, _ := cmd.Flags().GetString("user")
	role, _ := cmd.Flags().GetString("role")
	withRefresh, _ := cmd.Flags().GetBool("refresh")

	if role != auth.RoleUser && role != auth.RoleAdmin {
		return fmt.Errorf("unknown role %q, want %s or %s", role, auth.RoleUser, auth.RoleAdmin)
	}

	secret, err := signingSecret(cmd)
	if err != nil {
		return err
	}

	access, refresh, err := auth.GenerateTokens(userID, role, secret, secret)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, access)
	if withRefresh {
		fmt.Fprintln(out, refresh)
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	secret, err := signingSecret(cmd)
	if err != nil {
		return err
	}

	claims, err := auth.ValidateToken(args[0], secret)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "user_id:    %s\n", claims.UserID)
	fmt.Fprintf(out, "role:       %s\n", claims.Role)
	fmt.Fprintf(out, "token_type: %s\n", claims.TokenType)
	if claims.ExpiresAt != nil {
		fmt.Fprintf(out, "expires_at: %s\n", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return nil
}
