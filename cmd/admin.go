package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"tourbooking/config"
	"tourbooking/utils"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Operator credentials",
	}
	cmd.AddCommand(newAdminHashCmd())
	cmd.AddCommand(newAdminTokenCmd())
	return cmd
}

func newAdminHashCmd() *cobra.Command {
	var password string

	c := &cobra.Command{
		Use:   "hash-password",
		Short: "Print an ADMIN_PASSWORD_HASH value",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "export ADMIN_PASSWORD_HASH='%s'\n", hash)
			return nil
		},
	}
	c.Flags().StringVar(&password, "password", "", "operator password")
	_ = c.MarkFlagRequired("password")
	return c
}

func newAdminTokenCmd() *cobra.Command {
	var ttl time.Duration

	c := &cobra.Command{
		Use:   "token",
		Short: "Issue an admin token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadConfig()
			secret := config.AppConfig.JWTSecret
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if ttl <= 0 {
				ttl = config.AppConfig.AdminTokenTTL
			}
			token, err := utils.GenerateToken(secret, "admin", utils.RoleAdmin, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, token)
			return nil
		},
	}
	c.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default ADMIN_TOKEN_TTL)")
	return c
}
