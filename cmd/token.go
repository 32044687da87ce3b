package cmd

import (
	"errors"
	"fmt"
	"time"

	"lms/middleware"
	"lms/services/catalog"

	"github.com/spf13/cobra"
)

// tokenCmd mints a bearer token for an existing user, for local testing.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed JWT for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint("user-id")
		if userID == 0 {
			return errors.New("--user-id is required")
		}
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, db, err := openDatabase(cmd)
		if err != nil {
			return err
		}
		defer closeDatabase(db)

		user, err := catalog.NewRepository(db).FindUserByID(cmd.Context(), userID)
		if err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}

		token, err := middleware.GenerateJWT(cfg.JWTKey, user.ID, user.Name, user.Role, user.Email, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Uint("user-id", 0, "User to sign the token for")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
}
