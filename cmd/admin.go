package cmd

import (
	"errors"

	"github.com/shopscript/apiserver/config"
	"github.com/shopscript/apiserver/internal/auth"
	"github.com/shopscript/apiserver/internal/db"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/internal/store"
	"github.com/spf13/cobra"
)

var (
	adminUsername string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := newLogger(cfg)

		conn, err := db.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		// Admin creation never issues a session, so no token signer is needed.
		authService := services.NewAuthService(
			store.NewAdminRepository(conn),
			store.NewUserRepository(conn),
			auth.NewBcryptHasher(0),
			nil,
		)
		admin, err := authService.CreateAdmin(log.WithContext(cmd.Context()), adminUsername, adminPassword)
		if err != nil {
			if errors.Is(err, services.ErrUsernameTaken) {
				return errors.New("an admin with that username already exists")
			}
			return err
		}

		log.Info().Int("admin_id", admin.ID).Str("username", admin.Username).Msg("admin created")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminCreateCmd)
	adminCreateCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = adminCreateCmd.MarkFlagRequired("username")
	_ = adminCreateCmd.MarkFlagRequired("password")
}
