package command

import (
	"fmt"
	"strings"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/spf13/cobra"
)

var setRoleCmd = &cobra.Command{
	Use:   "set-role [username] [role]",
	Short: "Change a user's role",
	Long:  "Change a user's role. Valid roles: user, moderator, admin.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role, err := models.ParseRole(strings.ToLower(args[1]))
		if err != nil {
			return err
		}

		users := service.NewUserService(repository.NewUserRepository(db))
		user, err := users.SetRole(cmd.Context(), args[0], role)
		if err != nil {
			return fmt.Errorf("failed to set role: %w", err)
		}

		fmt.Printf("✓ %s is now %s\n", user.Username, user.Role)
		return nil
	},
}
