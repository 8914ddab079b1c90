package command

import (
	"fmt"

	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"

	"github.com/spf13/cobra"
)

var cleanupCodesCmd = &cobra.Command{
	Use:   "cleanup-codes",
	Short: "Delete expired and used confirmation codes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		codes := service.NewConfirmationService(repository.NewConfirmationCodeRepository(db), cfg.ConfirmationCodeTTL)
		n, err := codes.Cleanup(cmd.Context())
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Printf("✓ Deleted %d confirmation codes\n", n)
		return nil
	},
}
