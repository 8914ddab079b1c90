package command

import (
	"fmt"

	"yamdb/database"
	"yamdb/internal/importer"

	"github.com/spf13/cobra"
)

var importDir string

var importCmd = &cobra.Command{
	Use:   "import-csv",
	Short: "Load the reference CSV dataset",
	Long: `Loads category.csv, genre.csv, titles.csv, genre_title.csv, users.csv,
review.csv and comments.csv from --dir in one transaction. Rows keep their ids,
so running the import twice overwrites instead of duplicating.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := importDir
		if dir == "" {
			dir = cfg.CSVDataDir
		}

		if err := database.Migrate(db); err != nil {
			return err
		}
		sum, err := importer.New(db, dir).Run(cmd.Context())
		if err != nil {
			return fmt.Errorf("import failed: %w", err)
		}

		fmt.Println("=== Import Summary ===")
		fmt.Printf("✓ Categories: %d\n", sum.Categories)
		fmt.Printf("✓ Genres: %d\n", sum.Genres)
		fmt.Printf("✓ Titles: %d\n", sum.Titles)
		fmt.Printf("✓ Title genres: %d\n", sum.GenreTitles)
		fmt.Printf("✓ Users: %d\n", sum.Users)
		fmt.Printf("✓ Reviews: %d\n", sum.Reviews)
		fmt.Printf("✓ Comments: %d\n", sum.Comments)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDir, "dir", "", "directory holding the CSV files (default CSV_DATA_DIR)")
}
