package cli

import (
	"github.com/spf13/cobra"

	domain "github.com/bryanwahyu/reason3/internal/domain/analysis"
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recorded analyses, or show one by id",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHistory,
	}
	cmd.Flags().String("flavor", "", "Only show this flavor")
	cmd.Flags().Int("page", 1, "Page number")
	cmd.Flags().Int("page-size", 20, "Records per page")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd.Context(), cmd, "console")
	if err != nil {
		return err
	}
	defer app.Close()

	if len(args) == 1 {
		rec, err := app.Claims.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	}

	flavor, _ := cmd.Flags().GetString("flavor")
	page, _ := cmd.Flags().GetInt("page")
	size, _ := cmd.Flags().GetInt("page-size")
	list, err := app.Claims.History(cmd.Context(), domain.Flavor(flavor), page, size)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), list)
}
