package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/app"
)

var (
	showLimit       int
	showPruneBefore time.Duration
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show recent audited alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		return getApp().Show(cmd.Context(), app.ShowOptions{
			Limit:       showLimit,
			PruneBefore: showPruneBefore,
		})
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Maximum number of alerts to display")
	showCmd.Flags().DurationVar(&showPruneBefore, "prune-before", 0, "Delete audit rows older than this duration before listing")
}
