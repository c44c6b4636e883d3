package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/ninjacatsolana/nc-buyboy-v2/internal/app"
)

var (
	simulateAmount    float64
	simulateMint      string
	simulateSignature string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-buy",
	Short: "模拟一笔买入并触发播报",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateAmount <= 0 {
			return errors.New("--amount 必须大于 0")
		}

		return getApp().SimulateBuy(cmd.Context(), app.SimulateOptions{
			Signature: simulateSignature,
			Mint:      simulateMint,
			Amount:    simulateAmount,
		})
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateAmount, "amount", 0, "买入数量")
	simulateCmd.Flags().StringVar(&simulateMint, "mint", "", "Token mint (defaults to filter.mint)")
	simulateCmd.Flags().StringVar(&simulateSignature, "signature", "", "Transaction signature (generated when empty)")
}
