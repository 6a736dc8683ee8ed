package main

import (
	"fmt"
	"strings"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/calculator"
	"github.com/spf13/cobra"
)

var calcCmd = &cobra.Command{
	Use:   "calc <expression>",
	Short: "Evaluate an expression once",
	Example: `  plotcalc calc "2^10 + sqrt(16)"
  plotcalc calc 'sin(pi/2)'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		result := a.svc.Calculate(cmd.Context(), strings.Join(args, " "))
		fmt.Fprintln(cmd.OutOrStdout(), result)
		if strings.HasPrefix(result, calculator.ErrorPrefix) {
			return fmt.Errorf("evaluation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(calcCmd)
}
