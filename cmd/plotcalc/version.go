package main

import (
	"fmt"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of plotcalc",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "plotcalc version %s\n", plotcalc.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
