package main

import (
	"fmt"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/gonumplot"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/spf13/cobra"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render functions of x to an image file",
	Example: `  plotcalc plot -e "sin(x)" -e "x^2/10" -o curves.png
  plotcalc plot -e "1/x" --x-min -5 --x-max 5 -o hyperbola.svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		exprs, _ := cmd.Flags().GetStringArray("expr")
		exprs = append(exprs, args...)
		if len(exprs) == 0 {
			return fmt.Errorf("at least one --expr is required")
		}
		output, _ := cmd.Flags().GetString("output")
		title, _ := cmd.Flags().GetString("title")

		a, err := newApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.close()

		sink, err := gonumplot.NewFileSink(output, newRenderer(cfg, title))
		if err != nil {
			return err
		}
		d, n, err := domainFlags(cmd, cfg)
		if err != nil {
			return err
		}
		p, err := a.svc.PlotExpressions(cmd.Context(), exprs, d, n)
		if err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}
		if err := sink.Replace(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d function(s) to %s\n", len(p.Series), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	addDomainFlags(plotCmd)
	plotCmd.Flags().StringArrayP("expr", "e", nil, "Function of x to plot (repeatable)")
	plotCmd.Flags().StringP("output", "o", "plot.png", "Output file; the extension picks the format (png, svg, pdf, jpg, tiff)")
	plotCmd.Flags().String("title", "", "Chart title")
}
