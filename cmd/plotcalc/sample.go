package main

import (
	"encoding/json"
	"fmt"

	"github.com/AbhinitBarua/PlottingCalculator/internal/config"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/spf13/cobra"
)

var sampleCmd = &cobra.Command{
	Use:   "sample <expression>",
	Short: "Print the points of f(x) over a domain",
	Long: `Samples f(x) at evenly spaced points of [x-min, x-max]. Points where the
function is undefined or not finite are left out.`,
	Example: `  plotcalc sample "x^2" --x-min -2 --x-max 2 --points 4`,
	Args:    cobra.ExactArgs(1),
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

		d, n, err := domainFlags(cmd, cfg)
		if err != nil {
			return err
		}
		points, err := a.svc.Sample(cmd.Context(), args[0], d, n)
		if err != nil {
			return fmt.Errorf("%s", domain.UserMessage(err))
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(points)
		}
		for _, pt := range points {
			fmt.Fprintln(out, domain.FormatPoint(pt.X, pt.Y))
		}
		return nil
	},
}

// domainFlags reads --x-min, --x-max and --points, falling back to the configuration.
func domainFlags(cmd *cobra.Command, cfg config.Config) (domain.Domain, int, error) {
	d := cfg.Domain()
	if cmd.Flags().Changed("x-min") {
		d.XMin, _ = cmd.Flags().GetFloat64("x-min")
	}
	if cmd.Flags().Changed("x-max") {
		d.XMax, _ = cmd.Flags().GetFloat64("x-max")
	}
	n, _ := cmd.Flags().GetInt("points")
	if err := domain.ValidatePoints(n); err != nil {
		return d, 0, fmt.Errorf("--points: %s", domain.UserMessage(err))
	}
	return d, n, nil
}

func addDomainFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("x-min", domain.DefaultDomain.XMin, "Lower bound of x (overrides plot.x_min)")
	cmd.Flags().Float64("x-max", domain.DefaultDomain.XMax, "Upper bound of x (overrides plot.x_max)")
	cmd.Flags().Int("points", 0, fmt.Sprintf("Sampling intervals, at most %d (0 uses plot.points)", domain.MaxPoints))
}

func init() {
	rootCmd.AddCommand(sampleCmd)
	addDomainFlags(sampleCmd)
	sampleCmd.Flags().Bool("json", false, "Print the points as JSON")
}
