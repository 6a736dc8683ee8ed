package main

import (
	"context"
	"os"

	plotcalc "github.com/AbhinitBarua/PlottingCalculator"
	"github.com/AbhinitBarua/PlottingCalculator/internal/presentation/tui"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/adapters/gonumplot"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
	"github.com/AbhinitBarua/PlottingCalculator/pkg/ports"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Edit a plot interactively",
	Long: `Starts an interactive session: add and remove functions, change the x range,
evaluate expressions and save the plot to an image.

With --live the image is rewritten after every change, so an image viewer
that reloads on change shows the plot as you edit it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		live, _ := cmd.Flags().GetString("live")
		sessionID, _ := cmd.Flags().GetString("session")
		headless, _ := cmd.Flags().GetBool("headless")

		interactive := term.IsTerminal(int(os.Stdin.Fd())) && !headless
		renderer := newRenderer(cfg, "")

		var extra []plotcalc.Option
		if live != "" {
			sink, err := gonumplot.NewFileSink(live, renderer)
			if err != nil {
				return err
			}
			extra = append(extra, plotcalc.WithSinkFactory(func(string) ports.PlotSink { return sink }))
		}

		a, err := newApp(cfg, logger, extra...)
		if err != nil {
			return err
		}
		defer a.close()

		runner := &plotcalc.Runner{
			Input:     os.Stdin,
			Output:    os.Stdout,
			Headless:  !interactive,
			SessionID: sessionID,
			Exporter: func(ctx context.Context, p domain.Plot, path string) error {
				sink, err := gonumplot.NewFileSink(path, renderer)
				if err != nil {
					return err
				}
				return sink.Replace(ctx, p)
			},
		}
		if interactive {
			width, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil {
				width = 80
			}
			runner.Renderer = tui.NewRenderer(width)
			tui.PrintBanner(os.Stdout, plotcalc.Version)
		}
		return runner.Run(cmd.Context(), a.svc)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().String("live", "", "Rewrite this image file after every change")
	replCmd.Flags().String("session", "repl", "Session to edit (shared with the server when the store is Redis)")
	replCmd.Flags().Bool("headless", false, "No banner, prompts or markdown rendering")
}
