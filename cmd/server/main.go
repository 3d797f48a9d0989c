package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"agriadvisor/config"
	"agriadvisor/pkg/climate"
	"agriadvisor/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Farmer advisory engine: soil alerts and crop recommendations",
	Long: `advisor serves the field, alert and recommendation API.

Configuration comes from the environment (and a .env file when present).
Run without a subcommand to start the HTTP server.`,
	SilenceUsage: true,
	RunE:         func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context()) },
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context()) },
}

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the effective crop rule table",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _ := config.Load()
		rules, err := climate.LoadFromFiles(cfg.CropRulesCSV, cfg.CropRulesXLSX)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "CROP\tBASE Q/HA\tN MIN/OPT\tP MIN/OPT\tK MIN/OPT\tPH\tWATER MM/WK\tPEST")
		for _, r := range rules.All() {
			fmt.Fprintf(tw, "%s\t%.0f\t%.0f/%.0f\t%.0f/%.0f\t%.0f/%.0f\t%.1f-%.1f\t%.0f\t%.2f\n",
				r.Crop, r.BaseYieldQHa, r.MinN, r.OptN, r.MinP, r.OptP, r.MinK, r.OptK,
				r.PHMin, r.PHMax, r.WeeklyWaterMM, r.PestBaseRate)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, rulesCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, envErr := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	if envErr != nil {
		log.Debug("no .env loaded", "error", envErr)
	}

	app, err := buildApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		return err
	}
	defer app.Close()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "port", cfg.Port)
		errCh <- app.Echo.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return app.Echo.Shutdown(shutdownCtx)
}
