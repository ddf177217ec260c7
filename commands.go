package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ufdr-assistant/go/orchestrator/internal/db"
	"github.com/ufdr-assistant/go/orchestrator/internal/engine"
	"github.com/ufdr-assistant/go/orchestrator/internal/health"
)

var (
	configPath string
	queryLimit int
	queryJSON  bool
)

var rootCmd = &cobra.Command{
	Use:           "orchestrator",
	Short:         "Answer natural-language questions over forensic device evidence",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Answer one query and print the evidence",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run every health check once",
	RunE:  runCheck,
}

var serveAdminCmd = &cobra.Command{
	Use:   "serve-admin",
	Short: "Serve /health, /ready and /metrics until interrupted",
	RunE:  runServeAdmin,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the evidence tables if they do not exist",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./config.yaml or $UFDR_CONFIG)")
	queryCmd.Flags().IntVar(&queryLimit, "limit", 0, "Maximum items per category (default engine.default_limit)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Print the response as JSON")
	rootCmd.AddCommand(queryCmd, checkCmd, serveAdminCmd, migrateCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	resp, err := a.engine.Answer(ctx, strings.Join(args, " "), queryLimit)
	if err != nil {
		return err
	}
	if queryJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	printResponse(cmd.OutOrStdout(), resp)
	return nil
}

// printResponse renders a response for a terminal
func printResponse(w io.Writer, resp *engine.Response) {
	fmt.Fprintln(w, resp.Summary)
	if len(resp.Messages) > 0 {
		fmt.Fprintf(w, "\nMessages (%s):\n", resp.MessageSource)
		for _, m := range resp.Messages {
			fmt.Fprintf(w, "  [%s] %s -> %s (%s): %s\n", m.Timestamp, m.Sender, orUnknown(m.Receiver), m.App, m.Content)
		}
	}
	if len(resp.Calls) > 0 {
		fmt.Fprintln(w, "\nCalls:")
		for _, c := range resp.Calls {
			fmt.Fprintf(w, "  [%s] %s -> %s %s %ds\n", c.Timestamp, orUnknown(c.Caller), orUnknown(c.Callee), c.Type, c.DurationSeconds)
		}
	}
	if len(resp.Locations) > 0 {
		fmt.Fprintln(w, "\nLocations:")
		for _, l := range resp.Locations {
			fmt.Fprintf(w, "  [%s] %s %.5f,%.5f\n", l.Timestamp, orUnknown(l.Contact), l.Latitude, l.Longitude)
		}
	}
	if len(resp.GraphInsights) > 0 {
		fmt.Fprintln(w, "\nGraph insights:")
		for _, g := range resp.GraphInsights {
			fmt.Fprintf(w, "  %s\n", g)
		}
	}
}

func orUnknown(s *string) string {
	if s == nil {
		return "Unknown"
	}
	return *s
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	detailed := a.health.GetDetailedHealth(ctx)
	printHealth(cmd.OutOrStdout(), a.health.Names(), detailed)
	if !detailed.Overall.Ready {
		return fmt.Errorf("not ready: %s", detailed.Overall.Message)
	}
	return nil
}

func printHealth(w io.Writer, names []string, detailed health.DetailedHealth) {
	for _, name := range names {
		r := detailed.Components[name]
		line := fmt.Sprintf("%-18s %-9s %s", name, r.Status, r.Message)
		if r.Error != "" {
			line += ": " + r.Error
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "overall: %s (%s)\n", detailed.Overall.Status, detailed.Overall.Message)
}

func runServeAdmin(_ *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := health.StartAdminServer(a.health, cfg.MetricsPort(), logger)
	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Admin server shutdown failed", zap.Error(err))
	}
	return nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := db.NewClient(&cfg.Store, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return store.Migrate(ctx)
}
