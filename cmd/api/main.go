package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhouzirui/lumina-interior/backend/internal/config"
	"github.com/zhouzirui/lumina-interior/backend/internal/handler"
	"github.com/zhouzirui/lumina-interior/backend/internal/logging"
	"github.com/zhouzirui/lumina-interior/backend/internal/model/style"
	"github.com/zhouzirui/lumina-interior/backend/internal/service/ai"
	"github.com/zhouzirui/lumina-interior/backend/internal/service/events"
	"github.com/zhouzirui/lumina-interior/backend/internal/service/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "lumina",
		Short:         "Lumina Interior backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to load %s: %v\n", envFile, err)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "styles",
		Short: "Print the style catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printStyles(cmd.OutOrStdout(), style.Seed())
		},
	})
	return root
}

func printStyles(out io.Writer, styles []style.Style) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, s := range styles {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ID, s.Name, s.Description)
	}
	return tw.Flush()
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	zap.ReplaceGlobals(logger)

	var designer ai.Designer
	if cfg.AI.Enabled() {
		designer, err = ai.NewService(ctx, cfg.AI, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize AI service: %w", err)
		}
		logger.Info("AI service initialized",
			zap.String("imageModel", cfg.AI.GeminiImageModel),
			zap.String("chatProvider", cfg.AI.ChatProvider))
	} else {
		logger.Warn("GEMINI_API_KEY not set, design requests will fail")
		designer = ai.Unconfigured()
	}

	styles := style.NewMemoryStore(style.Seed())
	broker := events.NewBroker()
	sessions := session.NewService(designer, styles, session.Options{
		IdleTTL: cfg.Session.IdleTTL,
		Events:  broker,
		Logger:  logger,
	})

	router := handler.NewRouter(handler.Dependencies{
		Config:   *cfg,
		Styles:   styles,
		Sessions: sessions,
		Broker:   broker,
		Logger:   logger,
	})

	return startServer(ctx, cfg.Server, router, logger)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("Lumina Interior backend listening", zap.String("addr", addr))
	if err := runServer(ctx, srv); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
