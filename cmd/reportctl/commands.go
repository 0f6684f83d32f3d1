package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/testkube/report-dashboard/internal/config"
	"github.com/testkube/report-dashboard/internal/database"
	"github.com/testkube/report-dashboard/internal/logging"
	"github.com/testkube/report-dashboard/internal/pipeline"
	"github.com/testkube/report-dashboard/internal/reconcile"
	"github.com/testkube/report-dashboard/internal/retention"
	"github.com/testkube/report-dashboard/internal/server"
	"github.com/testkube/report-dashboard/internal/stats"
)

type options struct {
	cfg        config.Config
	configFile string
	dryRun     bool

	fs  afero.Fs
	log *logrus.Entry
}

func newRootCommand() *cobra.Command {
	o := &options{
		cfg: config.FromEnv(),
		fs:  afero.NewOsFs(),
	}

	cmd := &cobra.Command{
		Use:           "reportctl",
		Short:         "Build and serve test report manifests and stats history",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.complete(cmd, args)
		},
	}
	cmd.PersistentFlags().StringVar(&o.configFile, "config", "", "Optional YAML config file")
	o.cfg.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newManifestCommand(o),
		newStatsCommand(o),
		newReconcileCommand(o),
		newPruneCommand(o),
		newServeCommand(o),
	)
	return cmd
}

func (o *options) complete(cmd *cobra.Command, args []string) error {
	if o.configFile != "" {
		if err := o.cfg.LoadFile(o.fs, o.configFile, cmd.Flags()); err != nil {
			return err
		}
	}
	o.cfg.SetReportsDir(args)
	o.cfg.Resolve()

	log, err := logging.New(os.Stderr, o.cfg.LogLevel)
	if err != nil {
		return err
	}
	o.log = log
	return nil
}

// mirror returns the database the stats history is mirrored into, or nil.
func (o *options) mirror() (database.Database, error) {
	if o.cfg.UseMock {
		o.log.Info("Using MOCK history database (USE_MOCK=true)")
		return database.NewMockDatabase(), nil
	}
	if o.cfg.DatabaseDSN == "" {
		return nil, nil
	}
	db, err := database.NewMySQLDatabase(o.cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	o.log.Info("Connected to history database")
	return db, nil
}

// pipeline builds the manifest/stats pipeline. An unreachable database only
// disables mirroring. The returned func closes the database, if any.
func (o *options) pipeline() (*pipeline.Pipeline, func()) {
	var mirror stats.Mirror
	closeDB := func() {}
	db, err := o.mirror()
	if err != nil {
		o.log.WithError(err).Warn("History database not available, mirroring disabled")
	} else if db != nil {
		mirror = db
		closeDB = o.closer(db)
	}

	return pipeline.New(o.fs, pipeline.Config{
		ReportsDir:   o.cfg.ReportsDir,
		ManifestPath: o.cfg.ManifestPath,
		HistoryPath:  o.cfg.HistoryPath,
	}, mirror, o.log), closeDB
}

func (o *options) closer(db database.Database) func() {
	return func() {
		if err := db.Close(); err != nil {
			o.log.WithError(err).Warn("Failed to close history database")
		}
	}
}

func newManifestCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "manifest [reports-dir]",
		Short: "Scan report folders, write the manifest and update the stats history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeDB := o.pipeline()
			defer closeDB()
			return p.Regenerate()
		},
	}
}

func newStatsCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [reports-dir]",
		Short: "Update the stats history from the existing manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeDB := o.pipeline()
			defer closeDB()
			_, err := p.Aggregate()
			return err
		},
	}
}

func newReconcileCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [reports-dir]",
		Short: "Recompute report counts from Allure results and fix metadata",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, closeDB := o.pipeline()
			defer closeDB()
			_, err := reconcile.New(o.fs, o.cfg.ReportsDir, p, o.dryRun, o.log).Run()
			return err
		},
	}
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Report changes without writing them")
	return cmd
}

func newPruneCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune [reports-dir]",
		Short: "Delete report folders older than the retention window and refresh the manifest",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := retention.NewPruner(o.fs, o.cfg.ReportsDir, o.cfg.KeepDays, o.dryRun, o.log).Prune()
			if err != nil {
				return err
			}
			o.log.WithField("removed", len(removed)).Infof("Pruned reports older than %d days", o.cfg.KeepDays)
			if o.dryRun || len(removed) == 0 {
				return nil
			}
			p, closeDB := o.pipeline()
			defer closeDB()
			if err := p.Regenerate(); err != nil {
				o.log.WithError(err).Warn("Failed to regenerate manifest and stats")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&o.cfg.KeepDays, "keep-days", o.cfg.KeepDays, "Keep reports from the last N days")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "List expired reports without deleting them")
	return cmd
}

func newServeCommand(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboards and stats history over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&o.cfg.DashboardDir, "dir", o.cfg.DashboardDir, "Directory to serve")
	cmd.Flags().StringVar(&o.cfg.ListenAddr, "addr", o.cfg.ListenAddr, "Listen address")
	return cmd
}

func (o *options) serve(ctx context.Context) error {
	var history server.HistorySource = server.NewFileHistory(o.fs, o.cfg.HistoryPath)
	db, err := o.mirror()
	if err != nil {
		o.log.WithError(err).Warn("History database not available, serving history file")
	} else if db != nil {
		defer o.closer(db)()
		history = server.NewDatabaseHistory(db, o.cfg.HistoryDays)
	}

	srv := server.NewServer(o.fs, o.cfg.DashboardDir, o.cfg.ManifestPath, history, o.log)
	httpServer := &http.Server{
		Addr:    o.cfg.ListenAddr,
		Handler: srv.Router(),
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		o.log.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			o.log.WithError(err).Warn("Graceful shutdown failed")
		}
	}()

	o.log.Infof("Serving %s on %s", o.cfg.DashboardDir, o.cfg.ListenAddr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	o.log.Info("Server stopped.")
	return nil
}
