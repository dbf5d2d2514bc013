package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rodfem/calculator"
	"rodfem/report"
	"rodfem/server"
)

func newRootCommand() *cobra.Command {
	var (
		cfgPath  string
		logLevel string
	)

	root := &cobra.Command{
		Use:           "rodfem",
		Short:         "One-dimensional steady-state rod temperature by linear finite elements",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			log.SetLevel(level)
			return nil
		},
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&cfgPath, "config", "c", calculator.DefaultConfigPath, "path of the ini config file")
	flags.StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	calculator.BindFlags(flags)

	load := func(cmd *cobra.Command) (calculator.Config, error) {
		return calculator.Load(cfgPath, cmd.Flags())
	}

	solve := &cobra.Command{
		Use:   "solve",
		Short: "Solve the rod and print the nodal temperatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			res, err := runSolve(cfg)
			if err != nil {
				return err
			}
			return report.Print(cmd.OutOrStdout(), cfg, res)
		},
	}
	root.RunE = solve.RunE

	var watch bool
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Push temperature fields to websocket clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			if err := cfg.CheckLimits(); err != nil {
				return err
			}
			reload := func() (calculator.Config, error) { return load(cmd) }
			return runServe(cmd.Context(), cfg, cfgPath, watch, reload)
		},
	}
	serve.Flags().BoolVar(&watch, "watch", false, "re-solve and push when the config file changes")

	var out string
	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "Render the temperature profile to an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load(cmd)
			if err != nil {
				return err
			}
			res, err := runSolve(cfg)
			if err != nil {
				return err
			}
			if err := report.SavePlot(res, out); err != nil {
				return err
			}
			log.WithField("path", out).Info("温度曲线已保存")
			return nil
		},
	}
	plotCmd.Flags().StringVar(&out, "out", "profile.png", "output image, format taken from the extension")

	root.AddCommand(solve, serve, plotCmd)
	return root
}

func runSolve(cfg calculator.Config) (*calculator.Result, error) {
	c, err := calculator.NewCalculator(cfg)
	if err != nil {
		return nil, err
	}
	return c.Solve()
}

func runServe(ctx context.Context, cfg calculator.Config, cfgPath string, watch bool, reload func() (calculator.Config, error)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	s := server.NewServer(cfg.Addr, upgrader, cfg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Serve(ctx) })
	if watch {
		w := server.NewWatcher(cfgPath, 200*time.Millisecond, reload, s.Reload)
		g.Go(func() error { return w.Run(ctx) })
	}
	return g.Wait()
}
