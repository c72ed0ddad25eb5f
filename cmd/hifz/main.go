// Package main is the hifz command line: enroll learners, record daily
// recitation and print progress reports against the configured store.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/config"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/internal/app"
	"github.com/ubaid215/Jamia-abi-bakr-portals-sub000/pkg/timeutil"
)

// cli holds the state shared by subcommands. The container is built lazily
// in PersistentPreRunE so that --help works without a database.
type cli struct {
	configFile string
	verbose    bool
	out        io.Writer

	cfg       *config.Config
	container *app.Container
	handlers  *app.Handlers
}

func main() {
	c := &cli{out: os.Stdout}
	defer c.close()

	if err := newRootCmd(c).ExecuteContext(context.Background()); err != nil {
		c.close()
		os.Exit(1)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "hifz",
		Short:        "Track Quran memorization progress",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&c.configFile, "config", os.Getenv("HIFZ_CONFIG_FILE"), "path to a TOML config file")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		newMigrateCmd(c),
		newEnrollCmd(c),
		newRecordCmd(c),
		newUpdateRecordCmd(c),
		newStatusCmd(c),
		newReportCmd(c),
		newWeeklyCmd(c),
	)
	return root
}

func (c *cli) init(ctx context.Context) error {
	c.close()

	file, err := config.LoadFile(c.configFile)
	if err != nil {
		return err
	}
	cfg, err := config.LoadWithFile(file)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	timeutil.SetLocation(cfg.App.Location)

	// Only warnings reach the terminal unless -v is given.
	obs := cfg.Observability
	obs.LogLevel = "warn"
	obs.LogFormat = "text"
	if c.verbose {
		obs.LogLevel = "debug"
	}

	log := app.SetupLogger(obs, os.Stderr)
	container, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := container.RegisterNotifications(nil); err != nil {
		container.Close()
		return err
	}

	c.cfg = cfg
	c.container = container
	c.handlers = container.Handlers(app.CommandLogger(log))
	return nil
}

func (c *cli) close() {
	if c.container != nil {
		c.container.Close()
		c.container = nil
	}
}
