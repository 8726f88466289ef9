package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/markamp/markamp/internal/app"
	"github.com/markamp/markamp/internal/config"
	"github.com/markamp/markamp/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath  string
	pluginDirs  []string
	logLevel    string
	metricsAddr string
	tick        time.Duration
}

func (g *globalFlags) options(out io.Writer) app.Options {
	return app.Options{
		ConfigPath:  g.configPath,
		PluginPaths: g.pluginDirs,
		LogLevel:    g.logLevel,
		LogOutput:   out,
		MetricsAddr: g.metricsAddr,
		Tick:        g.tick,
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "markamp",
		Short:         "MarkAmp core host: event bus and plugin runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flags.logLevel != "" && !logging.ValidLevel(flags.logLevel) {
				return fmt.Errorf("invalid log level %q (use debug, info, warn or error)", flags.logLevel)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "settings file (default "+config.DefaultPath()+")")
	pf.StringSliceVar(&flags.pluginDirs, "plugins-dir", nil, "extension search path (repeatable)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(flags),
		newPluginsCmd(flags),
		newConfigCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Start the host and open files",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd.ErrOrStderr())
			opts.WatchConfig = !noWatch

			application, err := app.New(opts)
			if err != nil {
				return err
			}
			defer application.Close()

			for _, path := range args {
				if err := application.OpenFile(path); err != nil {
					application.Logger().Warn("%v", err)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return application.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().DurationVar(&flags.tick, "tick", 0, "main loop interval (default 16ms)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload settings when the file changes")
	return cmd
}

func newPluginsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect discovered extensions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List discovered extensions and their activation events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(flags.options(io.Discard))
			if err != nil {
				return err
			}
			defer application.Close()

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVERSION\tACTIVATION\tDEPENDENCIES")
			for _, info := range application.Plugins().Infos() {
				activation := strings.Join(info.ActivationEvents, ",")
				if activation == "" {
					activation = "*"
				}
				deps := strings.Join(info.Dependencies, ",")
				if deps == "" {
					deps = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", info.ID, info.Version, activation, deps)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for _, ext := range application.Loader().Errors() {
				fmt.Fprintf(out, "error: %s: %v\n", ext.Path, ext.Error)
			}
			return nil
		},
	}

	deps := &cobra.Command{
		Use:   "deps <id>",
		Short: "Print the dependency activation order of an extension",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(flags.options(io.Discard))
			if err != nil {
				return err
			}
			defer application.Close()

			plugins := application.Plugins()
			order, err := plugins.ResolveDependencies(args[0])
			if err != nil {
				return err
			}
			id := args[0]
			if p, ok := plugins.Get(id); ok {
				id = p.Manifest().ID
			}
			out := cmd.OutOrStdout()
			for _, dep := range order {
				fmt.Fprintln(out, dep)
			}
			fmt.Fprintln(out, id)
			return nil
		},
	}

	cmd.AddCommand(list, deps)
	return cmd
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write settings",
	}

	load := func() (*config.Store, error) {
		path := flags.configPath
		if path == "" {
			path = config.DefaultPath()
		}
		return config.Load(path)
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				if !store.Has(args[0]) {
					return fmt.Errorf("%s: %w", args[0], config.ErrSettingNotFound)
				}
				fmt.Fprintln(out, store.GetString(args[0]))
				return nil
			}
			for _, key := range store.Keys() {
				fmt.Fprintf(out, "%s = %s\n", key, store.GetString(key))
			}
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Write a setting to the settings file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := load()
			if err != nil {
				return err
			}
			store.Set(args[0], config.ParseValue(args[1]))
			return store.Save()
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the settings file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := flags.configPath
			if p == "" {
				p = config.DefaultPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(get, set, path)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "MarkAmp %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Built: %s\n", date)
		},
	}
}
