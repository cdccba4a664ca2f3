package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/vk/flowcalc/internal/app"
	"github.com/vk/flowcalc/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Flag names. Persistent flags map onto configuration keys.
const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
	FlagLogFile   = "log-file"
	FlagAddr      = "addr"
	FlagURL       = "url"
	FlagInsecure  = "insecure"
	FlagFormat    = "format"
)

var flagKeys = map[string]string{
	FlagConfig:    config.KeyConfigFile,
	FlagLogLevel:  "log.level",
	FlagLogFormat: "log.format",
	FlagLogFile:   "log.file",
	FlagAddr:      "server.addr",
	FlagURL:       "watch.url",
	FlagInsecure:  "watch.insecure_skip_verify",
}

// bindFlags binds every flag of fs that has a configuration key to v.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			_ = v.BindPFlag(key, f)
		}
	})
}

// command carries state shared by the root command and its subcommands.
type command struct {
	outW, errW io.Writer
	v          *viper.Viper
	cfg        *config.Config
}

// NewRootCmd builds the flowcalc command tree writing results to outW and
// logs to errW.
func NewRootCmd(outW, errW io.Writer) *cobra.Command {
	c := &command{outW: outW, errW: errW, v: config.NewViper()}

	root := &cobra.Command{
		Use:           "flowcalc",
		Short:         "flowcalc evaluates reactive calculator graphs",
		Long:          `flowcalc keeps a graph of numbers, functions and results consistent: every value change recomputes exactly the nodes downstream of it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.v)
			if err != nil {
				return usageError(err)
			}
			c.cfg = cfg
			return nil
		},
	}
	root.SetOut(outW)
	root.SetErr(errW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	root.PersistentFlags().String(FlagConfig, "", "Config file path (YAML, TOML or JSON)")
	root.PersistentFlags().String(FlagLogLevel, "", "Log level: debug, info, warn or error")
	root.PersistentFlags().String(FlagLogFormat, "", "Log format: text or json")
	root.PersistentFlags().String(FlagLogFile, "", "Write logs to a rotating file instead of stderr")
	bindFlags(c.v, root.PersistentFlags())

	root.AddCommand(c.newEvalCmd())
	root.AddCommand(c.newServeCmd())
	root.AddCommand(c.newWatchCmd())
	return root
}

// Execute runs the command line in args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCmd(outW, errW)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (c *command) newEvalCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "eval SHEET",
		Short: "Load a sheet and print every node's value",
		Long: `Load an HCL sheet (a file or a directory of .hcl files) or a JSON graph
record, evaluate it and print every node.`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(app.Formats, strings.ToLower(format)) {
				return usageError(fmt.Errorf("invalid --format %q: must be one of %v", format, app.Formats))
			}
			c.cfg.Sheet = args[0]
			return c.run(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Eval(ctx, format)
			})
		},
	}
	cmd.Flags().StringVarP(&format, FlagFormat, "f", app.FormatText, "Output format: text, json, hcl, dot or svg")
	return cmd
}

func (c *command) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [SHEET]",
		Short: "Serve the graph over HTTP and socket.io",
		Args:  maximumArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				c.cfg.Sheet = args[0]
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.run(ctx, func(ctx context.Context, a *app.App) error {
				return a.Serve(ctx)
			})
		},
	}
	cmd.Flags().String(FlagAddr, "", "Listen address (default :8080)")
	bindFlags(c.v, cmd.Flags())
	return cmd
}

func (c *command) newWatchCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print live value updates from a running server",
		Args:  maximumArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return usageError(fmt.Errorf("invalid --format %q: must be text or json", format))
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.run(ctx, func(ctx context.Context, a *app.App) error {
				return a.Watch(ctx, format)
			})
		},
	}
	cmd.Flags().String(FlagURL, "", "Server URL (default http://localhost:8080)")
	cmd.Flags().Bool(FlagInsecure, false, "Skip TLS certificate verification")
	cmd.Flags().StringVarP(&format, FlagFormat, "f", "text", "Output format: text or json")
	bindFlags(c.v, cmd.Flags())
	return cmd
}

// run builds the app from the loaded configuration and hands it to fn.
func (c *command) run(ctx context.Context, fn func(context.Context, *app.App) error) (err error) {
	a, err := app.NewApp(c.outW, c.errW, c.cfg)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return fn(ctx, a)
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}

func maximumArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return usageError(err)
		}
		return nil
	}
}
