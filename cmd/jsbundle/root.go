package main

import (
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/compilation"
	"github.com/wippyai/jsbundle/config"
	"github.com/wippyai/jsbundle/linker"
)

// app carries state shared by the subcommands once the root has loaded
// the configuration.
type app struct {
	cfgFile string
	envFile string
	cfg     *config.Config
	log     *zap.Logger
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "jsbundle",
		Short: "Resolve export usage and generate code for a module graph",
		Long: titleStyle.Render("jsbundle") + `

jsbundle reads a manifest describing modules, runtimes and the
dependencies extracted from each module, resolves which exports every
runtime uses, assigns final export names and generates the code of each
module.

Examples:
  jsbundle build app.toml                 Print generated code
  jsbundle build app.toml --runtime web   Only the web runtime
  jsbundle explain app.toml               Browse usage interactively
  jsbundle affected app.toml --changed ./lib.js`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.load,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./jsbundle.{toml,yaml,json})")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file with JSBUNDLE_ variables")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "console", "log format (console, json)")

	root.AddCommand(newBuildCommand(a))
	root.AddCommand(newExplainCommand(a))
	root.AddCommand(newAffectedCommand(a))
	return root
}

// load reads the configuration and installs the logger for the command
// about to run.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Context(), config.LoadOptions{
		File:    a.cfgFile,
		EnvFile: a.envFile,
		Flags:   cmd.Flags(),
	})
	if err != nil {
		return err
	}
	log, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	linker.SetLogger(log.Named("linker"))
	compilation.SetLogger(log.Named("compilation"))
	return nil
}
