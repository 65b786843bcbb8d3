package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/jsbundle/compilation"
	"github.com/wippyai/jsbundle/manifest"
)

func newBuildCommand(a *app) *cobra.Command {
	var runtimes []string

	cmd := &cobra.Command{
		Use:   "build <manifest>",
		Short: "Resolve usage and print the generated code of every module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.build(cmd, args[0], runtimes)
		},
	}
	cmd.Flags().StringSliceVarP(&runtimes, "runtime", "r", nil, "runtimes to build (default all)")
	cmd.Flags().String("mangle", "deterministic", "export mangling (off, size, deterministic)")
	cmd.Flags().Bool("concatenate", false, "inline single-host modules into their host")
	cmd.Flags().Bool("library", false, "keep every export of entry modules")
	cmd.Flags().Int("parallelism", 0, "concurrent code generation invocations")
	cmd.Flags().Bool("metrics", false, "print prometheus metrics to stderr after the build")
	return cmd
}

func (a *app) build(cmd *cobra.Command, path string, runtimes []string) error {
	ctx := cmd.Context()

	g, err := manifest.Load(ctx, path)
	if err != nil {
		return err
	}

	opts := a.cfg.CompilationOptions()
	opts.Runtimes = runtimes

	var reg *prometheus.Registry
	options := []compilation.Option{compilation.WithLogger(a.log.Named("compilation"))}
	if a.cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		options = append(options, compilation.WithRegisterer(reg))
	}

	c, err := compilation.New(g, opts, options...)
	if err != nil {
		return err
	}
	if err := c.Seal(ctx); err != nil {
		return err
	}
	if missing := c.MissingExports(); missing != nil {
		fmt.Fprintln(a.stderr, warningStyle.Render("Warning: ")+missing.Error())
	}

	results, err := c.CodeGeneration(ctx)
	if err != nil {
		return err
	}

	styled := isTerminal(a.stdout)
	for _, r := range results.All() {
		writeHeader(a.stdout, r.Module, r.Runtime, styled)
		io.WriteString(a.stdout, r.Source)
		if !strings.HasSuffix(r.Source, "\n") {
			io.WriteString(a.stdout, "\n")
		}
	}
	a.log.Info("build finished",
		zap.String("manifest", path),
		zap.Int("modules", g.Len()),
		zap.Int("results", results.Len()))

	if reg != nil {
		return writeMetrics(a.stderr, reg)
	}
	return nil
}

func writeHeader(w io.Writer, module, rt string, styled bool) {
	if !styled {
		fmt.Fprintf(w, "// %s [%s]\n", module, rt)
		return
	}
	fmt.Fprintf(w, "%s %s\n", moduleStyle.Render("// "+module), runtimeStyle.Render("["+rt+"]"))
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
