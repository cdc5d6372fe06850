// Package main provides the split CLI: it runs Split layer scenarios and
// prints the resulting input gradients and conservation totals.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/born-ml/fanout/internal/diagnostics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

const version = "v0.1.0-dev"

// Sink names accepted by --sink.
const (
	sinkZap  = "zap"
	sinkKlog = "klog"
	sinkNone = "none"
)

type options struct {
	verbose bool
	sink    string
	files   []string
	logger  *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "split",
		Short: "Run fan-out (Split) layer scenarios",
		Long: `split drives a Split layer through Reshape, Forward and one of its
backward policies, then prints the input gradient and the conservation totals
(branch 0, branch 1, input) reported by the attribution policies.

Policies:
  accumulate     input grad = sum of all branch grads
  conservation   same sum, totals reported to the diagnostics sink
  select         input grad = grad of branch 0 or 1, totals reported`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config := zap.NewProductionConfig()
			if opts.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			opts.logger, err = config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
			klog.Flush()
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.sink, "sink", sinkZap,
		fmt.Sprintf("Conservation report sink: %s, %s or %s", sinkZap, sinkKlog, sinkNone))

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	klogFlags.VisitAll(func(f *flag.Flag) {
		// -v is taken by --verbose; klog verbosity is exposed as --klog-v.
		if f.Name == "v" {
			f.Name = "klog-v"
		}
	})
	root.PersistentFlags().AddGoFlagSet(klogFlags)

	root.AddCommand(newVersionCmd(), newDemoCmd(opts), newRunCmd(opts))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "fanout split %s\n", version)
		},
	}
}

// reportSink builds the diagnostics sink selected by --sink.
func (o *options) reportSink() (diagnostics.Sink, error) {
	switch o.sink {
	case sinkZap:
		return diagnostics.NewZapSink(o.logger).WithLevel(zapcore.InfoLevel), nil
	case sinkKlog:
		return diagnostics.NewKlogSink(0), nil
	case sinkNone:
		return diagnostics.Nop(), nil
	default:
		return nil, fmt.Errorf("unknown sink %q (want %s, %s or %s)", o.sink, sinkZap, sinkKlog, sinkNone)
	}
}
