// Package main implements gopherdoctor, a build wrapper that asks an LLM to
// diagnose failed builds.
package main

import (
	"errors"
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	// Links the optional OpenAI provider.
	_ "github.com/tonyjoanes/gopher-doctor/internal/llm/openai"
)

var (
	// version information, set with -ldflags "-X main.version=..."
	version = "dev"

	configPath   string
	namespace    string
	verbose      bool
	noColor      bool
	noTypewriter bool

	zapOpts = zap.Options{}
)

// exitCode carries a wrapped build's exit status out of a command.
type exitCode int

func (e exitCode) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

func main() {
	if err := rootCmd.Execute(); err != nil {
		var code exitCode
		if errors.As(err, &code) {
			os.Exit(int(code))
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "gopherdoctor",
	Short: "Diagnose failed builds with an LLM",
	Long: `gopherdoctor runs your build and, when it fails, sends the error to a
language model and prints its remediation advice.

Configuration is read from .gopherdoctor.yaml (or --config) and
GOPHERDOCTOR_* environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default .gopherdoctor.yaml if present)")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "default", "Kubernetes namespace for jobs and secrets")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noTypewriter, "no-typewriter", false, "print output at once instead of one character at a time")

	// --kubeconfig from controller-runtime and the --zap-* logging flags.
	zapOpts.BindFlags(goflag.CommandLine)
	rootCmd.PersistentFlags().AddGoFlagSet(goflag.CommandLine)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// setupLogging sends logs to stderr so they never interleave with the
// diagnosis on stdout.
func setupLogging() {
	if verbose {
		zapOpts.Level = zapcore.DebugLevel
	}
	logf.SetLogger(zap.New(zap.UseFlagOptions(&zapOpts), zap.WriteTo(os.Stderr)))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gopherdoctor version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "gopherdoctor", version)
	},
}
