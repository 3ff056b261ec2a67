package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tonyjoanes/gopher-doctor/internal/failure"
)

var runCmd = &cobra.Command{
	Use:   "run -- <command> [args...]",
	Short: "Run a build command and diagnose it if it fails",
	Long: `Run a build command, streaming its output. If it exits non-zero, the
captured output is sent to the configured model and the advice is printed.
gopherdoctor then exits with the build's own exit status.

Examples:
  gopherdoctor run -- go build ./...
  gopherdoctor run --no-typewriter -- make test`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := logf.FromContext(ctx).WithName("run")

	plugin, err := newPlugin(ctx, newSecretReader())
	if err != nil {
		return err
	}

	build := &failure.Command{
		Name:   args[0],
		Args:   args[1:],
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	res, err := build.Run(ctx)
	if err != nil {
		// The command never started: diagnose that instead.
		logger.Error(err, "build command did not start")
		plugin.BuildEnd(ctx, &failure.Failure{
			Message: err.Error(),
			ID:      args[0],
			Name:    "StartError",
		})
		return exitCode(127)
	}

	phase := plugin.BuildEnd(ctx, res.Failure)
	logger.V(1).Info("build finished", "exitCode", res.ExitCode, "phase", phase.String())
	if res.ExitCode != 0 {
		return exitCode(res.ExitCode)
	}
	return nil
}

func init() {
	// Everything after the build command belongs to the build.
	runCmd.Flags().SetInterspersed(false)
}
