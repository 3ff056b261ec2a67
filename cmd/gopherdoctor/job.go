package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/client"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tonyjoanes/gopher-doctor/internal/kube"
)

var jobCmd = &cobra.Command{
	Use:   "job <name>",
	Short: "Diagnose a failed Kubernetes build Job",
	Long: `Collect the logs of a failed Job's containers and its Warning events,
and send them to the configured model. Nothing is printed for a Job that has
not failed.

Examples:
  gopherdoctor job build-1234 -n ci`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := logf.FromContext(ctx).WithName("job")

		clients, err := kube.NewClients()
		if err != nil {
			return err
		}
		secrets := kube.NewSecretReader(namespace, func() (client.Client, error) { return clients.Ctrl, nil })

		plugin, err := newPlugin(ctx, secrets)
		if err != nil {
			return err
		}

		f, err := kube.NewJobCollector(clients).Collect(logf.IntoContext(ctx, logger), namespace, args[0])
		if err != nil {
			return fmt.Errorf("collecting job %s/%s: %w", namespace, args[0], err)
		}
		plugin.BuildEnd(ctx, f)
		return nil
	},
}
