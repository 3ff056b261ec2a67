package main

import (
	"context"
	"os"

	"sigs.k8s.io/controller-runtime/pkg/client"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/tonyjoanes/gopher-doctor/api/v1alpha1"
	"github.com/tonyjoanes/gopher-doctor/internal/config"
	"github.com/tonyjoanes/gopher-doctor/internal/doctor"
	"github.com/tonyjoanes/gopher-doctor/internal/github"
	"github.com/tonyjoanes/gopher-doctor/internal/kube"
	"github.com/tonyjoanes/gopher-doctor/internal/llm"
	"github.com/tonyjoanes/gopher-doctor/internal/notify"
	"github.com/tonyjoanes/gopher-doctor/internal/render"
)

// newPlugin loads the config and builds the doctor with its reporters.
func newPlugin(ctx context.Context, secrets *kube.SecretReader) (*doctor.Plugin, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	opts := []doctor.Option{
		doctor.WithSecretReader(secrets),
		doctor.WithLogger(logf.Log.WithName("gopherdoctor")),
	}
	if noColor || os.Getenv("NO_COLOR") != "" {
		opts = append(opts, doctor.WithPalette(render.PlainPalette()))
	}
	if noTypewriter {
		opts = append(opts, doctor.WithPacing(doctor.Pacing{}))
	}

	reporters, err := buildReporters(ctx, &cfg.Report, secrets)
	if err != nil {
		return nil, err
	}
	opts = append(opts, doctor.WithReporters(reporters...))

	return doctor.New(cfg, opts...)
}

// newSecretReader connects to Kubernetes only when a secret is first read.
func newSecretReader() *kube.SecretReader {
	return kube.NewSecretReader(namespace, func() (client.Client, error) {
		c, err := kube.NewClients()
		if err != nil {
			return nil, err
		}
		return c.Ctrl, nil
	})
}

// buildReporters resolves reporter credentials up front so that a bad token
// reference fails before the build runs.
func buildReporters(ctx context.Context, spec *v1alpha1.ReportSpec, secrets llm.SecretReader) ([]doctor.Reporter, error) {
	var out []doctor.Reporter

	if gh := spec.GitHub; gh != nil {
		token, err := secretValue(ctx, secrets, gh.Token, gh.TokenFrom, "token")
		if err != nil {
			return nil, err
		}
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		c, err := github.NewCommentClient(token, gh.Repo, gh.Number, gh.BaseURL)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	if wh := spec.Webhook; wh != nil {
		url, err := secretValue(ctx, secrets, wh.URL, wh.URLFrom, "webhookUrl")
		if err != nil {
			return nil, err
		}
		out = append(out, notify.NewNotificationClient(url))
	}
	return out, nil
}

func secretValue(ctx context.Context, secrets llm.SecretReader, inline string, ref *v1alpha1.SecretKeySelector, defaultKey string) (string, error) {
	if inline != "" || ref == nil {
		return inline, nil
	}
	key := ref.Key
	if key == "" {
		key = defaultKey
	}
	return secrets.ReadSecretKey(ctx, ref.Namespace, ref.Name, key)
}
