package config

import (
	"sigs.k8s.io/yaml"

	"github.com/tonyjoanes/gopher-doctor/api/v1alpha1"
)

// Redacted replaces secret values in Dump output.
const Redacted = "<redacted>"

// Dump renders cfg as YAML with API keys, tokens and webhook URLs redacted.
// cfg is not modified.
func Dump(cfg *v1alpha1.DoctorConfig) ([]byte, error) {
	c := *cfg
	if c.Model != nil {
		m := *c.Model
		m.APIKey = redact(m.APIKey)
		c.Model = &m
	}
	if c.Report.GitHub != nil {
		gh := *c.Report.GitHub
		gh.Token = redact(gh.Token)
		c.Report.GitHub = &gh
	}
	if c.Report.Webhook != nil {
		wh := *c.Report.Webhook
		wh.URL = redact(wh.URL)
		c.Report.Webhook = &wh
	}
	return yaml.Marshal(&c)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return Redacted
}
