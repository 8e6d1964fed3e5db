package webhook

import (
	"fmt"

	"github.com/mattjoyce/frontctl/internal/config"
)

// FromConfig resolves the YAML webhook section into a server Config,
// parsing body size limits and applying the default signature header.
func FromConfig(wc config.WebhooksConfig) (Config, error) {
	cfg := Config{
		Listen:    wc.Listen,
		Endpoints: make([]EndpointConfig, 0, len(wc.Endpoints)),
	}

	for i, ep := range wc.Endpoints {
		if ep.Secret == "" {
			return Config{}, fmt.Errorf("endpoint %d (%s): secret is required", i, ep.Path)
		}
		maxBody, err := config.ParseByteSize(ep.MaxBodySize)
		if err != nil {
			return Config{}, fmt.Errorf("endpoint %d (%s): max_body_size: %w", i, ep.Path, err)
		}
		header := ep.SignatureHeader
		if header == "" {
			header = config.DefaultSignatureHeader
		}
		cfg.Endpoints = append(cfg.Endpoints, EndpointConfig{
			Path:            ep.Path,
			Command:         ep.Command,
			Secret:          ep.Secret,
			SignatureHeader: header,
			MaxBodySize:     maxBody,
		})
	}
	return cfg, nil
}
