package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/fusion"
)

type sourceConfigRecord struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	ConnectorAttributes json.RawMessage `json:"connectorAttributes"`
}

// GetFusionConfig loads the fusion configuration from the fusion source's
// connector attribute bag.
func (c *Client) GetFusionConfig(ctx context.Context, fusionSourceID string) (fusion.Config, error) {
	var src sourceConfigRecord
	path := fmt.Sprintf("/v3/sources/%s", url.PathEscape(fusionSourceID))
	if err := c.get(ctx, path, nil, &src); err != nil {
		return fusion.Config{}, fmt.Errorf("get fusion source config: %w", err)
	}

	var cfg fusion.Config
	if len(src.ConnectorAttributes) > 0 {
		if err := json.Unmarshal(src.ConnectorAttributes, &cfg); err != nil {
			return fusion.Config{}, fmt.Errorf("parse connector attributes of source %s: %w", fusionSourceID, err)
		}
	}
	cfg.FusionSourceID = src.ID
	return cfg, nil
}

// SetConnectorAttribute patches one connector attribute on a source.
func (c *Client) SetConnectorAttribute(ctx context.Context, sourceID, name string, value interface{}) error {
	ops := []PatchOp{{
		Op:    "replace",
		Path:  "/connectorAttributes/" + name,
		Value: value,
	}}
	path := fmt.Sprintf("/v3/sources/%s", url.PathEscape(sourceID))
	if err := c.patch(ctx, path, ops, nil); err != nil {
		return fmt.Errorf("patch connector attribute %s on source %s: %w", name, sourceID, err)
	}
	return nil
}
