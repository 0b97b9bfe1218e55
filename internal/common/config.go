package common

import (
	"github.com/urfave/cli/v2"

	"github.com/RCarmona53/amazon-word-cloud/models"
)

// LoadConfig reads --config. The default path may be absent; an explicit
// one must exist.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	path := c.String("config")
	if path == "" {
		path = models.DefaultConfigPath
	}
	return models.LoadConfig(path, !c.IsSet("config"))
}
