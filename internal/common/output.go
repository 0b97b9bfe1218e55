package common

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Marshal encodes v as indented JSON or YAML. text renders the "text"
// format and may be nil when a command has no plain form.
func Marshal(v any, format string, text func() string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", "json":
		return json.MarshalIndent(v, "", "  ")
	case "yaml":
		return yaml.Marshal(v)
	case "text":
		if text == nil {
			return nil, fmt.Errorf("text output is not supported here")
		}
		return []byte(text()), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want json, yaml or text)", format)
	}
}
