// Package count computes one word frequency list from the command line.
package count

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/RCarmona53/amazon-word-cloud/internal/app"
	"github.com/RCarmona53/amazon-word-cloud/internal/common"
	"github.com/RCarmona53/amazon-word-cloud/models"
	"github.com/RCarmona53/amazon-word-cloud/pkg/mapreduce"
	"github.com/RCarmona53/amazon-word-cloud/pkg/pipeline"
	"github.com/RCarmona53/amazon-word-cloud/pkg/storage"
)

// Exit codes returned by the count command.
const (
	ExitFailed        = 1
	ExitInvalidInput  = 2
	ExitNoDescription = 3
	ExitDuplicate     = 4
)

func CountAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"), c.Bool("debug"))

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitInvalidInput)
	}
	if c.IsSet("limit") {
		cfg.Rank.Limit = c.Int("limit")
	}
	if c.IsSet("policy") {
		cfg.Cache.Policy = c.String("policy")
		if err := cfg.Validate(); err != nil {
			return cli.Exit(err.Error(), ExitInvalidInput)
		}
	}

	a, err := app.New(c.Context, cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), ExitFailed)
	}
	defer a.Close()

	result, err := a.Service.WordFrequency(c.Context, c.String("url"))
	if err != nil {
		return cli.Exit(err.Error(), exitCode(err))
	}

	data, err := common.Marshal(result, c.String("format"), func() string {
		return formatText(result.WordFrequency)
	})
	if err != nil {
		return cli.Exit(err.Error(), ExitInvalidInput)
	}

	if out := c.String("output"); out != "" {
		s := &storage.Storage{}
		if err := s.SaveFile(out, data); err != nil {
			return cli.Exit(err.Error(), ExitFailed)
		}
		fmt.Fprintf(os.Stderr, "Wrote %d words to %s\n", len(result.WordFrequency), out)
		return nil
	}

	fmt.Fprint(c.App.Writer, string(data))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(c.App.Writer)
	}
	return nil
}

func formatText(list models.RankedList) string {
	var sb strings.Builder
	for _, line := range mapreduce.TopKeywords(list) {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidInput):
		return ExitInvalidInput
	case errors.Is(err, pipeline.ErrNoDescription):
		return ExitNoDescription
	case errors.Is(err, pipeline.ErrDuplicateRequest):
		return ExitDuplicate
	default:
		return ExitFailed
	}
}
