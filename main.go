package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/RCarmona53/amazon-word-cloud/internal/count"
	"github.com/RCarmona53/amazon-word-cloud/internal/history"
	"github.com/RCarmona53/amazon-word-cloud/internal/serve"
	"github.com/RCarmona53/amazon-word-cloud/models"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	commonFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			Value:   models.DefaultConfigPath,
			EnvVars: []string{"WORDCLOUD_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Only log errors",
		},
		&cli.BoolFlag{
			Name:  "debug",
			Usage: "Log debug details",
		},
	}

	formatFlag := &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, yaml or text",
		Value:   "json",
	}

	return &cli.App{
		Name:  "wordcloud",
		Usage: "Rank the words of an Amazon product description",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API",
				Action: serve.ServeAction,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
				}, commonFlags...),
			},
			{
				Name:      "count",
				Usage:     "Compute the word frequency of one product page",
				UsageText: "wordcloud count --url https://www.amazon.com/dp/B000",
				Action:    count.CountAction,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Aliases:  []string{"u"},
						Usage:    "Product page URL",
						Required: true,
					},
					formatFlag,
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the result to a file instead of stdout",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Keep only the top N words (0 = all)",
					},
					&cli.StringFlag{
						Name:  "policy",
						Usage: "Cache policy: value, dedup or disabled",
					},
				}, commonFlags...),
			},
			{
				Name:   "history",
				Usage:  "List recorded requests",
				Action: history.HistoryAction,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "url",
						Usage: "Only show this URL",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum rows",
						Value: 20,
					},
					formatFlag,
				}, commonFlags...),
			},
		},
	}
}
