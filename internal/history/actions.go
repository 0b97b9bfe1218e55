// Package history prints recorded request outcomes.
package history

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"

	"github.com/RCarmona53/amazon-word-cloud/internal/common"
	"github.com/RCarmona53/amazon-word-cloud/models"
	dbpkg "github.com/RCarmona53/amazon-word-cloud/pkg/db"
)

func HistoryAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if cfg.History.Path == "" {
		return cli.Exit("history is disabled (history.path is empty)", 2)
	}

	database, err := dbpkg.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	accesses, err := database.RecentAccesses(c.Context, c.String("url"), c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	data, err := common.Marshal(accesses, c.String("format"), func() string {
		return formatTable(accesses)
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	fmt.Fprint(c.App.Writer, string(data))
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(c.App.Writer)
	}
	return nil
}

func formatTable(accesses []models.Access) string {
	if len(accesses) == 0 {
		return "No requests recorded\n"
	}

	t := table.NewWriter()
	t.AppendHeader(table.Row{"Accessed", "Outcome", "Error", "Words", "Lang", "URL"})
	for _, a := range accesses {
		t.AppendRow(table.Row{shortTime(a.AccessedAt), a.Outcome, dash(a.ErrorType), a.WordCount, dash(a.Language), a.URL})
	}
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d requests", len(accesses))})
	t.SetStyle(table.StyleRounded)
	return t.Render() + "\n"
}

func shortTime(ts string) string {
	ts = strings.Replace(ts, "T", " ", 1)
	if len(ts) > 19 {
		ts = ts[:19]
	}
	return ts
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
