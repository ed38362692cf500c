package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
)

// inspectFlags holds flags for the inspect command.
type inspectFlags struct {
	docFlags
	cache    cacheFlags
	fromPlan bool
	summary  bool
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	flags := inspectFlags{}

	cmd := &cobra.Command{
		Use:   "inspect [document|plan.json]",
		Short: "Browse a paginated document interactively",
		Long: `Browse a plan page by page: every placed entry with its column, key,
height and flags (estimated, metadata, continuation, continues on next
page). Estimated heights are highlighted.

Use --summary to print per-page usage without the interactive view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := c.loadPlan(cmd, args[0], flags)
			if err != nil {
				return err
			}
			if flags.summary {
				printPlanSummary(plan)
				return nil
			}
			_, err = tea.NewProgram(NewPlanModel(plan), tea.WithAltScreen()).Run()
			return err
		},
	}

	flags.docFlags.register(cmd)
	flags.cache.register(cmd)
	cmd.Flags().BoolVar(&flags.fromPlan, "plan", false, "input is a plan JSON file")
	cmd.Flags().BoolVar(&flags.summary, "summary", false, "print a summary instead of the interactive view")

	return cmd
}

// loadPlan reads a plan file or paginates a document.
func (c *CLI) loadPlan(cmd *cobra.Command, path string, flags inspectFlags) (layout.Plan, error) {
	if flags.fromPlan {
		return document.ReadPlanFile(path)
	}
	doc, err := c.loadDocument(path)
	if err != nil {
		return layout.Plan{}, err
	}
	opts, err := flags.options()
	if err != nil {
		return layout.Plan{}, err
	}
	runner, err := c.newRunner(cmd.Context(), flags.cache)
	if err != nil {
		return layout.Plan{}, err
	}
	defer runner.Close()
	return runner.Paginate(cmd.Context(), doc, opts)
}

func printPlanSummary(plan layout.Plan) {
	printKeyValue("Pages", fmt.Sprint(plan.PageCount()))
	printKeyValue("Columns", fmt.Sprint(plan.ColumnCount))
	printKeyValue("Region", fmt.Sprintf("%.1f", plan.RegionHeight))
	printKeyValue("Routes", fmt.Sprint(len(plan.Routes)))
	printKeyValue("Signature", plan.Signature)
	printNewline()
	rows := make([][]string, 0, len(plan.Pages))
	for _, page := range plan.Pages {
		entries := 0
		for _, col := range page.Columns {
			entries += len(col.Entries)
		}
		rows = append(rows, []string{fmt.Sprint(page.Number), fmt.Sprint(entries), usageLine(plan, page)})
	}
	printTable([]string{"Page", "Entries", "Usage"}, rows)
	for _, line := range diagnosticLines(plan) {
		printWarning("%s", line)
	}
}
