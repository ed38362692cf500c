package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/pipeline"
)

// routesFlags holds flags for the routes command.
type routesFlags struct {
	docFlags
	cache    cacheFlags
	fromPlan bool
	format   string
	output   string
	detailed bool
	collapse bool
}

// routesCommand creates the routes command.
func (c *CLI) routesCommand() *cobra.Command {
	flags := routesFlags{}

	cmd := &cobra.Command{
		Use:   "routes [document|plan.json]",
		Short: "Render the routing graph of a plan",
		Long: `Render the routing graph of a plan: one node per region that holds
entries, one edge per entry forwarded from one region to a later one,
labeled and colored by why it moved (overflow, split, move, sibling, carry).

The input is a document, which is paginated first, or with --plan a plan
written by "pageflow paginate".`,
		Example: `  pageflow routes report.toml -f svg -o routes.svg
  pageflow routes --plan report.plan.json --collapse`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoutes(cmd, args[0], flags)
		},
	}

	flags.docFlags.register(cmd)
	flags.cache.register(cmd)
	cmd.Flags().BoolVar(&flags.fromPlan, "plan", false, "input is a plan JSON file")
	cmd.Flags().StringVarP(&flags.format, "format", "f", pipeline.FormatDOT, "output format: dot, svg, png")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "add region usage to node labels")
	cmd.Flags().BoolVar(&flags.collapse, "collapse", false, "merge parallel edges")

	return cmd
}

func (c *CLI) runRoutes(cmd *cobra.Command, path string, flags routesFlags) error {
	ctx := cmd.Context()

	format := strings.ToLower(flags.format)
	if format == pipeline.FormatJSON {
		return fmt.Errorf("routes renders graphs; use \"pageflow paginate\" for the JSON plan")
	}

	opts, err := flags.options()
	if err != nil {
		return err
	}
	opts.Formats = []string{format}
	opts.Detailed = flags.detailed
	opts.Collapse = flags.collapse
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}

	var plan layout.Plan
	if flags.fromPlan {
		plan, err = document.ReadPlanFile(path)
		if err != nil {
			return err
		}
	} else {
		doc, err := c.loadDocument(path)
		if err != nil {
			return err
		}
		runner, err := c.newRunner(ctx, flags.cache)
		if err != nil {
			return err
		}
		defer runner.Close()
		if plan, err = runner.Paginate(ctx, doc, opts); err != nil {
			return err
		}
	}

	artifacts, err := pipeline.Render(ctx, plan, opts)
	if err != nil {
		return err
	}
	data := artifacts[format]

	if flags.output == "" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(flags.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", flags.output, err)
	}
	printSuccess("Rendered %d routes across %d pages", len(plan.Routes), plan.PageCount())
	printFile(flags.output)
	return nil
}
