package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/pkg/pipeline"
)

// paginateFlags holds flags for the paginate command.
type paginateFlags struct {
	docFlags
	cache    cacheFlags
	output   string
	formats  string
	verify   bool
	refresh  bool
	detailed bool
	collapse bool
}

// paginateCommand creates the paginate command.
func (c *CLI) paginateCommand() *cobra.Command {
	flags := paginateFlags{}

	cmd := &cobra.Command{
		Use:   "paginate [document]",
		Short: "Paginate a document and write its plan",
		Long: `Paginate a document (JSON or TOML) into pages and columns.

Measurements carried by the document are used as-is; every other height is
estimated. Output formats are json (the plan), dot, svg and png (the
routing graph of entries forwarded between regions).`,
		Example: `  pageflow paginate report.toml
  pageflow paginate report.toml -f json,svg -o out/report
  pageflow paginate report.json --params tight.toml --verify`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPaginate(cmd, args[0], flags)
		},
	}

	flags.docFlags.register(cmd)
	flags.cache.register(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output path (extension is replaced per format)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", pipeline.FormatJSON, "output formats: json, dot, svg, png (comma-separated)")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "check plan invariants and fail on violations")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "ignore cached plans and artifacts")
	cmd.Flags().BoolVar(&flags.detailed, "detailed", false, "add region usage to routing graph labels")
	cmd.Flags().BoolVar(&flags.collapse, "collapse", false, "merge parallel routing graph edges")

	return cmd
}

func (c *CLI) runPaginate(cmd *cobra.Command, path string, flags paginateFlags) error {
	ctx := cmd.Context()

	doc, err := c.loadDocument(path)
	if err != nil {
		return err
	}

	opts, err := flags.options()
	if err != nil {
		return err
	}
	opts.Formats = parseFormats(flags.formats)
	opts.Verify = flags.verify
	opts.Refresh = flags.refresh
	opts.Detailed = flags.detailed
	opts.Collapse = flags.collapse
	if err := pipeline.ValidateFormats(opts.Formats); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, os.Stderr, "Paginating "+filepath.Base(path)+"...")
	spinner.Start()
	result, err := runner.Execute(ctx, doc, opts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Pagination complete")

	printSuccess("Paginated %s", StyleHighlight.Render(filepath.Base(path)))
	printStats(result.Stats.Pages, result.Stats.Entries, result.Stats.Estimated, result.CacheInfo.PlanHit)
	for _, line := range diagnosticLines(result.Plan) {
		printWarning("%s", line)
	}

	paths, err := writeArtifacts(result.Artifacts, outputBase(path, flags.output), opts.Formats)
	if err != nil {
		return err
	}
	for _, p := range paths {
		printFile(p)
	}

	if len(missingKeys(result.RequiredKeys, doc)) > 0 {
		printNewline()
		printNextStep("List heights still to measure", "pageflow keys --missing "+path)
	}
	return nil
}

// outputBase derives the artifact path prefix. An explicit output keeps its
// directory and stem; otherwise artifacts sit next to the document.
func outputBase(docPath, output string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".plan"
}

// writeArtifacts writes each rendered format to base.<format>, in the
// order the formats were requested.
func writeArtifacts(artifacts map[string][]byte, base string, formats []string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	var paths []string
	for _, f := range formats {
		data, ok := artifacts[strings.ToLower(f)]
		if !ok {
			continue
		}
		p := base + "." + strings.ToLower(f)
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
