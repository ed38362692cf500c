package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/pkg/core/layout"
	"github.com/matzehuels/pageflow/pkg/document"
)

// keysFlags holds flags for the keys command.
type keysFlags struct {
	docFlags
	cache   cacheFlags
	missing bool
	asJSON  bool
}

// keysCommand creates the keys command.
func (c *CLI) keysCommand() *cobra.Command {
	flags := keysFlags{}

	cmd := &cobra.Command{
		Use:   "keys [document]",
		Short: "List the measurement keys a document needs",
		Long: `List every measurement key the document's content requires: one block
key per block, one key per list segment the planner may place, and one
metadata key per list with introductory content.

Feed measured heights back into the document's measurements table to
replace estimates.`,
		Example: `  pageflow keys report.toml
  pageflow keys report.toml --missing --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runKeys(cmd, args[0], flags)
		},
	}

	flags.docFlags.register(cmd)
	flags.cache.register(cmd)
	cmd.Flags().BoolVar(&flags.missing, "missing", false, "only list keys without a measurement")
	cmd.Flags().BoolVar(&flags.asJSON, "json", false, "print keys as a JSON array")

	return cmd
}

func (c *CLI) runKeys(cmd *cobra.Command, path string, flags keysFlags) error {
	ctx := cmd.Context()

	doc, err := c.loadDocument(path)
	if err != nil {
		return err
	}
	opts, err := flags.options()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	keys, hit, err := runner.RequiredKeysWithCacheInfo(ctx, doc, opts)
	if err != nil {
		return err
	}
	c.Logger.Debug("required keys", "count", len(keys), "cached", hit)

	if flags.missing {
		keys = missingKeys(keys, doc)
	}

	if flags.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(keys)
	}
	for _, k := range keys {
		fmt.Fprintln(stdout, k.String())
	}
	return nil
}

// missingKeys filters keys down to those without a positive measurement in
// doc. Later measurements of the same key win, as in the engine.
func missingKeys(keys []layout.MeasurementKey, doc *document.Document) []layout.MeasurementKey {
	known := make(layout.Measurements, len(doc.Measurements))
	for _, m := range doc.Measurements {
		known[m.Key] = m.Height
	}
	var out []layout.MeasurementKey
	for _, k := range keys {
		if _, ok := known.Lookup(k); !ok {
			out = append(out, k)
		}
	}
	return out
}
