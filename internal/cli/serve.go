package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/pageflow/internal/server"
	"github.com/matzehuels/pageflow/pkg/buildinfo"
	"github.com/matzehuels/pageflow/pkg/document"
	"github.com/matzehuels/pageflow/pkg/observability"
	"github.com/matzehuels/pageflow/pkg/store"
)

// serveFlags holds flags for the serve command.
type serveFlags struct {
	addr       string
	paramsFile string
	mongoURI   string
	mongoDB    string
	dataDir    string
	noStore    bool
	verify     bool
}

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	flags := serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout server",
		Long: `Run the HTTP layout server. Clients create a document, stream
measurements and region heights, and commit plans as they settle.
Committed plans are saved as snapshots in MongoDB (--mongo) or on disk.`,
		Example: `  pageflow serve --addr :8080
  pageflow serve --mongo mongodb://localhost:27017 --params defaults.toml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&flags.paramsFile, "params", "", "TOML file with default layout parameters")
	cmd.Flags().StringVar(&flags.mongoURI, "mongo", os.Getenv("PAGEFLOW_MONGO_URI"), "MongoDB URI for snapshots")
	cmd.Flags().StringVar(&flags.mongoDB, "mongo-db", "", "MongoDB database (default: pageflow)")
	cmd.Flags().StringVar(&flags.dataDir, "data-dir", "", "snapshot directory when MongoDB is not used")
	cmd.Flags().BoolVar(&flags.noStore, "no-store", false, "do not persist snapshots")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "verify plan invariants on every pass")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg := server.Config{
		Logger:   c.Logger,
		Counters: observability.NewCounters(),
		Debug:    flags.verify,
	}
	if flags.paramsFile != "" {
		p, err := document.ReadParamsFile(flags.paramsFile)
		if err != nil {
			return err
		}
		cfg.Params = p
	}

	st, err := c.openStore(ctx, flags)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
		cfg.Store = st
	}

	printInfo("pageflow %s listening on %s", buildinfo.Short(), StyleHighlight.Render(flags.addr))
	return server.New(cfg).ListenAndServe(ctx, flags.addr)
}

// openStore picks the snapshot backend: MongoDB, then the data directory.
// It returns nil when persistence is disabled.
func (c *CLI) openStore(ctx context.Context, flags serveFlags) (store.Store, error) {
	switch {
	case flags.noStore:
		return nil, nil
	case flags.mongoURI != "":
		c.Logger.Info("snapshot store", "backend", "mongo", "database", flags.mongoDB)
		return store.NewMongoStore(ctx, store.MongoOptions{URI: flags.mongoURI, Database: flags.mongoDB})
	}
	dir := flags.dataDir
	if dir == "" {
		base, err := dataDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "snapshots")
	}
	c.Logger.Info("snapshot store", "backend", "file", "dir", dir)
	return store.NewFileStore(dir)
}
