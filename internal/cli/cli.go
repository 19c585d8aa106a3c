package cli

import (
	"cmp"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mapknowledge/pkg/buildinfo"
	"github.com/matzehuels/mapknowledge/pkg/cache"
	"github.com/matzehuels/mapknowledge/pkg/config"
	"github.com/matzehuels/mapknowledge/pkg/pipeline"
	"github.com/matzehuels/mapknowledge/pkg/scicrunch"
	"github.com/matzehuels/mapknowledge/pkg/store"
)

// appName is the application name used for directories and display.
const appName = "mapknowledge"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "mapknowledge derives neuron-path connectivity from SCKAN knowledge",
		Long: `mapknowledge simplifies ApiNATOMY knowledge-graph blobs into neuron-path
connectivity, looks up anatomical knowledge from SciCrunch and keeps it in a
local knowledge store for map servers.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.deblobCommand())
	root.AddCommand(c.connectivityCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.knowledgeCommand())
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.sourcesCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.cypherCommand())
	root.AddCommand(c.buildCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Factories
// =============================================================================

// newCache opens the configured response cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir := c.cfg.Cache.Dir
	if dir == "" && c.cfg.Cache.Backend == cache.BackendFile {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.Open(ctx, cache.Options{
		Backend:       c.cfg.Cache.Backend,
		Dir:           dir,
		RedisAddr:     c.cfg.Cache.RedisAddr,
		RedisPassword: c.cfg.Cache.RedisPassword,
		RedisDB:       c.cfg.Cache.RedisDB,
	})
}

// newClient creates a SciCrunch client over the configured cache.
func (c *CLI) newClient(ctx context.Context, noCache, refresh bool) (*scicrunch.Client, cache.Cache, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	var keyer cache.Keyer
	if c.cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.cfg.Cache.Prefix)
	}
	client := scicrunch.New(scicrunch.Options{
		Endpoint: c.cfg.SciCrunch.Endpoint,
		Release:  c.cfg.SciCrunch.Release,
		APIKey:   c.cfg.SciCrunch.APIKey,
		Timeout:  c.cfg.SciCrunch.Timeout.Duration,
		Cache:    ch,
		Keyer:    keyer,
		Refresh:  refresh,
		Logger:   c.Logger,
	})
	return client, ch, nil
}

// openStore opens the configured knowledge store.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, store.Options{
		Backend:       c.cfg.Store.Backend,
		Path:          c.cfg.Store.Path,
		MongoURI:      c.cfg.Store.MongoURI,
		MongoDatabase: c.cfg.Store.MongoDatabase,
	})
}

// runnerFlags are the flags shared by commands that look up knowledge.
type runnerFlags struct {
	noCache bool
	noStore bool
	refresh bool
	source  string
}

func (f *runnerFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the HTTP response cache")
	cmd.Flags().BoolVar(&f.noStore, "no-store", false, "do not read or write the knowledge store")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore stored and cached knowledge")
	cmd.Flags().StringVar(&f.source, "source", "", "knowledge source (default: current SCKAN release)")
}

func (f *runnerFlags) options(concurrency int, logger *log.Logger) pipeline.Options {
	return pipeline.Options{
		Source:      f.source,
		Refresh:     f.refresh,
		Concurrency: concurrency,
		Logger:      logger,
	}
}

// newRunner creates a pipeline runner for CLI use. The returned function
// releases the runner's cache and store.
func (c *CLI) newRunner(ctx context.Context, f runnerFlags) (*pipeline.Runner, func(), error) {
	client, ch, err := c.newClient(ctx, f.noCache, f.refresh)
	if err != nil {
		return nil, nil, err
	}
	var st store.Store
	if !f.noStore {
		st, err = c.openStore(ctx)
		if err != nil {
			ch.Close()
			return nil, nil, err
		}
	}
	closer := func() {
		if st != nil {
			if err := st.Close(); err != nil {
				c.Logger.Warn("close knowledge store", "error", err)
			}
		}
		ch.Close()
	}
	return pipeline.NewRunner(client, st, c.Logger), closer, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mapknowledge/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputPath returns the file next to input with its extension replaced by ext.
func outputPath(input, ext string) string {
	base := filepath.Base(input)
	name := cmp.Or(base[:len(base)-len(filepath.Ext(base))], "out")
	return filepath.Join(filepath.Dir(input), name+ext)
}
