package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mapknowledge/pkg/buildinfo"
	"github.com/matzehuels/mapknowledge/pkg/graphdb"
	"github.com/matzehuels/mapknowledge/pkg/observability"
	"github.com/matzehuels/mapknowledge/pkg/server"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		flags runnerFlags
		addr  string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve knowledge lookups over HTTP",
		Long: `Serve knowledge lookups over HTTP.

  GET  /knowledge/{entity}   one record (?source=, ?refresh=true)
  POST /knowledge            bulk load {"entities": [...]}
  GET  /sources              stored knowledge sources
  GET  /sources/{source}     every stored record of a source
  GET  /metrics              Prometheus metrics
  GET  /healthz              liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			metrics := observability.NewCollector(appName)
			observability.SetPipelineHooks(metrics)
			observability.SetCacheHooks(metrics)
			observability.SetHTTPHooks(metrics)
			defer observability.Reset()

			runner, closer, err := c.newRunner(ctx, flags)
			if err != nil {
				return err
			}
			defer closer()

			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			s := server.New(server.Options{
				Runner:         runner,
				Metrics:        metrics,
				AllowedOrigins: c.cfg.Server.AllowedOrigins,
				Concurrency:    c.cfg.Concurrency,
				Logger:         loggerFromContext(ctx),
			})
			return s.ListenAndServe(ctx, addr)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// cypherCommand creates the cypher command.
func (c *CLI) cypherCommand() *cobra.Command {
	var (
		useNeo4j bool
		noCache  bool
		output   string
	)
	cmd := &cobra.Command{
		Use:   "cypher <query>",
		Short: "Run a Cypher query and print the result as a blob",
		Long: `Run a Cypher query against SciGraph and print the nodes and edges it
returns as a blob.

The query goes to the SciCrunch API of the configured release, or with
--neo4j directly to the graph database in the [neo4j] config section.`,
		Example: `  mapknowledge cypher 'MATCH (p)-[i:build:id]-(), (p)-[e]-() RETURN i, e'
  mapknowledge cypher --neo4j 'MATCH (n {iri: "http://purl.obolibrary.org/obo/UBERON_0001255"}) RETURN n'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var data []byte
			if useNeo4j {
				db, err := graphdb.New(ctx, graphdb.Options{
					URI:      c.cfg.Neo4j.URI,
					User:     c.cfg.Neo4j.User,
					Password: c.cfg.Neo4j.Password,
					Database: c.cfg.Neo4j.Database,
					Logger:   loggerFromContext(ctx),
				})
				if err != nil {
					return err
				}
				defer func() {
					sctx, cancel := shutdown(ctx)
					defer cancel()
					_ = db.Close(sctx)
				}()
				b, err := db.Query(ctx, args[0], nil)
				if err != nil {
					return err
				}
				if data, err = marshalIndent(b); err != nil {
					return err
				}
			} else {
				client, ch, err := c.newClient(ctx, noCache, false)
				if err != nil {
					return err
				}
				defer ch.Close()
				b, err := client.Query(ctx, args[0], nil)
				if err != nil {
					return err
				}
				if data, err = marshalIndent(b); err != nil {
					return err
				}
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().BoolVar(&useNeo4j, "neo4j", false, "query the configured Neo4j database directly")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the HTTP response cache")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// versionCommand creates the version command.
func (c *CLI) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}
