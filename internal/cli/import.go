package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
	"github.com/matzehuels/mapknowledge/pkg/pgimport"
	"github.com/matzehuels/mapknowledge/pkg/store"
)

// latestSource returns the newest source in st.
func latestSource(cmd *cobra.Command, st store.Store) (string, error) {
	source, err := store.LatestSource(cmd.Context(), st)
	if err != nil {
		return "", err
	}
	if source == "" {
		return "", errors.New(errors.ErrCodeNotFound, "knowledge store is empty")
	}
	return source, nil
}

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import knowledge into the map knowledge database",
		Long: `Import a knowledge list into the PostgreSQL database used by map servers.

Everything previously imported from the list's source is replaced in one
transaction. The database is configured in the [postgres] section of the
config file, with KNOWLEDGE_HOST, KNOWLEDGE_USER and KNOWLEDGE_PASSWORD
overriding it.`,
	}
	cmd.AddCommand(c.importJSONCommand())
	cmd.AddCommand(c.importStoreCommand())
	return cmd
}

func (c *CLI) importJSONCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "json <knowledge.json>",
		Short: "Import a knowledge list file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := knowledge.ImportList(args[0])
			if err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", args[0])
			}
			return c.importList(cmd, l)
		},
	}
}

func (c *CLI) importStoreCommand() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Import a knowledge source from the knowledge store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if source == "" {
				if source, err = latestSource(cmd, st); err != nil {
					return err
				}
			}
			l, err := st.List(ctx, knowledge.CleanSource(source))
			if err != nil {
				return err
			}
			if len(l.Knowledge) == 0 {
				return errors.New(errors.ErrCodeNotFound, "no knowledge stored from source %q", source)
			}
			return c.importList(cmd, l)
		},
	}
	cmd.Flags().StringVar(&source, "source", "", "knowledge source (default: newest stored)")
	return cmd
}

func (c *CLI) importList(cmd *cobra.Command, l *knowledge.List) error {
	ctx := cmd.Context()
	prog := newProgress(loggerFromContext(ctx))
	im, err := pgimport.Open(c.cfg.Postgres.DSN(), loggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer im.Close()

	spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Importing %s...", l.Source))
	im.OnProgress = func(done, total int) {
		spinner.SetMessage(fmt.Sprintf("Importing %s... %d/%d", l.Source, done, total))
	}
	spinner.Start()
	stats, err := im.Import(ctx, l)
	if err != nil {
		spinner.StopWithError("Import of %s failed", l.Source)
		return err
	}
	spinner.StopWithSuccess("Imported %s", stats.Source)

	p := newPrinter(cmd.ErrOrStderr())
	p.counts("terms", stats.Terms, "paths", stats.Paths)
	p.detail("Batch: %s", stats.Batch)
	prog.done(fmt.Sprintf("Imported %d records", len(l.Knowledge)))
	return nil
}

// shutdown bounds how long closing remote connections may take.
func shutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), shutdownTimeout)
}
