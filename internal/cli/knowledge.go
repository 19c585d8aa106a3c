package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/knowledge"
)

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// readEntities reads entity ids one per line. Blank lines and lines
// starting with # are skipped, as is anything after whitespace on a line.
func readEntities(r io.Reader) ([]string, error) {
	var entities []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entities = append(entities, strings.Fields(line)[0])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return entities, nil
}

// knowledgeCommand creates the knowledge command.
func (c *CLI) knowledgeCommand() *cobra.Command {
	var flags runnerFlags
	cmd := &cobra.Command{
		Use:   "knowledge <entity>...",
		Short: "Look up knowledge about anatomical entities",
		Long: `Look up knowledge about anatomical terms, neuron populations or
ApiNATOMY models.

Records are read from the knowledge store when present and otherwise fetched
from SciCrunch and saved. The records are written to stdout as a knowledge
list.`,
		Example: `  mapknowledge knowledge UBERON:0001255
  mapknowledge knowledge ilxtr:neuron-type-keast-1 --source sckan-2024-09-21
  mapknowledge knowledge https://apinatomy.org/uris/models/keast-bladder --refresh`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, closer, err := c.newRunner(ctx, flags)
			if err != nil {
				return err
			}
			defer closer()

			opts := flags.options(c.cfg.Concurrency, loggerFromContext(ctx))
			source, err := runner.ResolveSource(ctx, opts)
			if err != nil {
				return err
			}
			opts.Source = source

			l := knowledge.NewList(source)
			p := newPrinter(cmd.ErrOrStderr())
			for _, entity := range args {
				res, err := runner.Knowledge(ctx, entity, opts)
				if err != nil {
					return err
				}
				p.origin(entity, res.Origin)
				l.Append(res.Record)
			}
			return knowledge.WriteList(cmd.OutOrStdout(), l)
		},
	}
	flags.register(cmd)
	return cmd
}

// loadCommand creates the load command.
func (c *CLI) loadCommand() *cobra.Command {
	var (
		flags  runnerFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "load <entities-file|->",
		Short: "Load knowledge about many entities into the store",
		Long: `Load knowledge about every entity listed in a file, one id per line, into
the knowledge store. Lookups run concurrently; a failed lookup is reported
and does not stop the load.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			entities, err := readEntitiesFile(cmd, args[0])
			if err != nil {
				return err
			}
			if len(entities) == 0 {
				return errors.New(errors.ErrCodeInvalidInput, "no entities in %s", args[0])
			}

			runner, closer, err := c.newRunner(ctx, flags)
			if err != nil {
				return err
			}
			defer closer()

			spinner := newSpinnerWithContext(ctx, cmd.ErrOrStderr(), fmt.Sprintf("Loading %d entities...", len(entities)))
			spinner.Start()
			res, err := runner.Load(ctx, entities, flags.options(c.cfg.Concurrency, loggerFromContext(ctx)))
			if err != nil {
				spinner.StopWithError("Load failed")
				return err
			}
			spinner.StopWithSuccess("Loaded %d records from %s", len(res.List.Knowledge), res.List.Source)

			p := newPrinter(cmd.ErrOrStderr())
			p.counts("stored", res.Stats.FromStore, "fetched", res.Stats.Fetched,
				"unknown", len(res.Unknown), "failed", len(res.Failed))
			if res.Batch != "" {
				p.detail("Batch: %s", res.Batch)
			}
			for _, entity := range slices.Sorted(maps.Keys(res.Failed)) {
				p.warning("%s: %s", entity, errors.UserMessage(res.Failed[entity]))
			}

			if output == "" {
				return nil
			}
			data, err := marshalIndent(res.List)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "also write the loaded records as a knowledge list")
	return cmd
}

func readEntitiesFile(cmd *cobra.Command, path string) ([]string, error) {
	if path == "-" {
		return readEntities(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readEntities(f)
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export [source]",
		Short: "Write the stored records of a knowledge source",
		Long: `Write every stored record of a knowledge source as a knowledge list.
Without a source the newest stored source is exported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			var source string
			if len(args) == 1 {
				source = knowledge.CleanSource(args[0])
			} else if source, err = latestSource(cmd, st); err != nil {
				return err
			}
			l, err := st.List(ctx, source)
			if err != nil {
				return err
			}
			if len(l.Knowledge) == 0 {
				return errors.New(errors.ErrCodeNotFound, "no knowledge stored from source %q", source)
			}
			data, err := marshalIndent(l)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// sourcesCommand creates the sources command.
func (c *CLI) sourcesCommand() *cobra.Command {
	var remove string
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List the knowledge sources in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			p := newPrinter(cmd.OutOrStdout())
			if remove != "" {
				if err := st.DeleteSource(ctx, knowledge.CleanSource(remove)); err != nil {
					return err
				}
				p.success("Removed %s", remove)
				return nil
			}
			sources, err := st.Sources(ctx)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				p.info("Store is empty")
				return nil
			}
			for _, s := range sources {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&remove, "delete", "", "remove every record of a source")
	return cmd
}

// buildCommand creates the build command.
func (c *CLI) buildCommand() *cobra.Command {
	var models bool
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Show the SCKAN build behind the configured release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, ch, err := c.newClient(ctx, false, false)
			if err != nil {
				return err
			}
			defer ch.Close()
			if !client.Enabled() {
				return errors.New(errors.ErrCodeUnauthorized, "no SciCrunch API key (set SCICRUNCH_API_KEY)")
			}

			p := newPrinter(cmd.OutOrStdout())
			info, err := client.Build(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), StyleTitle.Render(client.Release()))
			p.keyValue("source", info.Source())
			p.keyValue("released", info.Released)
			p.keyValue("created", info.Created)
			p.keyValue("release", info.Release)
			p.keyValue("history", info.History)

			if !models {
				return nil
			}
			found, err := client.ConnectivityModels(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), StyleTitle.Render("models"))
			for _, iri := range slices.Sorted(maps.Keys(found)) {
				m := found[iri]
				p.keyValue(m.Version, iri)
				if m.Label != "" {
					p.detail("%s", m.Label)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&models, "models", false, "also list the release's ApiNATOMY models")
	return cmd
}
