package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mapknowledge/pkg/apinatomy"
	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/pipeline"
	"github.com/matzehuels/mapknowledge/pkg/render"
)

// readBlob reads a path blob from path, or from the command's input when
// path is "-".
func readBlob(cmd *cobra.Command, path string) (blob.Blob, error) {
	if path == "-" {
		b, err := blob.Read(cmd.InOrStdin())
		if err != nil {
			return blob.Blob{}, errors.Wrap(errors.ErrCodeInvalidBlob, err, "read blob from stdin")
		}
		return b, nil
	}
	b, err := blob.Import(path)
	if err != nil {
		return blob.Blob{}, errors.Wrap(errors.ErrCodeInvalidBlob, err, "read blob %s", path)
	}
	return b, nil
}

// writeOutput writes data to path, or to the command's output when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	p := newPrinter(cmd.ErrOrStderr())
	p.success("Wrote %s", path)
	p.file(path)
	return nil
}

// deblobCommand creates the deblob command.
func (c *CLI) deblobCommand() *cobra.Command {
	var (
		removeConvergence bool
		output            string
	)
	cmd := &cobra.Command{
		Use:   "deblob <blob.json|->",
		Short: "Simplify an ApiNATOMY path blob",
		Long: `Simplify an ApiNATOMY path blob into a compact neuron-path graph.

Chains of lyph, layer and border links are collapsed into next*, topology*
and inheritedExternal* edges, interior level edges are dropped, and the result
is deduplicated and pruned of unreferenced nodes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			b, err := readBlob(cmd, args[0])
			if err != nil {
				return err
			}
			d := apinatomy.Deblob(b, apinatomy.DeblobOptions{RemoveConvergence: removeConvergence})
			logger.Info("Deblobbed path",
				"nodes", len(d.Blob.Nodes),
				"edges", len(d.Blob.Edges),
				"synthesized", d.Collapse.Synthesized,
				"removed", d.Collapse.Removed)
			if d.Collapse.CyclicComponents > 0 {
				logger.Warn("Skipped cyclic chains", "components", d.Collapse.CyclicComponents)
			}

			var buf bytes.Buffer
			if err := blob.Write(&buf, d.Blob); err != nil {
				return err
			}
			return writeOutput(cmd, output, buf.Bytes())
		},
	}
	cmd.Flags().BoolVar(&removeConvergence, "remove-convergence", false, "drop topology and axon/dendrite marker edges")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// connectivityCommand creates the connectivity command.
func (c *CLI) connectivityCommand() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "connectivity <blob.json|->",
		Short: "Derive the connectivity of an ApiNATOMY path blob",
		Long: `Derive the connectivity of an ApiNATOMY path blob: its axon and dendrite
terminal regions and the hops between anatomical nodes, each node written as
[region, [layers...]].`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBlob(cmd, args[0])
			if err != nil {
				return err
			}
			runner := pipeline.NewRunner(nil, nil, loggerFromContext(cmd.Context()))
			conn, err := runner.Connectivity(cmd.Context(), b)
			if err != nil {
				return err
			}
			data, err := marshalIndent(conn)
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts      render.Options
		format    string
		output    string
		raw       bool
		converged bool
	)
	cmd := &cobra.Command{
		Use:   "render <blob.json|->",
		Short: "Draw a path blob as a Graphviz graph",
		Long: `Draw a path blob as a Graphviz graph in DOT, SVG or PNG format.

The blob is deblobbed first unless --raw is given. Without --output the
graph is written next to the input as <name>.<format>, or to stdout when
reading from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBlob(cmd, args[0])
			if err != nil {
				return err
			}
			if !raw {
				b = apinatomy.Deblob(b, apinatomy.DeblobOptions{RemoveConvergence: !converged}).Blob
			}
			out, err := render.Render(cmd.Context(), render.ToDOT(b, opts), format)
			if err != nil {
				return err
			}
			if output == "" && args[0] != "-" {
				output = outputPath(args[0], "."+format)
			}
			return writeOutput(cmd, output, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatSVG, "output format: dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&opts.Title, "title", "", "graph title")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "show node labels and metadata")
	cmd.Flags().BoolVar(&opts.EdgeLabels, "edge-labels", false, "label edges with their predicate")
	cmd.Flags().BoolVar(&raw, "raw", false, "draw the blob without deblobbing it")
	cmd.Flags().BoolVar(&converged, "keep-convergence", false, "keep topology edges when deblobbing")
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(render.Formats, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}
