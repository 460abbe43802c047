package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
)

var (
	renderFormat string
	renderStyle  string
	renderProxy  bool
	renderOutput string
)

// errBinaryToTerminal is returned when PDF bytes would be written to a terminal.
var errBinaryToTerminal = errors.New("refusing to write binary output to a terminal; use --output or redirect stdout")

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var renderCmd = &cobra.Command{
	Use:   "render [session]",
	Short: "Render a session",
	Long: `Render the current state of a session.

Formats: canonical (html), paginated (pdf), markdown (md).

With --proxy the output is stored as a proxy artifact and its GUID is
printed instead of the content.

Examples:
  docforge render q4-report > report.html
  docforge render q4-report --format pdf -o report.pdf
  docforge render q4-report --format md --style compact
  docforge render q4-report --format pdf --proxy`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderFormat, "format", string(domain.FormatCanonical), "output format")
	renderCmd.Flags().StringVar(&renderStyle, "style", "", "style ID (default from settings)")
	renderCmd.Flags().BoolVar(&renderProxy, "proxy", false, "store as a proxy artifact and print its GUID")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "write output to a file")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	format, err := domain.ParseFormat(renderFormat)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format.Binary() && !renderProxy && renderOutput == "" && isTerminal(out) {
		return errBinaryToTerminal
	}

	res, err := svc.Render.Render(cmd.Context(), args[0], group(), driving.RenderRequest{
		Format:  format,
		StyleID: renderStyle,
		Proxy:   renderProxy,
	})
	if err != nil {
		return err
	}

	if renderProxy {
		cmd.Printf("Stored %s artifact %s (style %s)\n", res.Format, res.ProxyGUID, res.StyleID)
		return nil
	}
	return writeOutput(cmd, renderOutput, res.Data)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	cmd.PrintErrf("Wrote %d bytes to %s\n", len(data), path)
	return nil
}
