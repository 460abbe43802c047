package cli

import (
	"time"

	"github.com/spf13/cobra"
)

var (
	proxyJSON   bool
	proxyOutput string
)

var proxyCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Inspect stored proxy artifacts",
	Long: `Proxy artifacts are rendered outputs stored under an opaque GUID so
they can be fetched later, for example over HTTP from "docforge serve".`,
}

var proxyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your group's artifacts",
	Args:  cobra.NoArgs,
	RunE:  runProxyList,
}

var proxyGetCmd = &cobra.Command{
	Use:   "get [guid]",
	Short: "Write an artifact's bytes",
	Args:  cobra.ExactArgs(1),
	RunE:  runProxyGet,
}

var proxySweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Purge artifacts older than the configured maximum age",
	Args:  cobra.NoArgs,
	RunE:  runProxySweep,
}

func init() {
	proxyListCmd.Flags().BoolVar(&proxyJSON, "json", false, "output as JSON")
	proxyGetCmd.Flags().StringVarP(&proxyOutput, "output", "o", "", "write to a file")

	proxyCmd.AddCommand(proxyListCmd)
	proxyCmd.AddCommand(proxyGetCmd)
	proxyCmd.AddCommand(proxySweepCmd)
	rootCmd.AddCommand(proxyCmd)
}

func runProxyList(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	infos, err := svc.Proxy.List(cmd.Context(), group())
	if err != nil {
		return err
	}

	if proxyJSON {
		return printJSON(cmd, infos)
	}

	if len(infos) == 0 {
		cmd.Println("No artifacts.")
		return nil
	}

	cmd.Printf("%-36s %-10s %-10s %8s  %s\n", "GUID", "FORMAT", "STYLE", "BYTES", "CREATED")
	for _, a := range infos {
		cmd.Printf("%-36s %-10s %-10s %8d  %s\n", a.GUID, a.Format, a.StyleID, a.Size, a.CreatedAt.Local().Format(time.DateTime))
	}
	return nil
}

func runProxyGet(cmd *cobra.Command, args []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	art, err := svc.Proxy.Fetch(cmd.Context(), args[0], group())
	if err != nil {
		return err
	}

	if art.Format.Binary() && proxyOutput == "" && isTerminal(cmd.OutOrStdout()) {
		return errBinaryToTerminal
	}
	return writeOutput(cmd, proxyOutput, art.Data)
}

func runProxySweep(cmd *cobra.Command, _ []string) error {
	svc, err := requireServices()
	if err != nil {
		return err
	}

	n, err := svc.Proxy.Sweep(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Purged %d artifact(s)\n", n)
	return nil
}
