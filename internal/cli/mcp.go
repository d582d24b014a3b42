package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/macropower/foldex/pkg/mcp"
)

type MCPArgs struct {
	*RootArgs

	Address string
}

func NewMCPCmd(ra *RootArgs) *cobra.Command {
	ma := &MCPArgs{RootArgs: ra}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve folder tools over the Model Context Protocol",
		Long: `Serve folder tools over the Model Context Protocol.

The server uses stdio unless --address is given, in which case it serves
streamable HTTP until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := ma.open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeApp(a, &err)

			err = mcp.NewServer(ma.Address, a.service).Serve(cmd.Context())
			if err != nil {
				return fmt.Errorf("mcp: %w", err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&ma.Address, "address", "", "Serve streamable HTTP at this address instead of stdio")

	bindEnvVars(cmd)

	return cmd
}
