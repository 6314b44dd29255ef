package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/palmlore/palmd/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "palmd",
		Short:   "Palm analysis daemon and CLI",
		Long:    "Palmd runs the palm analysis API server and ingests palmistry knowledge documents",
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
