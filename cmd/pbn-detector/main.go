package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "pbn-detector",
		Short: "PBN backlink risk scorer",
		Long:  "Scores batches of backlinks for private-blog-network risk using rule, statistical, and ensemble signals.",
	}

	root.AddCommand(serveCmd())
	root.AddCommand(scoreCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
