// Package main is the entry point for the vgm2fur API server
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/james-see/vgm2fur/pkg/api"
)

var port int

var rootCmd = &cobra.Command{
	Use:   "vgm2fur-server",
	Short: "Serve the vgm2fur conversion API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Starting vgm2fur API server on port %d...\n", port)
		fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", port)
		return api.StartServer(port)
	},
}

func main() {
	rootCmd.Flags().IntVarP(&port, "port", "p", 8080, "Server port")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
