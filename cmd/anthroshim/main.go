package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/boozegar/anthroshim/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "anthroshim",
	Short: "Anthroshim - Anthropic Messages to OpenAI Responses proxy",
	Long: `Anthroshim exposes the Anthropic Messages API and translates every request
to the OpenAI Responses API, including bidirectional streaming translation.
It also ships offline converters for batch payloads and event streams.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if verbose {
			logrus.SetLevel(logrus.TraceLevel)
		}
	},
}

// Build information variables
var (
	// Set by compiler via -ldflags
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Anthroshim\n")
			fmt.Printf("Version:    %s\n", version)
			fmt.Printf("Git Commit: %s\n", gitCommit)
			fmt.Printf("Build Time: %s\n", buildTime)
		},
	}
	rootCmd.AddCommand(versionCmd)

	rootCmd.AddCommand(cli.NewServeCommand(version))
	rootCmd.AddCommand(cli.NewConvertCommand())
	rootCmd.AddCommand(cli.NewStreamConvertCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
