package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fpang/ai-slide-generator/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "slides",
	Short: "Generate and revise slide decks from the command line",
	Long: `Slides runs the AI slide generator from a terminal. It can generate a deck
locally with the configured providers, follow a running server's event stream,
apply human feedback to a saved deck, and list the presentation templates.

Examples:
  slides generate "Quantum Computing" --out deck.json
  slides generate "Rust adoption" --template business-pitch --language zh
  slides generate "Edge AI" --remote http://localhost:8080
  slides revise --in deck.json --feedback "Add a chart" --slide 2
  slides templates`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

func init() {
	rootCmd.AddCommand(generateCmd, reviseCmd, templatesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
