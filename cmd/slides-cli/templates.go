package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-slide-generator/internal/assets"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List presentation templates",
	Run: func(cmd *cobra.Command, args []string) {
		templates, err := assets.Templates()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load templates")
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tSLIDES\tTAGS")
		for _, t := range templates {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.SlideCount, strings.Join(t.Tags, ", "))
		}
		tw.Flush()
	},
}
