package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-slide-generator/internal/assets"
	"github.com/fpang/ai-slide-generator/internal/cli"
	"github.com/fpang/ai-slide-generator/internal/config"
	"github.com/fpang/ai-slide-generator/internal/feedback"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

var (
	inFlag       string
	feedbackFlag string
	slideFlag    int
	reviseTmpl   string
	reviseOut    string
)

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Apply feedback to a saved deck",
	Run:   runRevise,
}

func init() {
	reviseCmd.Flags().StringVarP(&inFlag, "in", "i", "", "Deck JSON written by 'slides generate --out'")
	reviseCmd.Flags().StringVarP(&feedbackFlag, "feedback", "f", "", "Feedback to apply")
	reviseCmd.Flags().IntVarP(&slideFlag, "slide", "s", 0, "1-based slide to revise (0 = all slides)")
	reviseCmd.Flags().StringVarP(&reviseTmpl, "template", "t", "", "Template id the deck was built with")
	reviseCmd.Flags().StringVarP(&reviseOut, "out", "o", "", "Where to write the revised deck (default: overwrite --in)")
	reviseCmd.MarkFlagRequired("in")
	reviseCmd.MarkFlagRequired("feedback")
}

func runRevise(cmd *cobra.Command, args []string) {
	slides, err := cli.ReadDeck(inFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load deck")
	}

	req := feedback.Request{Slides: slides, Feedback: feedbackFlag}
	if slideFlag > 0 {
		idx := slideFlag - 1
		req.SlideIndex = &idx
	}
	if reviseTmpl != "" {
		t, ok := assets.TemplateByID(reviseTmpl)
		if !ok {
			log.Fatal().Str("template", reviseTmpl).Msg("Unknown template")
		}
		req.Template = &t
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	ctx := context.Background()
	text := cli.InitTextGenerator(ctx, cfg, false)
	reviser := feedback.New(text, cfg.FeedbackImages(cfg.ImageRegistry(nil))).
		WithImageTimeout(cfg.FeedbackImageTimeout).
		WithConcurrency(cfg.FeedbackConcurrency)

	session := usage.NewSession(usage.NewSessionID())
	revised, err := reviser.Apply(ctx, req, session)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to apply feedback")
	}

	for i, s := range revised {
		if req.SlideIndex != nil && *req.SlideIndex != i {
			continue
		}
		cli.PrintSlide(os.Stdout, i, s)
	}
	fmt.Println()
	fmt.Println(session.Report())

	out := reviseOut
	if out == "" {
		out = inFlag
	}
	if err := cli.WriteDeck(out, revised); err != nil {
		log.Fatal().Err(err).Msg("Failed to save deck")
	}
	fmt.Printf("Deck saved to %s\n", out)
}
