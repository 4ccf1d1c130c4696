package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ai-slide-generator/internal/api"
	"github.com/fpang/ai-slide-generator/internal/assets"
	"github.com/fpang/ai-slide-generator/internal/cli"
	"github.com/fpang/ai-slide-generator/internal/config"
	"github.com/fpang/ai-slide-generator/internal/deck"
	"github.com/fpang/ai-slide-generator/internal/pipeline"
	"github.com/fpang/ai-slide-generator/internal/sse"
	"github.com/fpang/ai-slide-generator/internal/usage"
)

var (
	templateFlag      string
	languageFlag      string
	imageProviderFlag string
	outFlag           string
	remoteFlag        string
)

var generateCmd = &cobra.Command{
	Use:   "generate [topic]",
	Short: "Generate a presentation",
	Args:  cobra.MaximumNArgs(1),
	Run:   runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&templateFlag, "template", "t", "", "Template id (see 'slides templates')")
	generateCmd.Flags().StringVarP(&languageFlag, "language", "l", deck.LanguageEnglish, "Presentation language (en or zh)")
	generateCmd.Flags().StringVar(&imageProviderFlag, "image-provider", "", "Image provider (huggingface or gemini)")
	generateCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write the final deck as JSON to this file")
	generateCmd.Flags().StringVar(&remoteFlag, "remote", "", "Base URL of a running slides-web server to stream from")
}

func runGenerate(cmd *cobra.Command, args []string) {
	topic := ""
	if len(args) == 1 {
		topic = strings.TrimSpace(args[0])
	}
	if topic == "" {
		topic = cli.PromptForTopic()
	}
	if topic == "" {
		log.Fatal().Msg("A topic is required")
	}

	var tmpl *deck.Template
	if templateFlag != "" {
		t, ok := assets.TemplateByID(templateFlag)
		if !ok {
			log.Fatal().Str("template", templateFlag).Msg("Unknown template")
		}
		tmpl = &t
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	var slides []deck.Slide
	if remoteFlag != "" {
		slides = generateRemote(ctx, topic, tmpl)
	} else {
		slides = generateLocal(ctx, topic, tmpl)
	}
	fmt.Printf("\nGenerated %d slides in %s\n", len(slides), cli.FormatDurationShort(time.Since(start)))

	if outFlag != "" {
		if err := cli.WriteDeck(outFlag, slides); err != nil {
			log.Fatal().Err(err).Msg("Failed to save deck")
		}
		fmt.Printf("Deck saved to %s\n", outFlag)
	}
}

func generateLocal(ctx context.Context, topic string, tmpl *deck.Template) []deck.Slide {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	text := cli.InitTextGenerator(ctx, cfg, false)
	p := pipeline.New(text, cfg.ImageRegistry(nil))

	session := usage.NewSession(usage.NewSessionID())
	var final []deck.Slide
	for ev := range p.Run(ctx, pipeline.Request{
		Topic:         topic,
		Template:      tmpl,
		Language:      languageFlag,
		ImageProvider: imageProviderFlag,
		Session:       session,
	}) {
		final = ev.Snapshot.Slides
		printEvent(os.Stdout, ev.Kind, ev.Snapshot)
		switch ev.Kind {
		case pipeline.Done:
			fmt.Println()
			fmt.Println(ev.Usage.Report)
		case pipeline.Failed:
			log.Fatal().Err(ev.Err).Msg("Generation failed")
		}
	}
	if err := ctx.Err(); err != nil {
		log.Fatal().Err(err).Msg("Generation interrupted")
	}
	return final
}

func generateRemote(ctx context.Context, topic string, tmpl *deck.Template) []deck.Slide {
	url := strings.TrimRight(remoteFlag, "/") + "/api/generate"
	rd, err := sse.Dial(ctx, http.DefaultClient, url, api.GenerateRequest{
		Topic:         topic,
		Template:      tmpl,
		Language:      languageFlag,
		ImageProvider: imageProviderFlag,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start remote generation")
	}
	defer rd.Close()

	var acc sse.Accumulator
	for {
		f, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.Fatal().Err(err).Msg("Stream interrupted")
		}
		if err := acc.Apply(f); err != nil {
			log.Fatal().Err(err).Msg("Remote generation failed")
		}
		switch f.Name {
		case sse.NameOutline:
			printOutline(os.Stdout, acc.Outline)
		case sse.NameCritique:
			if n := len(acc.Slides); n > 0 {
				cli.PrintSlide(os.Stdout, n-1, acc.Slides[n-1])
			}
		case sse.NameUsage:
			fmt.Println()
			fmt.Println(acc.Usage.Report)
		}
	}
	if !acc.Done() {
		log.Warn().Msg("Stream ended without a usage report")
	}
	return acc.Slides
}

func printEvent(w io.Writer, kind pipeline.Kind, snap pipeline.Snapshot) {
	switch kind {
	case pipeline.OutlineGenerated:
		printOutline(w, snap.Outline)
	case pipeline.SlideCritiqued:
		i := snap.CurrentSlide
		if i < len(snap.Slides) {
			cli.PrintSlide(w, i, snap.Slides[i])
		}
	case pipeline.SlideRefined:
		fmt.Fprintf(w, "    (refining slide %d)\n", snap.CurrentSlide+1)
	}
}

func printOutline(w io.Writer, outline deck.Outline) {
	fmt.Fprintln(w, "Outline:")
	for i, title := range outline {
		fmt.Fprintf(w, "  %d. %s\n", i+1, title)
	}
}
