package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keagan/mec/internal/blueprint"
	"github.com/keagan/mec/internal/clip"
	"github.com/keagan/mec/internal/codec"
	"github.com/keagan/mec/internal/config"
	"github.com/keagan/mec/internal/decode"
	"github.com/keagan/mec/internal/eventstack"
	"github.com/keagan/mec/internal/frameprim"
	"github.com/keagan/mec/internal/host"
	"github.com/keagan/mec/internal/logging"
	"github.com/keagan/mec/internal/project"
	"github.com/keagan/mec/internal/track"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mec",
	Short: "mec - media editing engine console",
	Long:  "A headless console for the timeline/event-stack/decode-pipeline media editing engine.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./mec.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(scrubCmd)
}

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project file commands",
}

var projectNewCmd = &cobra.Command{
	Use:   "new [path] [name]",
	Short: "Create a new, empty project file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project.New(eventstack.NewVideoKind(nil), eventstack.NewAudioKind(), blueprint.NewGraphFactory())
		if err := p.CreateNew(args[0], args[1]); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		log.Info().Str("path", args[0]).Str("name", args[1]).Msg("project created")
		return nil
	},
}

var projectShowCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Load a project and print its track/clip counts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := project.New(eventstack.NewVideoKind(nil), eventstack.NewAudioKind(), blueprint.NewGraphFactory())
		if err := p.Load(args[0]); err != nil {
			return err
		}
		fmt.Printf("video tracks: %d\n", len(p.VideoTracks))
		fmt.Printf("audio tracks: %d\n", len(p.AudioTracks))
		for _, t := range p.VideoTracks {
			fmt.Printf("  track %s: %d clips, %d overlaps\n", t.ID, len(t.Clips()), len(t.Overlaps()))
		}
		return nil
	},
}

func init() {
	projectCmd.AddCommand(projectNewCmd)
	projectCmd.AddCommand(projectShowCmd)
}

// demoCmd builds an in-memory track over a synthetic source and renders
// a handful of frames through the full clip/filter/track stack, the
// quickest way to sanity-check a change to the engine without a real
// media file on hand.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted render over a synthetic source",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		env := host.Default(logging.WithComponent("demo"))

		src := &codec.FakeSource{DurationMs: 2000, FPS: 30, Width: 16, Height: 16, SampleRate: 48000}
		p := decode.New(
			codec.NewFakeDemuxer(src),
			&codec.FakeVideoDecoder{
				Width: 16, Height: 16,
				HwCandidates:   []frameprim.PixFmt{"vaapi", "gray8"},
				ChooseHwFormat: env.ChooseHwFormat,
			},
			&codec.FakeAudioDecoder{SampleRate: 48000, Channels: 2},
			codec.PassthroughResampler{},
			&codec.DiscardSink{},
			cfg.Decode,
			cfg.Render,
		)
		if err := p.Open("demo-source"); err != nil {
			return err
		}
		defer p.Close()

		tr := track.New[*frameprim.VideoFrame]("v1", 16, 16, frameprim.Rational{Num: 30, Den: 1}, track.VideoCrossfade{})
		c, err := clip.New[*frameprim.VideoFrame]("c1", clip.Source{ID: "demo-source", DurationMs: src.DurationMs}, 0, 0, 0, clip.Forward, eventstack.NewVideoKind(nil))
		if err != nil {
			return err
		}
		if err := tr.Insert(c); err != nil {
			return err
		}

		fetcher := demoFetcher{p: p}
		for pos := int64(0); pos < 300; pos += 100 {
			tr.Seek(pos)
			frame, err := tr.ReadFrame(fetcher)
			if err != nil {
				return err
			}
			log.Info().Int64("pos_ms", pos).Int("width", frame.Width).Int("height", frame.Height).Msg("rendered frame")
		}
		return nil
	},
}

type demoFetcher struct{ p *decode.Pipeline }

func (f demoFetcher) Fetch(sourceID string, sourceTimeMs int64) (*frameprim.VideoFrame, error) {
	return f.p.ReadFrameAt(sourceTimeMs)
}

var scrubCmd = &cobra.Command{
	Use:   "scrub [ms...]",
	Short: "Issue a burst of coalesced async seeks against a synthetic source",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		src := &codec.FakeSource{DurationMs: 5000, FPS: 30, Width: 16, Height: 16, SampleRate: 48000}
		p := decode.New(
			codec.NewFakeDemuxer(src),
			&codec.FakeVideoDecoder{Width: 16, Height: 16},
			nil, nil, nil,
			cfg.Decode,
			cfg.Render,
		)
		if err := p.Open("scrub-source"); err != nil {
			return err
		}
		defer p.Close()

		var last <-chan error
		for _, a := range args {
			var ms int64
			if _, err := fmt.Sscanf(a, "%d", &ms); err != nil {
				return fmt.Errorf("mec scrub: invalid position %q: %w", a, err)
			}
			last = p.AsyncSeek(ms)
		}
		return <-last
	},
}
