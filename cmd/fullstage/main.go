package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fullstage/internal/backend"
	"github.com/san-kum/fullstage/internal/backend/headless"
	"github.com/san-kum/fullstage/internal/config"
	"github.com/san-kum/fullstage/internal/export"
	"github.com/san-kum/fullstage/internal/metrics"
	"github.com/san-kum/fullstage/internal/storage"
	"github.com/san-kum/fullstage/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	backendName  string
	fps          int
	width        int
	height       int
	noParticles  bool
	followWindow bool
	watch        bool
	configOut    string

	snapFrames  int
	benchFrames int
	clickAt     int
	outPNG      string
	outSVG      string
	save        bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "fullstage",
		Short:        "full-window render surface with click-to-fullscreen",
		SilenceUsage: true,
		RunE:         runViewport,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fullstage", "capture directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	addViewFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "open the viewport on the best available backend",
		RunE:  runViewport,
	}
	addViewFlags(runCmd)
	runCmd.Flags().StringVar(&backendName, "backend", "", "backend name or auto")
	runCmd.Flags().IntVar(&fps, "fps", 0, "target frame rate")
	runCmd.Flags().BoolVar(&followWindow, "follow-window", false, "resize on plain window resizes too")
	runCmd.Flags().BoolVar(&watch, "watch", false, "apply background changes from --config while running")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "render headless frames and store the last one",
		RunE:  runSnapshot,
	}
	addViewFlags(snapshotCmd)
	snapshotCmd.Flags().IntVar(&snapFrames, "frames", 60, "frames to render")
	snapshotCmd.Flags().IntVar(&clickAt, "click-at", -1, "click (enter fullscreen) at this frame")
	snapshotCmd.Flags().StringVarP(&outPNG, "out", "o", "", "also write the frame to this PNG")
	snapshotCmd.Flags().StringVar(&outSVG, "svg", "", "also write the frame as SVG")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "measure headless frame times",
		RunE:  runBench,
	}
	addViewFlags(benchCmd)
	benchCmd.Flags().IntVar(&benchFrames, "frames", 300, "frames to render")
	benchCmd.Flags().BoolVar(&save, "save", false, "store the run as a capture")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list captures",
		RunE:  listCaptures,
	}

	showCmd := &cobra.Command{
		Use:   "show [capture_id]",
		Short: "show capture metadata and frame times",
		Args:  cobra.ExactArgs(1),
		RunE:  showCapture,
	}
	showCmd.Flags().StringVar(&outSVG, "svg", "", "write the frame-time chart as SVG")

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "list backends and their availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			detected, _ := backend.Default.Detect()
			rows := [][]string{}
			for _, b := range backend.List() {
				avail := viz.StatusStopped.Render("no")
				if b.IsAvailable() {
					avail = viz.StatusRunning.Render("yes")
				}
				name := b.Name
				if b.Name == detected.Name {
					name += " *"
				}
				rows = append(rows, []string{name, strconv.Itoa(b.Priority), avail, b.Description})
			}
			fmt.Println(viz.Table([]string{"BACKEND", "PRIORITY", "AVAILABLE", "DESCRIPTION"}, rows))
			fmt.Println(viz.KeyHint.Render("* picked by --backend auto"))
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				cfg := config.GetPreset(p)
				fmt.Printf("  %-10s %s  antialias=%t  particles=%d\n",
					p, cfg.Background, cfg.Antialias, cfg.Particles.Count)
			}
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if configOut != "" {
				if err := config.Save(configOut, cfg); err != nil {
					return fmt.Errorf("failed to save config: %w", err)
				}
				fmt.Printf("config written to %s\n", configOut)
				return nil
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	configCmd.Flags().StringVarP(&configOut, "out", "o", "", "write the effective config to a file instead of stdout")
	addViewFlags(configCmd)
	configCmd.Flags().StringVar(&backendName, "backend", "", "backend name or auto")
	configCmd.Flags().IntVar(&fps, "fps", 0, "target frame rate")

	rootCmd.AddCommand(runCmd, snapshotCmd, benchCmd, listCmd, showCmd, backendsCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&width, "width", 0, "window width")
	cmd.Flags().IntVar(&height, "height", 0, "window height")
	cmd.Flags().BoolVar(&noParticles, "no-particles", false, "show the bare stage")
}

func runViewport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openSession(cfg, cfg.Backend, 0)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if watch && configFile != "" {
		go s.watchConfig(ctx, configFile)
	}

	s.log.Info("viewport running", "backend", s.platform.Name(), "size", s.ctrl.Size())
	if err := s.ctrl.Run(ctx); err != nil {
		return err
	}
	if err := s.ctrl.Loop().Err(); err != nil {
		s.log.Warn("last render error", "err", err)
	}
	return nil
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, hp, err := openHeadless(cfg, snapFrames)
	if err != nil {
		return err
	}
	if clickAt >= 0 {
		hp.At(clickAt, (*headless.Platform).Click)
	}
	var rec *export.SVG
	if outSVG != "" {
		rec = export.NewSVG(0, 0)
		rec.SetTransparent(cfg.Transparent)
		hp.Renderer().Record(rec)
	}

	if err := s.ctrl.Run(context.Background()); err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	id, err := st.Save(s.capture(cfg, hp))
	if err != nil {
		return err
	}
	if outPNG != "" {
		if err := hp.Renderer().SavePNG(outPNG); err != nil {
			return fmt.Errorf("write %s: %w", outPNG, err)
		}
	}
	if rec != nil {
		if err := os.WriteFile(outSVG, []byte(rec.String()), 0644); err != nil {
			return fmt.Errorf("write %s: %w", outSVG, err)
		}
	}

	size := s.ctrl.Size()
	fmt.Printf("captured %s (%dx%d, %d frames)\n", id, size.Width, size.Height, s.ctrl.Loop().Frames())
	fmt.Printf("frame: %s\n", st.FramePath(id))
	return nil
}

func runBench(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, hp, err := openHeadless(cfg, benchFrames)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := s.ctrl.Run(context.Background()); err != nil {
		return err
	}
	elapsed := time.Since(start)

	sum := s.stats.Summary()
	size := s.ctrl.Size()
	fmt.Printf("benchmarking %dx%d, %d particles\n\n", size.Width, size.Height, particleCount(cfg))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FRAMES\tWALL\tMEAN\tP50\tP95\tP99\tMAX\tFPS")
	fmt.Fprintf(w, "%d\t%v\t%.3fms\t%.3fms\t%.3fms\t%.3fms\t%.3fms\t%.0f\n",
		sum.Frames, elapsed.Round(time.Millisecond), sum.MeanMs, sum.P50Ms, sum.P95Ms, sum.P99Ms, sum.MaxMs, sum.FPS)
	if err := w.Flush(); err != nil {
		return err
	}

	if data := metrics.Milliseconds(s.stats.Samples()); len(data) > 1 {
		fmt.Println(viz.Separator(80))
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("render time per frame (ms)"),
		))
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(s.capture(cfg, hp))
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved %s\n", id)
	}
	return nil
}

func listCaptures(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	caps, err := st.List()
	if err != nil {
		return err
	}

	if len(caps) == 0 {
		fmt.Println("no captures found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBACKEND\tTIME\tSIZE\tFULLSCREEN\tFRAMES\tFPS")
	for _, c := range caps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%t\t%d\t%.0f\n",
			c.ID,
			c.Backend,
			c.Timestamp.Format("2006-01-02 15:04:05"),
			c.Width, c.Height,
			c.Fullscreen,
			c.Frames,
			c.Stats.FPS,
		)
	}
	return w.Flush()
}

func showCapture(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	data, err := st.LoadTimings(meta.ID)
	if err != nil {
		return err
	}
	if len(data) > 1 {
		fmt.Println(viz.Separator(80))
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("render time per frame (ms)"),
		))
		fmt.Println(viz.Metric("trend", viz.SparklineChart(data, 40)))
	}
	if outSVG != "" {
		chart := export.TimingsToSVG(data, 800, 240, "#00ccff")
		if chart == "" {
			return fmt.Errorf("%s: not enough frames to chart", meta.ID)
		}
		if err := os.WriteFile(outSVG, []byte(chart), 0644); err != nil {
			return fmt.Errorf("write %s: %w", outSVG, err)
		}
	}
	return nil
}

func particleCount(cfg *config.Config) int {
	if !cfg.Particles.Enabled {
		return 0
	}
	return cfg.Particles.Count
}
