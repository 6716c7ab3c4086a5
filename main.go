package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"itinera/audio"
	"itinera/capture"
	"itinera/config"
	"itinera/log"
	"itinera/route"
	"itinera/shutdown"
	"itinera/submit"
	"itinera/transcriber"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	textFlag := flag.String("text", "", "Route text to resolve (one sentence per line, optional \"<id>,\" prefix)")
	fileFlag := flag.String("file", "", "Read route text from a .txt file or transcribe an .m4a file")
	pasteFlag := flag.Bool("paste", false, "Read route text from the clipboard")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven, records from a WAV file)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	configFlag := flag.String("config", "", "TOML config file")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	partialFlag := flag.Bool("partial", false, "Keep the sentences that resolved when others fail")
	strategyFlag := flag.String("strategy", "", "Validity strategy: errors or structural")
	formatFlag := flag.String("format", "", "Recording format: flac or wav")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("itinera %s\n", version)
		return 0
	}

	explicit := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *strategyFlag != "" {
		cfg.Strategy = *strategyFlag
	}
	if *formatFlag != "" {
		cfg.Format = *formatFlag
	}
	if *deviceFlag != "" {
		cfg.Device = *deviceFlag
	}
	if explicit["partial"] {
		cfg.KeepPartial = *partialFlag
	}

	headless := runsHeadless(explicit["tui"] && *tuiFlag, *testFlag, *textFlag != "" || *fileFlag != "" || *pasteFlag)
	needTranscribe := !headless || strings.EqualFold(filepath.Ext(*fileFlag), ".m4a")
	if err := cfg.Validate(needTranscribe); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		return 1
	}
	log.SetDir(logPath)
	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()
	initCrashLog()
	log.SessionStart(cfg.RouteURL, cfg.TranscribeURL, cfg.Strategy)

	ctx, cancel := shutdown.WithCancel(context.Background())
	defer cancel()

	normalizer := route.Normalizer{Strategy: cfg.NormalizerStrategy()}
	tr := transcriber.New(cfg.TranscribeURL, cfg.TranscribePolicy())

	a := newApp(nil, tr, nil, normalizer)
	a.sub = submit.New(route.NewClient(cfg.RouteURL, cfg.Policy()), submit.Options{
		Publish:     a.publish,
		KeepPartial: cfg.KeepPartial,
		Normalizer:  normalizer,
	})

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: itinera -test <wav-file>")
			return 1
		}
		fake, err := audio.NewFakeContextFromWAV(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
			return 1
		}
		a.rec = capture.NewController(fake, capture.Options{Format: cfg.Format, Observer: &frameCounter{}})
		defer a.rec.Close()
		return runTestMode(ctx, a, fake)
	}

	if headless {
		return runHeadless(ctx, a, headlessInput{text: *textFlag, file: *fileFlag, paste: *pasteFlag})
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		return 1
	}
	defer actx.Close()

	device, err := resolveDevice(actx, cfg.Device, *setupFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		fmt.Fprintln(os.Stderr, "Falling back to default device")
		log.Warn("falling back to default capture device")
	}

	a.rec = capture.NewController(actx, capture.Options{Device: device, Format: cfg.Format})
	defer a.rec.Close()

	initial, err := initialText(ctx, a, *textFlag, *fileFlag, *pasteFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	m := newTUIModel(ctx, a, initial)
	m.modeLine = fmt.Sprintf("[%s | %s]", cfg.Format, cfg.Strategy)
	m.deviceLine = deviceLineText(device)
	p := tea.NewProgram(m, tea.WithAltScreen())

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// runsHeadless reports whether a run with input skips the terminal UI.
// An explicit -tui keeps the UI with the input preloaded.
func runsHeadless(forceTUI, test, hasInput bool) bool {
	return !test && hasInput && !forceTUI
}

func initCrashLog() {
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: no crash log: %v\n", err)
		return
	}
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return
	}
	fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
	debug.SetCrashOutput(crashFile, debug.CrashOptions{})
}

// resolveDevice maps -device or -setup onto a device. nil selects the
// system default.
func resolveDevice(ctx audio.Context, name string, setup bool) (*audio.DeviceInfo, error) {
	if name != "" {
		dev, err := audio.FindDevice(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("device enumeration failed: %w", err)
		}
		if dev == nil {
			return nil, fmt.Errorf("device not found: %s", name)
		}
		return dev, nil
	}
	if !setup {
		return nil, nil
	}
	dev, err := audio.SelectDevice(ctx)
	if err != nil {
		log.Warnf("device selection failed: %v", err)
		return nil, fmt.Errorf("device selection failed: %w", err)
	}
	return dev, nil
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (BT!)"
		}
	}
	return "mic: " + name + suffix
}

// initialText prefills the TUI buffer from -text, -file or -paste.
func initialText(ctx context.Context, a *app, text, file string, paste bool) (string, error) {
	switch {
	case text != "":
		return text, nil
	case file != "":
		return transcriber.ReadUpload(ctx, file, a.tr)
	case paste:
		s, err := a.readText()
		if err != nil {
			return "", fmt.Errorf("reading clipboard: %w", err)
		}
		return s, nil
	}
	return "", nil
}

func reportError(err error) {
	switch {
	case errors.Is(err, transcriber.ErrUnsupportedFileType):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	case errors.Is(err, transcriber.ErrTranscriptionFailed):
		fmt.Fprintf(os.Stderr, "Transcription failed: %v\n", err)
	case errors.Is(err, submit.ErrSubmissionFailed):
		fmt.Fprintf(os.Stderr, "Submission failed: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	log.Error(err.Error())
}
