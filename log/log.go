package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog    zerolog.Logger
	diagFile   *os.File
	routesFile *os.File
	logMu      sync.Mutex
	logReady   bool
	pid        int
	dir        string
)

func ResolveDir(flagPath string) (string, error) {
	path := flagPath
	if path == "" {
		path = os.Getenv("ITINERA_LOG_PATH")
	}
	if path == "" {
		return getDefaultDir()
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return filepath.Join(wd, path), nil
	}
	return path, nil
}

func SetDir(d string) { dir = d }

func Dir() string { return dir }

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}
	pid = os.Getpid()

	var err error
	diagFile, err = os.OpenFile(filepath.Join(dir, "diagnostics_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	routesFile, err = os.OpenFile(filepath.Join(dir, "routes_log.txt"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	diagLog = zerolog.New(zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if routesFile != nil {
		routesFile.Close()
		routesFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(routeURL, transcribeURL, strategy string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("route_url", routeURL).
		Str("transcribe_url", transcribeURL).
		Str("strategy", strategy).
		Msg("session_start")
}

// Network timings of one remote exchange.
type CallMetrics struct {
	Endpoint   string
	Status     int
	Attempts   int
	DNSMs      float64
	TLSMs      float64
	TTFBMs     float64
	TotalMs    float64
	ConnReused bool
}

func RemoteCall(m CallMetrics) {
	if !logReady {
		return
	}
	conn := "new"
	if m.ConnReused {
		conn = "reused"
	}
	diagLog.Info().
		Str("endpoint", m.Endpoint).
		Int("status", m.Status).
		Int("attempts", m.Attempts).
		Str("conn", conn).
		Float64("dns_ms", m.DNSMs).
		Float64("tls_ms", m.TLSMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalMs).
		Msg("remote_call")
}

func SubmissionStart(id string, sentences int) {
	if !logReady {
		return
	}
	diagLog.Info().Str("submission", id).Int("sentences", sentences).Msg("submission_start")
}

func SentenceResolved(id string, sentenceID int, valid bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("submission", id).
		Int("sentence", sentenceID).
		Bool("valid", valid).
		Msg("sentence_resolved")
}

func SubmissionEnd(id string, resolved int, err error) {
	if !logReady {
		return
	}
	ev := diagLog.Info()
	if err != nil {
		ev = diagLog.Error().Err(err)
	}
	ev.Str("submission", id).Int("resolved", resolved).Msg("submission_end")
}

// RouteSummary appends one compact summary line to routes_log.txt.
func RouteSummary(summary string) {
	if !logReady {
		return
	}
	logMu.Lock()
	defer logMu.Unlock()
	line := fmt.Sprintf("%s\t[%d]\t%s\n", time.Now().Format("2006-01-02 15:04:05"), pid, summary)
	routesFile.WriteString(line)
}
