package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"itinera/audio"
	"itinera/log"
)

// frameCounter counts visualization frames so test runs can log them.
type frameCounter struct {
	frames atomic.Int64
}

func (f *frameCounter) Levels(levels []float64) {
	if levels != nil {
		f.frames.Add(1)
	}
}

// runTestMode drives a recording session from stdin commands against a fake
// microphone that plays back a WAV file:
//
//	START          open the microphone
//	FEED [frames]  deliver the whole file in chunks of frames
//	STOP           stop, transcribe, append the text to the buffer
//	TEXT <line>    append a line to the buffer
//	SUBMIT         resolve the buffer and print the results
//	SLEEP <ms>
//	QUIT
func runTestMode(ctx context.Context, a *app, fake *audio.FakeContext) int {
	var buffer []string
	status := 0

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		switch cmd {
		case "START":
			if err := a.rec.Start(); err != nil {
				reportError(err)
				status = 1
			}
		case "FEED":
			frames := 1024
			if n, err := strconv.Atoi(arg); err == nil && n > 0 {
				frames = n
			}
			caps := fake.Captures()
			if len(caps) == 0 {
				fmt.Fprintln(os.Stderr, "FEED before START")
				status = 1
				continue
			}
			caps[len(caps)-1].Feed(frames)
		case "STOP":
			text, err := a.transcribeRecording(ctx)
			if err != nil {
				reportError(err)
				status = 1
				continue
			}
			fmt.Printf("transcribed: %s\n", text)
			if text != "" {
				buffer = append(buffer, text)
			}
		case "TEXT":
			buffer = append(buffer, arg)
		case "SUBMIT":
			if code := printSubmission(ctx, a, strings.Join(buffer, "\n")); code != 0 {
				status = code
			}
		case "SLEEP":
			if ms, err := strconv.Atoi(arg); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			return status
		case "":
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		}
	}
	if a.rec.Recording() {
		log.Info("test_mode_eof_while_recording")
	}
	return status
}
