package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"itinera/capture"
	"itinera/clipboard"
	"itinera/route"
	"itinera/transcriber"
)

type recorder interface {
	Start() error
	Stop() (*capture.Artifact, error)
	Close()
	Recording() bool
	Levels() []float64
}

type submitter interface {
	Submit(ctx context.Context, raw string) ([]*route.Response, error)
	Processing() bool
}

// app wires the pieces a front end drives. Both the TUI and the headless
// modes go through it.
type app struct {
	rec        recorder
	tr         transcriber.Transcriber
	sub        submitter
	normalizer route.Normalizer

	copyText func(string) error
	readText func() (string, error)

	mu   sync.Mutex
	last []route.Normalized
}

func newApp(rec recorder, tr transcriber.Transcriber, sub submitter, n route.Normalizer) *app {
	return &app{
		rec:        rec,
		tr:         tr,
		sub:        sub,
		normalizer: n,
		copyText:   clipboard.Copy,
		readText:   clipboard.Read,
	}
}

// publish records the latest results. It is the orchestrator's publish hook.
func (a *app) publish(responses []*route.Response) {
	normalized := make([]route.Normalized, len(responses))
	for i, r := range responses {
		normalized[i] = a.normalizer.Normalize(r)
	}
	a.mu.Lock()
	a.last = normalized
	a.mu.Unlock()
}

func (a *app) results() []route.Normalized {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// transcribeRecording stops the capture session and sends its artifact to
// the transcription endpoint.
func (a *app) transcribeRecording(ctx context.Context) (string, error) {
	art, err := a.rec.Stop()
	if err != nil {
		return "", err
	}
	if art == nil {
		return "", nil
	}
	return a.tr.Transcribe(ctx, transcriber.Audio{
		Data:      art.Data,
		Filename:  art.Filename,
		MediaType: art.MediaType,
	})
}

func (a *app) submit(ctx context.Context, raw string) ([]route.Normalized, error) {
	responses, err := a.sub.Submit(ctx, raw)
	if responses == nil {
		return nil, err
	}
	out := make([]route.Normalized, len(responses))
	for i, r := range responses {
		out[i] = a.normalizer.Normalize(r)
	}
	return out, err
}

func (a *app) copySummaries() (int, error) {
	last := a.results()
	if len(last) == 0 {
		return 0, fmt.Errorf("no results to copy")
	}
	return len(last), a.copyText(summaries(last))
}

func summaries(results []route.Normalized) string {
	lines := make([]string, len(results))
	for i, n := range results {
		lines[i] = n.Summary()
	}
	return strings.Join(lines, "\n")
}
