package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"itinera/submit"
	"itinera/transcriber"
)

type headlessInput struct {
	text  string
	file  string
	paste bool
}

// runHeadless resolves one input and prints the rich view followed by the
// summary lines.
func runHeadless(ctx context.Context, a *app, in headlessInput) int {
	var raw string
	var err error
	switch {
	case in.text != "":
		raw = in.text
	case in.file != "":
		raw, err = transcriber.ReadUpload(ctx, in.file, a.tr)
	case in.paste:
		raw, err = a.readText()
	}
	if err != nil {
		reportError(err)
		return 1
	}
	return printSubmission(ctx, a, raw)
}

func printSubmission(ctx context.Context, a *app, raw string) int {
	results, err := a.submit(ctx, raw)
	var partial *submit.PartialError
	if err != nil && !errors.As(err, &partial) {
		reportError(err)
		return 1
	}

	fmt.Print(renderResults(results, 80))
	fmt.Println()
	fmt.Println(summaries(results))
	if partial != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", partial)
		return 2
	}
	return 0
}
