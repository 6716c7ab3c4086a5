package main

import (
	"flag"
	"testing"
)

func TestRunsHeadless(t *testing.T) {
	for _, tt := range []struct {
		args []string
		want bool
	}{
		{nil, false},
		{[]string{"-text", "Paris à Lyon"}, true},
		{[]string{"-paste"}, true},
		{[]string{"-file", "route.txt", "-tui=false"}, true},
		{[]string{"-text", "Paris à Lyon", "-tui"}, false},
		{[]string{"-text", "Paris à Lyon", "-tui=true"}, false},
		{[]string{"-text", "Paris à Lyon", "-test"}, false},
		{[]string{"-tui=false"}, false},
	} {
		fs := flag.NewFlagSet("itinera", flag.ContinueOnError)
		text := fs.String("text", "", "")
		file := fs.String("file", "", "")
		paste := fs.Bool("paste", false, "")
		tui := fs.Bool("tui", true, "")
		test := fs.Bool("test", false, "")
		if err := fs.Parse(tt.args); err != nil {
			t.Fatal(err)
		}
		explicit := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

		got := runsHeadless(explicit["tui"] && *tui, *test, *text != "" || *file != "" || *paste)
		if got != tt.want {
			t.Errorf("%q: headless = %v, want %v", tt.args, got, tt.want)
		}
	}
}
