package submit

import (
	"strconv"
	"strings"
)

// Request is one sentence of route text with its identifier.
type Request struct {
	ID   int
	Text string
}

// Split breaks raw input into one request per non-blank line, in input
// order. A line of the form "<digits>,<text>" carries its own ID; any other
// line gets ID 0 and keeps its whole text.
func Split(raw string) []Request {
	var reqs []Request
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		reqs = append(reqs, parseLine(line))
	}
	return reqs
}

func parseLine(line string) Request {
	digits := 0
	for digits < len(line) && line[digits] >= '0' && line[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits == len(line) || line[digits] != ',' {
		return Request{Text: line}
	}
	id, err := strconv.Atoi(line[:digits])
	if err != nil {
		// out of range for int
		return Request{Text: line}
	}
	return Request{ID: id, Text: strings.TrimSpace(line[digits+1:])}
}
