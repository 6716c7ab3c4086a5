package route

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// MalformedResponse is shown when an invalid response carries no error
// information of its own.
const MalformedResponse = "Réponse inattendue du service d'itinéraire."

// Strategy decides whether a response's route model is valid.
type Strategy int

const (
	// ErrorList trusts the service to populate error_nlp.
	ErrorList Strategy = iota
	// Structural also requires a non-empty waypoint list whose first
	// element carries both a label and a word.
	Structural
)

func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "errors", "errorlist":
		return ErrorList, nil
	case "structural":
		return Structural, nil
	}
	return 0, fmt.Errorf("unknown strategy %q (want errors or structural)", s)
}

func (s Strategy) String() string {
	if s == Structural {
		return "structural"
	}
	return "errors"
}

// Normalized is a response shaped for presentation.
type Normalized struct {
	SentenceID int
	Text       string
	Valid      bool
	// Items is sorted canonically and only set when Valid.
	Items []Item
	// Errors is never empty when Valid is false.
	Errors []string
	// Itinerary is nil unless it is safe to present.
	Itinerary []ItineraryItem
	// RouteErrors lists the non-null route errors, which suppress the
	// itinerary even when the model is valid.
	RouteErrors []string
	Raw         Model
}

type Normalizer struct {
	Strategy Strategy
}

func (n Normalizer) valid(r *Response) bool {
	if len(r.NLPErrors) > 0 || len(r.Model.Errors) > 0 || r.Model.Malformed {
		return false
	}
	if n.Strategy == Structural {
		if len(r.Model.Items) == 0 {
			return false
		}
		first := r.Model.Items[0]
		return first.Label != "" && first.Word != ""
	}
	return true
}

func (n Normalizer) Normalize(r *Response) Normalized {
	out := Normalized{
		SentenceID: r.SentenceID,
		Text:       r.Text,
		Raw:        r.Model,
		Valid:      n.valid(r),
	}

	if out.Valid {
		out.Items = SortItems(r.Model.Items)
	} else {
		out.Errors = append(nonNull(r.NLPErrors), nonNull(r.RouteErrs)...)
		if len(out.Errors) == 0 {
			out.Errors = append(out.Errors, r.Model.Errors...)
		}
		if len(out.Errors) == 0 {
			out.Errors = []string{MalformedResponse}
		}
	}

	out.RouteErrors = nonNull(r.RouteErrs)
	if out.Valid && len(out.RouteErrors) == 0 {
		out.Itinerary = r.Itinerary
	}
	return out
}

// SortItems returns a copy of items in DEPART, CORRESPONDANCE, ARRIVEE
// order. Items with equal labels keep their input order.
func SortItems(items []Item) []Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return a.Label.Rank() - b.Label.Rank()
	})
	return sorted
}

// Summary is the compact single-line form: "id,word1,word2" when valid,
// "id,<raw model>" otherwise.
func (n Normalized) Summary() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(n.SentenceID))
	b.WriteByte(',')
	if n.Valid {
		for i, it := range n.Items {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(it.Word)
		}
		return b.String()
	}
	b.WriteString(n.Raw.String())
	return b.String()
}

// TotalDuration sums the segment durations of the presentable itinerary.
// Segments reporting an error are skipped.
func (n Normalized) TotalDuration() (time.Duration, error) {
	var total time.Duration
	for _, it := range n.Itinerary {
		if it.Err != "" {
			continue
		}
		d, err := it.Duration()
		if err != nil {
			return 0, err
		}
		total += d
	}
	return total, nil
}
