package route

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Label string

const (
	Depart         Label = "DEPART"
	Correspondance Label = "CORRESPONDANCE"
	Arrivee        Label = "ARRIVEE"
)

// Rank orders labels canonically. Unknown labels rank 0 and sort first.
func (l Label) Rank() int {
	switch l {
	case Depart:
		return 1
	case Correspondance:
		return 2
	case Arrivee:
		return 3
	}
	return 0
}

// Item is one waypoint resolved by the route service.
type Item struct {
	Label Label  `json:"label"`
	Word  string `json:"word"`
}

// ItineraryItem is one computed path segment. The service reports a segment
// it could not route with only Erreur set.
type ItineraryItem struct {
	Description string   `json:"Itineraire,omitempty"`
	TotalTime   string   `json:"Duree_totale,omitempty"`
	Connections []string `json:"Correspondances,omitempty"`
	Err         string   `json:"Erreur,omitempty"`
}

func (it *ItineraryItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Itineraire      string   `json:"Itineraire"`
		DureeTotale     string   `json:"Duree_totale"`
		Correspondances []string `json:"Correspondances"`
		Correspondance  []string `json:"Correspondance"`
		Erreur          string   `json:"Erreur"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	it.Description = raw.Itineraire
	it.TotalTime = raw.DureeTotale
	it.Connections = raw.Correspondances
	if it.Connections == nil {
		it.Connections = raw.Correspondance
	}
	it.Err = raw.Erreur
	return nil
}

// Duration parses TotalTime ("HH:MM:SS"; hours may exceed two digits).
func (it ItineraryItem) Duration() (time.Duration, error) {
	parts := strings.Split(it.TotalTime, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", it.TotalTime)
	}
	var total time.Duration
	for i, unit := range []time.Duration{time.Hour, time.Minute, time.Second} {
		n, err := strconv.Atoi(parts[i])
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", it.TotalTime)
		}
		total += time.Duration(n) * unit
	}
	return total, nil
}

// Model is the route model of a response. The service sends either a list
// of waypoints or a list of error strings; the shape of the first element
// decides which. Raw keeps the undecoded value for summaries. A model that
// is neither shape, or mixes them, is Malformed and never valid.
type Model struct {
	Items     []Item
	Errors    []string
	Raw       json.RawMessage
	Malformed bool
}

func (m *Model) UnmarshalJSON(data []byte) error {
	m.Raw = append(json.RawMessage(nil), data...)
	m.Items, m.Errors, m.Malformed = nil, nil, false

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		m.Malformed = true
		return nil
	}
	if len(elems) == 0 {
		return nil
	}

	switch first := bytes.TrimSpace(elems[0]); {
	case len(first) > 0 && first[0] == '{':
		items := make([]Item, 0, len(elems))
		for _, e := range elems {
			var it Item
			if err := json.Unmarshal(e, &it); err != nil {
				m.Malformed = true
				return nil
			}
			items = append(items, it)
		}
		m.Items = items
	case len(first) > 0 && first[0] == '"':
		errs := make([]string, 0, len(elems))
		for _, e := range elems {
			var s string
			if err := json.Unmarshal(e, &s); err != nil {
				m.Malformed = true
				return nil
			}
			errs = append(errs, s)
		}
		m.Errors = errs
	default:
		m.Malformed = true
	}
	return nil
}

func (m Model) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	if m.Items != nil {
		return json.Marshal(m.Items)
	}
	if m.Errors != nil {
		return json.Marshal(m.Errors)
	}
	return []byte("null"), nil
}

// String renders the model the way it appears in a summary line.
func (m Model) String() string {
	if len(m.Errors) > 0 {
		return strings.Join(m.Errors, ",")
	}
	if len(m.Raw) > 0 {
		return string(m.Raw)
	}
	words := make([]string, len(m.Items))
	for i, it := range m.Items {
		words[i] = it.Word
	}
	return strings.Join(words, ",")
}

// Response is the route service's answer for one sentence. Error lists keep
// their null entries.
type Response struct {
	SentenceID int             `json:"IDsentence"`
	Model      Model           `json:"responsesmodel"`
	Text       string          `json:"text"`
	Itinerary  []ItineraryItem `json:"itinerary,omitempty"`
	NLPErrors  []*string       `json:"error_nlp,omitempty"`
	RouteErrs  []*string       `json:"error_route,omitempty"`
}

// messages decodes an error list leniently: a bare value becomes a
// one-element list and non-string entries keep their JSON text.
type messages []*string

func (m *messages) UnmarshalJSON(data []byte) error {
	*m = nil
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		elems = []json.RawMessage{trimmed}
	}
	out := make(messages, 0, len(elems))
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if bytes.Equal(e, []byte("null")) {
			out = append(out, nil)
			continue
		}
		var s string
		if err := json.Unmarshal(e, &s); err != nil {
			s = string(e)
		}
		out = append(out, &s)
	}
	*m = out
	return nil
}

// UnmarshalJSON accepts any JSON object. Fields of an unexpected shape are
// left for the normalizer to reject instead of failing the whole response.
func (r *Response) UnmarshalJSON(data []byte) error {
	var raw struct {
		SentenceID json.RawMessage `json:"IDsentence"`
		Model      Model           `json:"responsesmodel"`
		Text       json.RawMessage `json:"text"`
		Itinerary  json.RawMessage `json:"itinerary"`
		NLPErrors  messages        `json:"error_nlp"`
		RouteErrs  messages        `json:"error_route"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = Response{
		Model:     raw.Model,
		NLPErrors: raw.NLPErrors,
		RouteErrs: raw.RouteErrs,
	}
	// the orchestrator overwrites the identifier anyway
	_ = json.Unmarshal(raw.SentenceID, &r.SentenceID)
	_ = json.Unmarshal(raw.Text, &r.Text)
	var itinerary []ItineraryItem
	if err := json.Unmarshal(raw.Itinerary, &itinerary); err == nil {
		r.Itinerary = itinerary
	}
	return nil
}

func Decode(data []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func nonNull(list []*string) []string {
	var out []string
	for _, s := range list {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}
