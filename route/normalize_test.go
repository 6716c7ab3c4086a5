package route

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

func decode(t *testing.T, body string) *Response {
	t.Helper()
	r, err := Decode([]byte(body))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return r
}

func labels(items []Item) []Label {
	out := make([]Label, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func TestSortItemsIsStable(t *testing.T) {
	in := []Item{
		{Arrivee, "Lyon"},
		{Depart, "Paris"},
		{Correspondance, "Dijon"},
		{Correspondance, "Mâcon"},
	}
	got := SortItems(in)

	want := []Item{
		{Depart, "Paris"},
		{Correspondance, "Dijon"},
		{Correspondance, "Mâcon"},
		{Arrivee, "Lyon"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortItems = %v, want %v", got, want)
	}
	if in[0].Label != Arrivee {
		t.Error("SortItems must not reorder its input")
	}
}

func TestSortItemsUnknownLabelFirst(t *testing.T) {
	got := SortItems([]Item{{Arrivee, "Lyon"}, {"VIA", "x"}, {Depart, "Paris"}})
	if want := []Label{"VIA", Depart, Arrivee}; !reflect.DeepEqual(labels(got), want) {
		t.Errorf("labels = %v, want %v", labels(got), want)
	}
}

func TestNormalizeValid(t *testing.T) {
	r := decode(t, `{
		"IDsentence": 3,
		"text": "je vais de paris à lyon",
		"responsesmodel": [{"label":"ARRIVEE","word":"Lyon"},{"label":"DEPART","word":"Paris"}],
		"itinerary": [{"Itineraire":"Paris → Lyon","Duree_totale":"01:57:00","Correspondances":["TGV 6601: Paris → Lyon"]}],
		"error_nlp": [],
		"error_route": [null]
	}`)

	for _, s := range []Strategy{ErrorList, Structural} {
		t.Run(s.String(), func(t *testing.T) {
			n := Normalizer{Strategy: s}.Normalize(r)
			if !n.Valid {
				t.Fatalf("expected valid, errors %v", n.Errors)
			}
			if got := labels(n.Items); !reflect.DeepEqual(got, []Label{Depart, Arrivee}) {
				t.Errorf("labels = %v", got)
			}
			if len(n.Errors) != 0 {
				t.Errorf("errors = %v", n.Errors)
			}
			if len(n.Itinerary) != 1 || n.Itinerary[0].Connections[0] != "TGV 6601: Paris → Lyon" {
				t.Errorf("itinerary = %+v", n.Itinerary)
			}
			if n.Summary() != "3,Paris,Lyon" {
				t.Errorf("summary = %q", n.Summary())
			}
		})
	}
}

func TestNLPErrorsWinOverWellFormedModel(t *testing.T) {
	r := decode(t, `{
		"responsesmodel": [{"label":"DEPART","word":"Paris"},{"label":"ARRIVEE","word":"Lyon"}],
		"error_nlp": ["NO_DEPARTURE"],
		"error_route": ["gare inconnue", null],
		"itinerary": [{"Itineraire":"Paris → Lyon","Duree_totale":"01:57:00"}]
	}`)
	for _, s := range []Strategy{ErrorList, Structural} {
		n := Normalizer{Strategy: s}.Normalize(r)
		if n.Valid {
			t.Errorf("%s: expected invalid", s)
		}
		if want := []string{"NO_DEPARTURE", "gare inconnue"}; !reflect.DeepEqual(n.Errors, want) {
			t.Errorf("%s: errors = %v, want %v", s, n.Errors, want)
		}
		if n.Itinerary != nil {
			t.Errorf("%s: itinerary must be suppressed", s)
		}
		if n.Items != nil {
			t.Errorf("%s: items must be unset when invalid", s)
		}
	}
}

func TestItineraryUsability(t *testing.T) {
	const model = `"responsesmodel": [{"label":"DEPART","word":"Paris"},{"label":"ARRIVEE","word":"Lyon"}],
		"itinerary": [{"Itineraire":"a","Duree_totale":"00:30:00"},{"Itineraire":"b","Duree_totale":"01:00:00"}]`

	for _, tt := range []struct {
		name      string
		routeErrs string
		usable    bool
	}{
		{"all null", `[null, null]`, true},
		{"absent", `null`, true},
		{"one blocked", `[null, "segment blocked"]`, false},
	} {
		t.Run(tt.name, func(t *testing.T) {
			r := decode(t, `{`+model+`, "error_route": `+tt.routeErrs+`}`)
			n := Normalizer{}.Normalize(r)
			if !n.Valid {
				t.Errorf("model should stay valid, errors %v", n.Errors)
			}
			if got := n.Itinerary != nil; got != tt.usable {
				t.Errorf("itinerary usable = %v, want %v", got, tt.usable)
			}
		})
	}
}

func TestErrorShapedModel(t *testing.T) {
	r := decode(t, `{"IDsentence": 2, "text": "hello", "responsesmodel": ["NOT_FRENCH"], "itinerary": []}`)
	n := Normalizer{}.Normalize(r)
	if n.Valid {
		t.Fatal("error-shaped model must be invalid")
	}
	if want := []string{"NOT_FRENCH"}; !reflect.DeepEqual(n.Errors, want) {
		t.Errorf("errors = %v", n.Errors)
	}
	if n.Summary() != "2,NOT_FRENCH" {
		t.Errorf("summary = %q", n.Summary())
	}
}

func TestMalformedFallback(t *testing.T) {
	for _, body := range []string{
		`{"responsesmodel": [], "error_nlp": [null]}`,
		`{"responsesmodel": null}`,
		`{"responsesmodel": "oops"}`,
	} {
		n := Normalizer{Strategy: Structural}.Normalize(decode(t, body))
		if n.Valid {
			t.Errorf("%s: expected invalid under structural strategy", body)
			continue
		}
		if !reflect.DeepEqual(n.Errors, []string{MalformedResponse}) {
			t.Errorf("%s: errors = %v", body, n.Errors)
		}
	}
}

func TestOddModelShapesAreMalformed(t *testing.T) {
	for _, body := range []string{
		`{"responsesmodel": [{"label":"DEPART","word":3}]}`,
		`{"responsesmodel": [{"label":"DEPART","word":"Lille"},"NOT_FRENCH"]}`,
		`{"responsesmodel": ["NOT_FRENCH",{"label":"DEPART","word":"Lille"}]}`,
		`{"responsesmodel": [1, 2]}`,
		`{"responsesmodel": {"label":"DEPART"}}`,
	} {
		r := decode(t, body)
		if !r.Model.Malformed || r.Model.Items != nil || r.Model.Errors != nil {
			t.Errorf("%s: model = %+v", body, r.Model)
		}
		n := Normalizer{}.Normalize(r)
		if n.Valid {
			t.Errorf("%s: expected invalid", body)
			continue
		}
		if !reflect.DeepEqual(n.Errors, []string{MalformedResponse}) {
			t.Errorf("%s: errors = %v", body, n.Errors)
		}
	}
}

func TestBareStringErrorLists(t *testing.T) {
	r := decode(t, `{
		"responsesmodel": [{"label":"DEPART","word":"Lille"}],
		"error_nlp": "NOT_FRENCH",
		"error_route": 404
	}`)
	n := Normalizer{}.Normalize(r)
	if n.Valid {
		t.Fatal("a bare NLP error must invalidate the response")
	}
	if !reflect.DeepEqual(n.Errors, []string{"NOT_FRENCH", "404"}) {
		t.Errorf("errors = %v", n.Errors)
	}
}

func TestNullNLPErrorInvalidates(t *testing.T) {
	r := decode(t, `{
		"responsesmodel": [{"label":"DEPART","word":"Lille"},{"label":"ARRIVEE","word":"Paris"}],
		"error_nlp": [null]
	}`)
	for _, s := range []Strategy{ErrorList, Structural} {
		n := Normalizer{Strategy: s}.Normalize(r)
		if n.Valid {
			t.Errorf("%v: a non-empty NLP error list must invalidate the response", s)
			continue
		}
		if !reflect.DeepEqual(n.Errors, []string{MalformedResponse}) {
			t.Errorf("%v: errors = %v", s, n.Errors)
		}
	}
}

func TestStructuralRequiresLabelAndWord(t *testing.T) {
	r := decode(t, `{"responsesmodel": [{"label":"DEPART"}]}`)
	if (Normalizer{Strategy: Structural}).Normalize(r).Valid {
		t.Error("structural strategy must reject an item without word")
	}
	if !(Normalizer{Strategy: ErrorList}).Normalize(r).Valid {
		t.Error("error-list strategy only looks at error information")
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	r := decode(t, `{
		"IDsentence": 41,
		"responsesmodel": [
			{"label":"ARRIVEE","word":"Marseille"},
			{"label":"CORRESPONDANCE","word":"Lyon"},
			{"label":"DEPART","word":"Lille"},
			{"label":"CORRESPONDANCE","word":"Avignon"}
		]
	}`)
	n := Normalizer{}.Normalize(r)

	fields := strings.Split(n.Summary(), ",")
	id, err := strconv.Atoi(fields[0])
	if err != nil || id != 41 {
		t.Fatalf("id field = %q", fields[0])
	}
	if want := []string{"Lille", "Lyon", "Avignon", "Marseille"}; !reflect.DeepEqual(fields[1:], want) {
		t.Errorf("words = %v, want %v", fields[1:], want)
	}
}

func TestTotalDuration(t *testing.T) {
	n := Normalized{Itinerary: []ItineraryItem{
		{TotalTime: "01:30:00"},
		{Err: "Aucun chemin trouvé."},
		{TotalTime: "100:00:15"},
	}}
	d, err := n.TotalDuration()
	if err != nil {
		t.Fatal(err)
	}
	if want := 101*time.Hour + 30*time.Minute + 15*time.Second; d != want {
		t.Errorf("total = %v, want %v", d, want)
	}

	n.Itinerary = append(n.Itinerary, ItineraryItem{TotalTime: "1h"})
	if _, err := n.TotalDuration(); err == nil {
		t.Error("expected parse error")
	}
}

func TestItineraryItemSpellings(t *testing.T) {
	r := decode(t, `{"responsesmodel": [], "itinerary": [
		{"Itineraire":"a","Duree_totale":"00:01:00","Correspondance":["x"]},
		{"Erreur":"Aucune gare trouvée pour Atlantis"}
	]}`)
	if got := r.Itinerary[0].Connections; !reflect.DeepEqual(got, []string{"x"}) {
		t.Errorf("connections = %v", got)
	}
	if r.Itinerary[1].Err == "" {
		t.Error("Erreur not decoded")
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": ErrorList, "errors": ErrorList, "Structural": Structural} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("magic"); err == nil {
		t.Error("expected error")
	}
}
