package transcriber

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"itinera/transport"
)

func TestTranscribeSendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		if string(data) != "RIFFdata" {
			t.Errorf("file body = %q", data)
		}
		if header.Filename != "recording.wav" {
			t.Errorf("filename = %q", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("part content type = %q", ct)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcribedText": " de Paris à Lyon "}`))
	}))
	defer srv.Close()

	c := New(srv.URL, transport.Policy{})
	text, err := c.Transcribe(context.Background(), Audio{
		Data:      []byte("RIFFdata"),
		Filename:  "recording.wav",
		MediaType: "audio/wav",
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "de Paris à Lyon" {
		t.Errorf("text = %q", text)
	}
}

func TestTranscribeFailures(t *testing.T) {
	for _, tt := range []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error": "Échec de la transcription."}`},
		{"bad request", http.StatusBadRequest, `plain`},
		{"malformed json", http.StatusOK, `{not json`},
		{"missing field", http.StatusOK, `{}`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, transport.Policy{}).Transcribe(context.Background(), Audio{Filename: "a.m4a"})
			if !errors.Is(err, ErrTranscriptionFailed) {
				t.Fatalf("err = %v, want ErrTranscriptionFailed", err)
			}
		})
	}
}

func TestTranscribeTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, transport.Policy{}).Transcribe(context.Background(), Audio{Filename: "a.m4a"})
	if !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("err = %v, want ErrTranscriptionFailed", err)
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadUploadText(t *testing.T) {
	fake := NewFake("unused", nil)
	path := writeFile(t, "route.TXT", "1,Paris à Lyon\n")

	text, err := ReadUpload(context.Background(), path, fake)
	if err != nil {
		t.Fatal(err)
	}
	if text != "1,Paris à Lyon\n" {
		t.Errorf("text = %q", text)
	}
	if len(fake.Calls()) != 0 {
		t.Error("text upload must not call the transcriber")
	}
}

func TestReadUploadAudio(t *testing.T) {
	fake := NewFake("de Nantes à Brest", nil)
	path := writeFile(t, "memo.m4a", "m4a-bytes")

	text, err := ReadUpload(context.Background(), path, fake)
	if err != nil {
		t.Fatal(err)
	}
	if text != "de Nantes à Brest" {
		t.Errorf("text = %q", text)
	}
	calls := fake.Calls()
	if len(calls) != 1 || calls[0].Filename != "memo.m4a" || string(calls[0].Data) != "m4a-bytes" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestReadUploadRejectsOtherTypes(t *testing.T) {
	fake := NewFake("x", nil)
	for _, name := range []string{"memo.mp3", "route.pdf", "noext"} {
		t.Run(name, func(t *testing.T) {
			// the file does not exist: rejection must happen before any read
			_, err := ReadUpload(context.Background(), filepath.Join(t.TempDir(), name), fake)
			if !errors.Is(err, ErrUnsupportedFileType) {
				t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
			}
		})
	}
	if len(fake.Calls()) != 0 {
		t.Error("rejected uploads must not call the transcriber")
	}
}

func TestReadUploadTranscriptionFailure(t *testing.T) {
	fake := NewFake("", errors.New("boom"))
	path := writeFile(t, "memo.m4a", "x")
	if _, err := ReadUpload(context.Background(), path, fake); !errors.Is(err, ErrTranscriptionFailed) {
		t.Fatalf("err = %v", err)
	}
}
