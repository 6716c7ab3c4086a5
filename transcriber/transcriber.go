package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"itinera/transport"
)

var ErrTranscriptionFailed = errors.New("transcription failed")

// Audio is one finished recording or uploaded audio file.
type Audio struct {
	Data      []byte
	Filename  string
	MediaType string
}

type Transcriber interface {
	Transcribe(ctx context.Context, a Audio) (string, error)
}

// Client posts audio to the transcription endpoint as multipart form data
// and expects {"transcribedText": "..."} back.
type Client struct {
	caller *transport.Caller
	url    string
}

func New(url string, policy transport.Policy) *Client {
	return &Client{
		caller: transport.NewCaller("transcribe", policy),
		url:    url,
	}
}

type transcribeResponse struct {
	TranscribedText *string `json:"transcribedText"`
	Error           string  `json:"error"`
}

func (c *Client) Transcribe(ctx context.Context, a Audio) (string, error) {
	body, contentType, err := multipartBody(a)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	resp, err := c.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	var tr transcribeResponse
	parseErr := json.Unmarshal(resp.Body, &tr)
	if !resp.OK() {
		msg := strings.TrimSpace(string(resp.Body))
		if parseErr == nil && tr.Error != "" {
			msg = tr.Error
		}
		return "", fmt.Errorf("%w: status %d: %s", ErrTranscriptionFailed, resp.StatusCode, msg)
	}
	if parseErr != nil {
		return "", fmt.Errorf("%w: response parse error: %v", ErrTranscriptionFailed, parseErr)
	}
	if tr.TranscribedText == nil {
		return "", fmt.Errorf("%w: response has no transcribedText", ErrTranscriptionFailed)
	}
	return strings.TrimSpace(*tr.TranscribedText), nil
}

func multipartBody(a Audio) ([]byte, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, a.Filename))
	mediaType := a.MediaType
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	h.Set("Content-Type", mediaType)

	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(a.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
