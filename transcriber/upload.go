package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFileType = errors.New("unsupported file type")

// ReadUpload turns an uploaded file into route text. Plain text is read as
// is; .m4a audio goes through t. Any other extension is rejected before
// touching the file or the network.
func ReadUpload(ctx context.Context, path string, t Transcriber) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".txt", ".m4a":
	default:
		return "", fmt.Errorf("%w: %q (use .txt or .m4a)", ErrUnsupportedFileType, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if ext == ".txt" {
		return string(data), nil
	}
	return t.Transcribe(ctx, Audio{
		Data:      data,
		Filename:  filepath.Base(path),
		MediaType: "audio/mp4",
	})
}
