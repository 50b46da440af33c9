package processor

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// isRemote reports whether a source is fetched over HTTP instead of read from disk.
func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// openSource opens a local file or downloads a remote document.
func openSource(client *http.Client, source string) (io.ReadCloser, error) {
	if !isRemote(source) {
		return os.Open(source)
	}

	log.Debug().Str("url", source).Msg("Downloading source document")

	resp, err := client.Get(source)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		// Explicitly ignore close error as it's a read-only operation
		_ = resp.Body.Close()
		return nil, fmt.Errorf("download failed: status %d", resp.StatusCode)
	}

	return resp.Body, nil
}
