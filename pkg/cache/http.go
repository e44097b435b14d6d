package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ResponseToEntry converts an HTTP response to an Entry.
// The response body is restored after reading so the caller can still
// return the live response. When the read fails the restored body yields
// the bytes read so far followed by the same error, and the returned error
// wraps ErrBodyRead.
func ResponseToEntry(resp *http.Response) (*Entry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	var body []byte
	if resp.Body != nil {
		var err error
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			resp.Body = partialBody{
				Reader: io.MultiReader(bytes.NewReader(body), errReader{err}),
				Closer: resp.Body,
			}
			return nil, fmt.Errorf("%w: %w", ErrBodyRead, err)
		}
		resp.Body.Close()
	}

	// Restore body for caller
	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry := &Entry{
		Data:       body,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   time.Now(),
	}
	if resp.Request != nil && resp.Request.URL != nil {
		entry.URL = resp.Request.URL.String()
	}

	return entry, nil
}

// EntryToResponse converts a cache entry back to an HTTP response for req.
func EntryToResponse(entry *Entry, req *http.Request) *http.Response {
	headers := entry.Headers.Clone()
	if headers == nil {
		headers = http.Header{}
	}
	headers.Set("Content-Length", strconv.Itoa(len(entry.Data)))

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", entry.StatusCode, http.StatusText(entry.StatusCode)),
		StatusCode:    entry.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        headers,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
		Request:       req,
	}
}

// partialBody replays the bytes read before a body failure and then the
// failure itself, closing the original body.
type partialBody struct {
	io.Reader
	io.Closer
}

type errReader struct{ err error }

func (r errReader) Read([]byte) (int, error) { return 0, r.err }
