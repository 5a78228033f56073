package middleware

import (
	"bytes"
	"net/http"
)

// captureWriter buffers a handler's response so it can be stored before
// anything reaches the client.
type captureWriter struct {
	header      http.Header
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func newCaptureWriter() *captureWriter {
	return &captureWriter{header: make(http.Header)}
}

func (c *captureWriter) Header() http.Header {
	return c.header
}

func (c *captureWriter) WriteHeader(status int) {
	if c.wroteHeader {
		return
	}
	c.status = status
	c.wroteHeader = true
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	return c.body.Write(p)
}

// statusCode returns the captured status, 200 if the handler never set one.
func (c *captureWriter) statusCode() int {
	if !c.wroteHeader {
		return http.StatusOK
	}
	return c.status
}

// flush emits the buffered response onto w.
func (c *captureWriter) flush(w http.ResponseWriter) error {
	dst := w.Header()
	for key, values := range c.header {
		dst[key] = values
	}
	w.WriteHeader(c.statusCode())
	_, err := w.Write(c.body.Bytes())
	return err
}
