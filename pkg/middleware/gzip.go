package middleware

import (
	"compress/gzip"
	"strings"

	"github.com/gin-gonic/gin"
)

// GzipMinSize is the smallest response body, in bytes, that gets compressed.
// Bodies below the threshold are written through untouched.
const GzipMinSize = 1000

// Gzip compresses response bodies for clients that accept gzip encoding.
// The decision is deferred until GzipMinSize bytes have been buffered, so
// small payloads skip the compression overhead.
func Gzip() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gw := &gzipWriter{ResponseWriter: c.Writer}
		c.Writer = gw
		defer gw.finish()

		c.Next()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	buf        []byte
	compressor *gzip.Writer
	decided    bool
}

func (w *gzipWriter) Write(p []byte) (int, error) {
	if w.compressor != nil {
		return w.compressor.Write(p)
	}
	if w.decided {
		return w.ResponseWriter.Write(p)
	}

	w.buf = append(w.buf, p...)
	if len(w.buf) >= GzipMinSize {
		w.decided = true
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Del("Content-Length")
		w.compressor = gzip.NewWriter(w.ResponseWriter)
		if _, err := w.compressor.Write(w.buf); err != nil {
			return 0, err
		}
		w.buf = nil
	}
	return len(p), nil
}

// finish flushes whichever path was taken: the compressor, or the plain
// buffer for bodies that never reached the threshold.
func (w *gzipWriter) finish() {
	if w.compressor != nil {
		_ = w.compressor.Close()
		return
	}
	w.decided = true
	if len(w.buf) > 0 {
		_, _ = w.ResponseWriter.Write(w.buf)
		w.buf = nil
	}
}
