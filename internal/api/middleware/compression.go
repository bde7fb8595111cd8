package middleware

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"net"
	"strings"

	"github.com/gin-gonic/gin"
)

// gzipMinLength is the smallest response body worth compressing.
const gzipMinLength = 1024

// Compression returns middleware that gzips response bodies when the
// client advertises support. Small bodies and media content types pass
// through untouched.
func Compression() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.Request.Header.Get("Accept-Encoding"), "gzip") {
			c.Next()
			return
		}

		gw := &gzipWriter{
			ResponseWriter: c.Writer,
			buf:            new(bytes.Buffer),
		}
		c.Writer = gw
		c.Header("Vary", "Accept-Encoding")

		c.Next()

		gw.flushBody()
	}
}

type gzipWriter struct {
	gin.ResponseWriter
	buf *bytes.Buffer
}

func (g *gzipWriter) Write(data []byte) (int, error) {
	return g.buf.Write(data)
}

func (g *gzipWriter) WriteString(s string) (int, error) {
	return g.buf.WriteString(s)
}

func (g *gzipWriter) flushBody() error {
	body := g.buf.Bytes()
	contentType := g.Header().Get("Content-Type")

	if len(body) < gzipMinLength || skipContentType(contentType) {
		_, err := g.ResponseWriter.Write(body)
		return err
	}

	g.Header().Set("Content-Encoding", "gzip")
	g.Header().Del("Content-Length")

	gz := gzip.NewWriter(g.ResponseWriter)
	if _, err := gz.Write(body); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

func skipContentType(contentType string) bool {
	for _, prefix := range []string{"image/", "video/", "audio/"} {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}
	return false
}

func (g *gzipWriter) CloseNotify() <-chan bool {
	return g.ResponseWriter.CloseNotify()
}

func (g *gzipWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return g.ResponseWriter.Hijack()
}
