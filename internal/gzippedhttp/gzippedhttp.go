// Package gzippedhttp provides utilities for handling gzip-compressed HTTP requests and responses.
// It includes wrappers for http.ResponseWriter and io.ReadCloser that transparently compress
// or decompress data using gzip format.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressedReader wraps an io.ReadCloser and decompresses its input using gzip.
type CompressedReader struct {
	r  io.ReadCloser
	zr *gzip.Reader
}

// NewCompressedReader returns a new CompressedReader that reads gzip-compressed data
// from the provided io.ReadCloser.
func NewCompressedReader(requestBody io.ReadCloser) (*CompressedReader, error) {
	zippedRequestBody, err := gzip.NewReader(requestBody)
	if err != nil {
		return nil, err
	}

	return &CompressedReader{
		r:  requestBody,
		zr: zippedRequestBody,
	}, nil
}

// Read reads decompressed data from the underlying gzip stream.
func (c CompressedReader) Read(p []byte) (n int, err error) {
	return c.zr.Read(p)
}

// Close closes both the gzip reader and the underlying io.ReadCloser.
func (c *CompressedReader) Close() error {
	if err := c.r.Close(); err != nil {
		return err
	}
	return c.zr.Close()
}

// CompressedHTTPResponseWriter wraps http.ResponseWriter and compresses
// successful response bodies using gzip. Error responses and responses
// without a body are written as is.
type CompressedHTTPResponseWriter struct {
	w           http.ResponseWriter
	zw          *gzip.Writer
	wroteHeader bool
	compress    bool
}

// NewCompressedHTTPResponseWriter returns a new CompressedHTTPResponseWriter
// that writes gzip-compressed responses to the provided http.ResponseWriter.
func NewCompressedHTTPResponseWriter(w http.ResponseWriter) *CompressedHTTPResponseWriter {
	return &CompressedHTTPResponseWriter{
		w: w,
	}
}

// Close flushes the gzip stream if one was started.
func (c *CompressedHTTPResponseWriter) Close() error {
	if c.zw == nil {
		return nil
	}
	err := c.zw.Close()
	if err != nil {
		return err
	}
	gzipWriterPool.Put(c.zw)
	c.zw = nil
	return nil
}

// WriteHeader sets the HTTP status code for the response and decides
// whether the body is compressed.
func (c *CompressedHTTPResponseWriter) WriteHeader(statusCode int) {
	if c.wroteHeader {
		return
	}
	c.wroteHeader = true

	if statusCode < http.StatusMultipleChoices && statusCode != http.StatusNoContent {
		c.compress = true
		c.w.Header().Set("Content-Encoding", "gzip")
		c.w.Header().Del("Content-Length")
		c.zw = gzipWriterPool.Get().(*gzip.Writer)
		c.zw.Reset(c.w)
	}
	c.w.WriteHeader(statusCode)
}

// Write writes the response body, gzip-compressed when compression is on.
func (c *CompressedHTTPResponseWriter) Write(p []byte) (int, error) {
	if !c.wroteHeader {
		c.WriteHeader(http.StatusOK)
	}
	if c.compress {
		return c.zw.Write(p)
	}
	return c.w.Write(p)
}

// Header returns the HTTP headers associated with the response.
func (c *CompressedHTTPResponseWriter) Header() http.Header {
	return c.w.Header()
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

// GzipResponse is the middleware that determines whether a response should be compressed based
// on the request's "Accept-Encoding" header.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		finalResponse := response
		response.Header().Add("Vary", "Accept-Encoding")

		acceptEncoding := request.Header.Get("Accept-Encoding")
		clientAcceptsGzip := strings.Contains(acceptEncoding, "gzip")
		if clientAcceptsGzip {
			responseWithCompression := NewCompressedHTTPResponseWriter(response)
			finalResponse = responseWithCompression
			defer responseWithCompression.Close()
		}

		h.ServeHTTP(finalResponse, request)
	}

	return http.HandlerFunc(middleware)
}

// brokenBody stands in for a request body whose gzip header could not be read.
type brokenBody struct {
	err error
}

func (b brokenBody) Read([]byte) (int, error) {
	return 0, b.err
}

func (b brokenBody) Close() error {
	return nil
}

// UngzipRequest is the middleware that decompresses gzip-encoded request
// bodies when the request's Content-Encoding is "gzip". A body that is not
// valid gzip fails on the first read, so the handler decides what the error
// means for its route.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		contentEncoding := request.Header.Get("Content-Encoding")
		clientSendsGzippedData := strings.Contains(contentEncoding, "gzip")
		if clientSendsGzippedData {
			request.Header.Del("Content-Encoding")
			request.ContentLength = -1

			requestBodyWithCompression, err := NewCompressedReader(request.Body)
			if err != nil {
				request.Body = brokenBody{err: err}
			} else {
				request.Body = requestBodyWithCompression
				defer requestBodyWithCompression.Close()
			}
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}
