// Package responsewriter records the status and size of a response for
// access logs and metrics.
package responsewriter

import "net/http"

// ResponseWriter wraps http.ResponseWriter. The status defaults to 200 until
// WriteHeader or Write is called.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	written int
	wrote   bool
}

// Wrap returns w unchanged when it is already wrapped.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	if rw, ok := w.(*ResponseWriter); ok {
		return rw
	}
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (w *ResponseWriter) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.status = code
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// StatusCode is the status sent to the client.
func (w *ResponseWriter) StatusCode() int { return w.status }

// BytesWritten counts body bytes only.
func (w *ResponseWriter) BytesWritten() int { return w.written }

// HeaderWritten reports whether the status line has been sent.
func (w *ResponseWriter) HeaderWritten() bool { return w.wrote }

// Unwrap supports http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
