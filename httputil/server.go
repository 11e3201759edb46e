package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/petopia/pipecodec/log"
)

// LogRequests wraps h and logs every request with log.HTTPRequest
func LogRequests(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		cw := NewCapturingResponseWriter(w)
		h.ServeHTTP(cw, r)
		dur := time.Since(start)
		if err := log.HTTPRequest(r, cw.StatusCode, cw.Size, dur); err != nil {
			log.Errorf("log.HTTPRequest() failed with '%s'\n", err)
		}
		log.Verbosef("%s %s %d %d in %s\n", r.Method, r.URL.Path, cw.StatusCode, cw.Size, dur)
	})
}

// NewTimeoutClient returns http.Client with connect and overall timeouts
func NewTimeoutClient(connectTimeout time.Duration, timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: connectTimeout,
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:         dialer.DialContext,
			Proxy:               http.ProxyFromEnvironment,
			TLSHandshakeTimeout: connectTimeout,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func NewDefaultTimeoutClient() *http.Client {
	return NewTimeoutClient(time.Second*30, time.Second*120)
}

// NewServer returns http.Server with sane timeouts
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  120 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// RunServer serves until ctx is cancelled, then shuts down giving
// in-flight requests up to 5 seconds to finish
func RunServer(ctx context.Context, srv *http.Server) error {
	chErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		// mute error caused by Shutdown()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		chErr <- err
	}()
	select {
	case err := <-chErr:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-chErr
}
