package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tarancss/suiadp/lib/logx"
)

const timeout = 15

var requests = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Namespace: "suiadp",
	Subsystem: "wallet",
	Name:      "requests_total",
	Help:      "Wallet API requests by route and status code.",
}, []string{"route", "code"})

type servers struct {
	mu sync.Mutex
	s  *http.Server  // http server
	ss *http.Server  // https server
	sc chan struct{} // closed when the servers have been shut down
}

// statusWriter remembers the status code written.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: rw, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unknown"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		requests.WithLabelValues(route, strconv.Itoa(sw.status)).Inc()
	})
}

// Handler returns the router of the RESTful API.
func (w *Wallet) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(countRequests)
	r.HandleFunc("/", w.homeHandler)
	r.HandleFunc("/networks", w.networksHandler).Methods(http.MethodGet)
	r.HandleFunc("/address/{address}", w.addrBalHandler).Methods(http.MethodGet)
	r.HandleFunc("/address/{address}/coins", w.coinsHandler).Methods(http.MethodGet)
	r.HandleFunc("/coin/{coinType}", w.coinHandler).Methods(http.MethodGet)
	r.HandleFunc("/address", w.hdAddrHandler).Methods(http.MethodGet)
	r.HandleFunc("/listen/{address}", w.listenHandler)
	r.HandleFunc("/listen", w.getAddrHandler).Methods(http.MethodGet)
	r.HandleFunc("/send", w.sendHandler).Methods(http.MethodPost)
	r.HandleFunc("/transfers", w.transfersHandler).Methods(http.MethodGet)
	r.HandleFunc("/tx/{digest}", w.txHandler).Methods(http.MethodGet)

	return r
}

// Init sets up and starts the http/https server to service the RESTful API for a wallet service. If sslPort, sslCert
// and sslKey are informed, it will also start an https (TLS) server on the specified endpoint. Init returns when the
// servers are shut down.
func (w *Wallet) Init(endpoint, port, sslPort, sslCert, sslKey string) string {
	var errCh, errTLSCh chan error

	h := w.Handler()
	sc := make(chan struct{})

	w.srv.mu.Lock()
	w.srv.sc = sc

	if port != "" {
		errCh = make(chan error, 1)
		s := &http.Server{
			Handler:      h,
			Addr:         endpoint + ":" + port,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}
		w.srv.s = s

		go func() { errCh <- s.ListenAndServe() }()

		logx.Info("WALLET", "Listening to API http requests on ", endpoint, ":", port)
	}

	if sslPort != "" && sslCert != "" && sslKey != "" {
		errTLSCh = make(chan error, 1)
		ss := &http.Server{
			Handler:      h,
			Addr:         endpoint + ":" + sslPort,
			WriteTimeout: timeout * time.Second,
			ReadTimeout:  timeout * time.Second,
		}
		w.srv.ss = ss

		go func() { errTLSCh <- ss.ListenAndServeTLS(sslCert, sslKey) }()

		logx.Info("WALLET", "Listening to API https requests on ", endpoint, ":", sslPort)
	}
	w.srv.mu.Unlock()

	<-sc

	return fmt.Sprintf("shutdown http server:%v, https server:%v", served(errCh), served(errTLSCh))
}

// served returns the error a server stopped with, if it was started and not shut down.
func served(ch chan error) error {
	if ch == nil {
		return nil
	}

	if err := <-ch; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// running reports whether Init has started the servers.
func (w *Wallet) running() bool {
	w.srv.mu.Lock()
	defer w.srv.mu.Unlock()

	return w.srv.sc != nil
}

func (w *Wallet) shutdown(ctx context.Context) {
	w.srv.mu.Lock()
	defer w.srv.mu.Unlock()

	for _, s := range []*http.Server{w.srv.s, w.srv.ss} {
		if s == nil {
			continue
		}

		if err := s.Shutdown(ctx); err != nil {
			logx.Error("WALLET", "Error in server shutdown: ", err)
		}
	}

	if w.srv.sc != nil {
		close(w.srv.sc)
		w.srv.sc = nil
	}
}
