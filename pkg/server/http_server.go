package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/buildgrid-io/buildgrid/pkg/application"
)

type HTTPServer struct {
	logger *logrus.Logger
	router *mux.Router
}

func NewHTTPServer(app application.Application, logger *logrus.Logger) *HTTPServer {
	router := mux.NewRouter()
	router.Use(app.Middleware()...)
	for _, controller := range app.Controllers() {
		controller.Register(router)
	}
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return &HTTPServer{logger: logger, router: router}
}

func (s *HTTPServer) Start(socketAddress string) error {
	srv := &http.Server{
		Addr:         socketAddress,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	s.logger.Infof("http server listening on %s", socketAddress)
	return srv.ListenAndServe()
}
