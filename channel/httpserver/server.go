package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	ginlib "github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	logx "github.com/tanpawarit/Chative-Order-Intake/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func NewEngine() *ginlib.Engine {
	ginlib.SetMode(ginlib.ReleaseMode)
	r := ginlib.New()
	r.Use(ginlib.Recovery())
	return r
}

type Server struct {
	srv *http.Server
	log zerolog.Logger
}

func NewServer(addr string, engine *ginlib.Engine) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: logx.Component("httpserver"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.srv.Handler == nil {
		return errors.New("gin engine is nil")
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	return s.srv.Shutdown(shutdownCtx)
}
