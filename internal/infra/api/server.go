package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/hakudoge53/candilingo-sub001/internal/config"
	"github.com/hakudoge53/candilingo-sub001/internal/usecase"
)

// AttemptLimiter throttles redemption attempts per key. Implemented by the
// Redis fixed-window limiter; nil disables throttling.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Server wires the referral endpoints to their use cases.
type Server struct {
	referralUC *usecase.ReferralUseCase
	codeUC     *usecase.CodeUseCase
	limiter    AttemptLimiter
	cfg        *config.Config
	log        *zerolog.Logger
}

func NewServer(
	referralUC *usecase.ReferralUseCase,
	codeUC *usecase.CodeUseCase,
	limiter AttemptLimiter,
	cfg *config.Config,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		referralUC: referralUC,
		codeUC:     codeUC,
		limiter:    limiter,
		cfg:        cfg,
		log:        logger,
	}
}

// Routes builds the router with the full middleware chain.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()

	base := func(h http.Handler) http.Handler {
		return Chain(h,
			TraceID(),
			RequestLog(s.log),
			Recover(s.log),
			Timeout(s.cfg.Server.Timeout),
		)
	}

	r.Method(http.MethodGet, "/health", base(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Method(http.MethodPost, "/referral/redeem",
			base(Chain(http.HandlerFunc(s.handleRedeem), UserAuth(s.cfg.Server.JWTSecret))))

		r.Route("/admin", func(r chi.Router) {
			admin := func(h http.Handler) http.Handler {
				return base(Chain(h, AdminAuth(s.cfg.Server.AdminAPIKey, s.log)))
			}
			r.Method(http.MethodPost, "/codes", admin(http.HandlerFunc(s.handleCreateCode)))
			r.Method(http.MethodGet, "/codes", admin(http.HandlerFunc(s.handleListCodes)))
		})
	})

	return r
}

// Start runs the HTTP server until ctx is cancelled, then drains it.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info().Str("addr", addr).Msg("http server listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
