// Command toll-example is a runnable demo host: it wires chi, CORS,
// per-IP rate limiting, structured logging, and the toll payment gate
// around a couple of sample routes, plus a dashboard and a Prometheus
// scrape endpoint.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/joho/godotenv"

	"github.com/jeletor/lightning-toll"
	"github.com/jeletor/lightning-toll/internal/logger"
	"github.com/jeletor/lightning-toll/internal/tollconfig"
	"github.com/jeletor/lightning-toll/internal/wallet"
	"github.com/jeletor/lightning-toll/pkg/responders"
)

func main() {
	_ = godotenv.Load()

	cfg, err := tollconfig.Load(os.Getenv("TOLL_CONFIG_FILE"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "toll-example: config error:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Service:     "toll-example",
		Version:     "dev",
		Environment: "development",
	})

	w, mock, err := buildWallet(cfg.Wallet)
	if err != nil {
		log.Fatal().Err(err).Msg("wallet.init_failed")
	}

	booth := toll.New(toll.Opts{
		Wallet:          w,
		Secret:          []byte(cfg.Secret),
		DefaultSats:     cfg.DefaultSats,
		InvoiceExpiry:   cfg.InvoiceExpiry.Duration,
		MacaroonExpiry:  cfg.MacaroonExpiry.Duration,
		BindEndpoint:    &cfg.BindEndpoint,
		BindMethod:      &cfg.BindMethod,
		BindIP:          &cfg.BindIP,
		ReplayCacheSize: cfg.ReplayCacheSize,
		ReplayCacheTTL:  cfg.ReplayCacheTTL.Duration,
		Logger:          log,
		OnPayment: func(event toll.PaymentEvent) {
			log.Info().
				Str("endpoint", event.Endpoint).
				Str("payment_hash", logger.TruncatePaymentHash(event.PaymentHash)).
				Int64("amount_sats", event.AmountSats).
				Msg("payment.settled")
		},
	})
	defer booth.Close()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(logger.Middleware(log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"WWW-Authenticate"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(httprate.Limit(100, time.Minute, httprate.WithKeyByIP()))

	router.Get("/", healthHandler)
	router.Get("/dashboard", booth.Dashboard())
	router.Get("/metrics", booth.Metrics())

	mountJoke(router, booth, cfg.Routes["joke"])
	mountWordcount(router, booth, cfg.Routes["wordcount"])
	mountPay(router, mock)

	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("server.listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server.failed")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("server.shutting_down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server.shutdown_error")
	}
}

// buildWallet constructs the configured wallet adapter. mock is non-nil
// only in mock mode, so the demo's /pay endpoint can settle invoices
// out of band; nwc mode has no such shortcut since settlement happens on
// the Lightning network.
func buildWallet(cfg tollconfig.WalletConfig) (w wallet.Wallet, mock *wallet.Mock, err error) {
	switch cfg.Mode {
	case "nwc":
		nwcWallet, err := wallet.FromURL(cfg.NWCURL)
		if err != nil {
			return nil, nil, fmt.Errorf("wallet: %w", err)
		}
		return wallet.WithBreaker(nwcWallet, wallet.DefaultBreakerConfig()), nil, nil
	default:
		m := wallet.NewMock()
		return wallet.WithBreaker(m, wallet.DefaultBreakerConfig()), m, nil
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	responders.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mountJoke wires a fixed-price route: every hit costs the same number
// of sats regardless of request content.
func mountJoke(router chi.Router, booth *toll.Toll, route tollconfig.RouteConfig) {
	gate := booth.Route(toll.RouteOpts{
		Sats:         satsOr(route.Sats, 10),
		Description:  descriptionOr(route.Description, "A programming joke"),
		FreeRequests: route.FreeRequests,
		FreeWindow:   route.FreeWindow,
	})

	jokes := []string{
		"There are 10 types of people: those who understand binary and those who don't.",
		"A SQL query walks into a bar, approaches two tables, and asks: \"Can I join you?\"",
		"Why do programmers prefer dark mode? Because light attracts bugs.",
	}
	var next int

	router.With(gate).Get("/api/joke", func(w http.ResponseWriter, r *http.Request) {
		joke := jokes[next%len(jokes)]
		next++
		responders.JSON(w, http.StatusOK, map[string]string{"joke": joke})
	})
}

// mountWordcount wires a dynamically priced route: the price scales
// with the size of the submitted body, the route's sats (default 1) per
// started block of 100 words.
func mountWordcount(router chi.Router, booth *toll.Toll, route tollconfig.RouteConfig) {
	gate := booth.Route(toll.RouteOpts{
		Price: func(r *http.Request) int64 {
			return priceForWordcount(r, satsOr(route.Sats, 1))
		},
		DescriptionFunc: func(r *http.Request) string {
			return "Word count for submitted text"
		},
		FreeRequests: route.FreeRequests,
		FreeWindow:   route.FreeWindow,
	})

	router.With(gate).Post("/api/wordcount", func(w http.ResponseWriter, r *http.Request) {
		body, err := peekBody(r)
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		count := wordCount(body)
		responders.JSON(w, http.StatusOK, map[string]int{"words": count})
	})
}

// mountPay exposes a demo-only endpoint that settles a mock invoice out
// of band, standing in for an actual Lightning wallet paying it. It is
// wired only when the wallet is running in mock mode.
func mountPay(router chi.Router, mock *wallet.Mock) {
	if mock == nil {
		return
	}
	router.Post("/pay/{paymentHash}", func(w http.ResponseWriter, r *http.Request) {
		paymentHash := chi.URLParam(r, "paymentHash")
		preimageHex, ok := mock.Settle(paymentHash)
		if !ok {
			http.Error(w, "unknown payment hash", http.StatusNotFound)
			return
		}
		responders.JSON(w, http.StatusOK, map[string]string{"preimage": preimageHex})
	})
}

func satsOr(configured, fallback int64) int64 {
	if configured != 0 {
		return configured
	}
	return fallback
}

func descriptionOr(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

func priceForWordcount(r *http.Request, satsPer100Words int64) int64 {
	body, err := peekBody(r)
	if err != nil {
		return satsPer100Words
	}
	words := int64(wordCount(body))
	price := (words/100 + 1) * satsPer100Words
	return price
}

func wordCount(body string) int {
	return len(strings.Fields(body))
}

// peekBody reads the full request body and replaces r.Body with a fresh
// reader over the same bytes, so both the price function (called while
// minting the challenge and again on the paid retry) and the handler
// itself can each read it in full.
func peekBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	return string(data), nil
}
