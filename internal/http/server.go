// Package http is the REST surface: one handler per resource, JWT-guarded,
// all responses in the {success, data, error} envelope.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"finbook/internal/auth"
	applog "finbook/internal/log"
	"finbook/internal/notify"
	"finbook/internal/services"
	"finbook/internal/storage"
)

type Server struct {
	http.Server

	repo       *storage.Repository
	budgets    *services.BudgetService
	bills      *services.BillService
	dispatcher *notify.Dispatcher
	issuer     *auth.TokenIssuer
	otpTTL     time.Duration

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

type Deps struct {
	Repo       *storage.Repository
	Budgets    *services.BudgetService
	Bills      *services.BillService
	Dispatcher *notify.Dispatcher
	Issuer     *auth.TokenIssuer
	OTPTTL     time.Duration
	Logger     *applog.Logger
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		repo:        deps.Repo,
		budgets:     deps.Budgets,
		bills:       deps.Bills,
		dispatcher:  deps.Dispatcher,
		issuer:      deps.Issuer,
		otpTTL:      deps.OTPTTL,
		rateLimiter: newRateLimiter(),
	}

	if deps.Logger != nil {
		s.Server.Handler = applog.Middleware(deps.Logger)(mux)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /auth/register", s.wrap(s.handleRegister))
	mux.HandleFunc("POST /auth/login", s.wrap(s.handleLogin))
	mux.HandleFunc("POST /auth/forgot-password", s.wrap(s.handleForgotPassword))
	mux.HandleFunc("POST /auth/reset-password", s.wrap(s.handleResetPassword))
	mux.HandleFunc("GET /auth/me", s.wrapAuth(s.handleMe))

	mux.HandleFunc("GET /accounts", s.wrapAuth(s.handleListAccounts))
	mux.HandleFunc("POST /accounts", s.wrapAuth(s.handleCreateAccount))
	mux.HandleFunc("PUT /accounts/{id}", s.wrapAuth(s.handleUpdateAccount))
	mux.HandleFunc("DELETE /accounts/{id}", s.wrapAuth(s.handleDeleteAccount))

	mux.HandleFunc("GET /transactions", s.wrapAuth(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.wrapAuth(s.handleCreateTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.wrapAuth(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.wrapAuth(s.handleDeleteTransaction))

	mux.HandleFunc("GET /budgets", s.wrapAuth(s.handleListBudgets))
	mux.HandleFunc("GET /budgets/summary", s.wrapAuth(s.handleBudgetSummary))
	mux.HandleFunc("POST /budgets", s.wrapAuth(s.handleCreateBudget))
	mux.HandleFunc("PUT /budgets/{id}", s.wrapAuth(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /budgets/{id}", s.wrapAuth(s.handleDeleteBudget))

	mux.HandleFunc("GET /goals", s.wrapAuth(s.handleListGoals))
	mux.HandleFunc("POST /goals", s.wrapAuth(s.handleCreateGoal))
	mux.HandleFunc("PUT /goals/{id}", s.wrapAuth(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /goals/{id}", s.wrapAuth(s.handleDeleteGoal))

	mux.HandleFunc("GET /bills", s.wrapAuth(s.handleListBills))
	mux.HandleFunc("GET /bills/summary", s.wrapAuth(s.handleBillSummary))
	mux.HandleFunc("POST /bills", s.wrapAuth(s.handleCreateBill))
	mux.HandleFunc("PUT /bills/{id}", s.wrapAuth(s.handleUpdateBill))
	mux.HandleFunc("PATCH /bills/{id}/status", s.wrapAuth(s.handleBillStatus))
	mux.HandleFunc("GET /bills/{id}/payments", s.wrapAuth(s.handleBillPayments))
	mux.HandleFunc("DELETE /bills/{id}", s.wrapAuth(s.handleDeleteBill))

	mux.HandleFunc("GET /notes", s.wrapAuth(s.handleListNotes))
	mux.HandleFunc("POST /notes", s.wrapAuth(s.handleCreateNote))
	mux.HandleFunc("PUT /notes/{id}", s.wrapAuth(s.handleUpdateNote))
	mux.HandleFunc("DELETE /notes/{id}", s.wrapAuth(s.handleDeleteNote))

	mux.HandleFunc("GET /notifications", s.wrapAuth(s.handleListNotifications))
	mux.HandleFunc("PATCH /notifications/{id}/read", s.wrapAuth(s.handleMarkNotificationRead))
	mux.HandleFunc("POST /notifications/read-all", s.wrapAuth(s.handleMarkAllNotificationsRead))
	mux.HandleFunc("DELETE /notifications/{id}", s.wrapAuth(s.handleDeleteNotification))

	return s
}

// authedHandler receives the authenticated user's id alongside the request.
type authedHandler func(w http.ResponseWriter, r *http.Request, userID int64)

// wrap adds request logging, security headers, and rate limiting.
func (s *Server) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := clientIP(r)
		requestID := generateRequestID()
		logger := applog.FromContext(r.Context()).With(applog.FieldRequestID, requestID)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		logger.InfoContext(r.Context(), "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// wrapAuth additionally requires a valid bearer token.
func (s *Server) wrapAuth(next authedHandler) http.HandlerFunc {
	return s.wrap(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing or invalid Authorization header")
			return
		}
		userID, err := s.issuer.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next(w, r, userID)
	})
}

func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

type contextKey string

const requestIDKey contextKey = "request_id"

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// responseWriter captures the status code for request logging.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id")
	}
	return id, nil
}

// Simple per-IP rate limiter: 60 mutating requests per minute.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[clientIP]
	if !exists {
		rl.clients[clientIP] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}
	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}
	client.requests++
	client.lastRequest = now
	return client.requests <= 60
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}
