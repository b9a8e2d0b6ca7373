// Package testutil provides a fake fraud detection backend for tests.
package testutil

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fraudcheck/cli/internal/models"
)

const defaultAccessTTL = 15 * time.Minute

type account struct {
	password string
	user     models.User
}

// Backend is an in-process implementation of the backend REST contract.
// Access tokens are HS256 JWTs; refresh tokens are random and single use.
type Backend struct {
	URL string

	server *httptest.Server
	secret []byte

	mu            sync.Mutex
	accessTTL     time.Duration
	accounts      map[string]*account
	refreshTokens map[string]string // refresh token -> email
	revoked       map[string]bool
	rejectAll     bool
	failRefresh   bool
	failProfile   bool
	gates         map[string]chan struct{}
	refreshGate   chan struct{}
	refreshCalls  int
	unauthorized  int
	bearers       map[string][]string // route -> bearer tokens accepted
	verifications []models.VerificationResult
	reports       []models.Report
}

// NewBackend starts a fake backend that is shut down when the test ends
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		secret:        []byte("test-secret"),
		accessTTL:     defaultAccessTTL,
		accounts:      make(map[string]*account),
		refreshTokens: make(map[string]string),
		revoked:       make(map[string]bool),
		gates:         make(map[string]chan struct{}),
		bearers:       make(map[string][]string),
	}

	b.server = httptest.NewServer(b.router())
	b.URL = b.server.URL
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/auth/register", b.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", b.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh", b.handleRefresh).Methods(http.MethodPost)

	r.Handle("/profile", b.protected("profile", b.handleProfile)).Methods(http.MethodGet)

	r.Handle("/verify", b.protected("verify", b.handleVerify)).Methods(http.MethodPost)
	r.Handle("/verify/history", b.protected("history", b.handleHistory)).Methods(http.MethodGet)
	r.Handle("/verify/stats", b.protected("stats", b.handleStats)).Methods(http.MethodGet)
	r.Handle("/verify/{id}", b.protected("lookup", b.handleLookup)).Methods(http.MethodGet)

	r.Handle("/reports", b.protected("report-submit", b.handleReportSubmit)).Methods(http.MethodPost)
	r.Handle("/reports", b.protected("reports", b.handleReportList)).Methods(http.MethodGet)
	r.Handle("/reports/stats", b.protected("report-stats", b.handleReportStats)).Methods(http.MethodGet)
	r.Handle("/reports/{id}", b.protected("report-get", b.handleReportGet)).Methods(http.MethodGet)

	return r
}

// AddUser registers an account directly
func (b *Backend) AddUser(email, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(email, password, "Test User", "+919876543210")
}

func (b *Backend) addUserLocked(email, password, fullName, phone string) models.User {
	user := models.User{
		ID:          uuid.NewString(),
		Email:       email,
		FullName:    fullName,
		PhoneNumber: phone,
		IsActive:    true,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	b.accounts[email] = &account{password: password, user: user}
	return user
}

// IssuePair mints a valid credential pair for email
func (b *Backend) IssuePair(email string) models.TokenPair {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(email, b.accessTTL)
}

// ExpiredPair mints a pair whose access token has already expired but whose
// refresh token is still valid
func (b *Backend) ExpiredPair(email string) models.TokenPair {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueLocked(email, -time.Minute)
}

func (b *Backend) issueLocked(email string, ttl time.Duration) models.TokenPair {
	now := time.Now()
	access := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	signed, err := access.SignedString(b.secret)
	if err != nil {
		panic(err)
	}

	raw := make([]byte, 16)
	_, _ = rand.Read(raw)
	refresh := hex.EncodeToString(raw)
	b.refreshTokens[refresh] = email

	return models.TokenPair{
		AccessToken:  signed,
		RefreshToken: refresh,
		ExpiresIn:    int64(ttl / time.Second),
		TokenType:    "Bearer",
	}
}

// RevokeAccess makes the backend reject token as if it had expired
func (b *Backend) RevokeAccess(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
}

// RejectAll makes every protected endpoint answer 401
func (b *Backend) RejectAll(reject bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rejectAll = reject
}

// FailRefresh makes the refresh endpoint reject every token
func (b *Backend) FailRefresh(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRefresh = fail
}

// FailProfile makes the profile endpoint answer 500
func (b *Backend) FailProfile(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failProfile = fail
}

// HoldRefresh blocks refresh calls until the returned function is called
func (b *Backend) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// Hold blocks the next request to the named route until released.
// Later requests to the same route are not held.
func (b *Backend) Hold(route string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gates[route] = gate
	b.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// RefreshCalls counts requests received by the refresh endpoint
func (b *Backend) RefreshCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.refreshCalls
}

// Unauthorized counts 401 answers given by protected endpoints
func (b *Backend) Unauthorized() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unauthorized
}

// Bearers lists the access tokens accepted on the named route, in order
func (b *Backend) Bearers(route string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.bearers[route]...)
}

// AddVerification seeds a verification result
func (b *Backend) AddVerification(v models.VerificationResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.verifications = append(b.verifications, v)
}

func (b *Backend) protected(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

		if !b.authorize(token) {
			b.mu.Lock()
			b.unauthorized++
			b.mu.Unlock()
			writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication failed")
			return
		}

		b.mu.Lock()
		b.bearers[route] = append(b.bearers[route], token)
		gate, held := b.gates[route]
		delete(b.gates, route)
		b.mu.Unlock()

		if held {
			<-gate
		}
		next(w, r)
	})
}

func (b *Backend) authorize(token string) bool {
	b.mu.Lock()
	reject := b.rejectAll || b.revoked[token]
	b.mu.Unlock()
	if reject || token == "" {
		return false
	}

	_, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return b.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil
}

func (b *Backend) subject(r *http.Request) string {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := &jwt.RegisteredClaims{}
	_, _, _ = jwt.NewParser().ParseUnverified(token, claims)
	return claims.Subject
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "bad request", "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[req.Email]; exists {
		writeError(w, http.StatusConflict, "user already exists", "Resource already exists")
		return
	}
	user := b.addUserLocked(req.Email, req.Password, req.FullName, req.PhoneNumber)
	writeData(w, http.StatusCreated, user)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "Invalid request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[req.Email]
	if !ok || acc.password != req.Password {
		writeError(w, http.StatusUnauthorized, "invalid credentials", "Invalid email or password")
		return
	}
	writeData(w, http.StatusOK, b.issueLocked(req.Email, b.accessTTL))
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	b.mu.Lock()
	b.refreshCalls++
	gate := b.refreshGate
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	email, ok := b.refreshTokens[req.RefreshToken]
	if b.failRefresh || !ok {
		writeError(w, http.StatusUnauthorized, "invalid token", "Authentication failed")
		return
	}
	delete(b.refreshTokens, req.RefreshToken)
	writeData(w, http.StatusOK, b.issueLocked(email, b.accessTTL))
}

func (b *Backend) handleProfile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failProfile {
		writeError(w, http.StatusInternalServerError, "database error", "Service unavailable")
		return
	}
	acc, ok := b.accounts[b.subject(r)]
	if !ok {
		writeError(w, http.StatusNotFound, "user not found", "Resource not found")
		return
	}
	writeData(w, http.StatusOK, acc.user)
}

func (b *Backend) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req models.VerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Content == "" {
		writeError(w, http.StatusBadRequest, "bad request", "Invalid request")
		return
	}

	result := score(req)

	b.mu.Lock()
	b.verifications = append(b.verifications, result)
	b.mu.Unlock()

	writeData(w, http.StatusOK, result)
}

// score is a keyword heuristic standing in for the real model
func score(req models.VerificationRequest) models.VerificationResult {
	content := strings.ToLower(req.Content)
	fraudScore := 0.08
	for _, kw := range []string{"kyc", "click", "expire", "urgent", "otp"} {
		if strings.Contains(content, kw) {
			fraudScore += 0.22
		}
	}
	if fraudScore > 1 {
		fraudScore = 1
	}

	risk := models.RiskLow
	switch {
	case fraudScore >= 0.8:
		risk = models.RiskCritical
	case fraudScore >= 0.6:
		risk = models.RiskHigh
	case fraudScore >= 0.3:
		risk = models.RiskMedium
	}

	result := models.VerificationResult{
		ID:               uuid.New(),
		MessageID:        uuid.New(),
		IsFraud:          fraudScore >= 0.5,
		FraudScore:       fraudScore,
		Confidence:       0.9,
		RiskLevel:        risk,
		HeaderVerified:   strings.HasSuffix(strings.ToUpper(req.SenderHeader), "BANK"),
		RBICompliant:     fraudScore < 0.5,
		Explanation:      "keyword heuristic",
		Recommendations:  []string{"Do not click unknown links"},
		ProcessingTimeMs: 12,
		VerifiedAt:       time.Now().UTC(),
	}
	if result.IsFraud {
		fraudType := "kyc_fraud"
		result.FraudType = &fraudType
	}
	return result
}

func (b *Backend) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)

	b.mu.Lock()
	all := append([]models.VerificationResult(nil), b.verifications...)
	b.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].VerifiedAt.After(all[j].VerifiedAt) })
	writeData(w, http.StatusOK, models.VerificationHistory{Verifications: page(all, limit, offset)})
}

func (b *Backend) handleStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := models.VerificationStats{TotalVerifications: len(b.verifications)}
	var total float64
	for _, v := range b.verifications {
		if v.IsFraud {
			stats.FraudDetected++
		}
		total += v.FraudScore
	}
	if stats.TotalVerifications > 0 {
		stats.FraudRate = float64(stats.FraudDetected) / float64(stats.TotalVerifications)
		stats.AvgFraudScore = total / float64(stats.TotalVerifications)
	}
	stats.Last24Hours = stats.TotalVerifications
	stats.Last7Days = stats.TotalVerifications
	writeData(w, http.StatusOK, stats)
}

func (b *Backend) handleLookup(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, v := range b.verifications {
		if v.ID.String() == id {
			writeData(w, http.StatusOK, v)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not found", "Resource not found")
}

func (b *Backend) handleReportSubmit(w http.ResponseWriter, r *http.Request) {
	var in models.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "bad request", "Invalid request")
		return
	}

	priority := "MEDIUM"
	if in.ReportType == models.ReportFraud {
		priority = "HIGH"
	}
	report := models.Report{
		ID:           uuid.New(),
		ReportType:   in.ReportType,
		Content:      in.Content,
		SenderHeader: in.SenderHeader,
		Description:  in.Description,
		Status:       "PENDING",
		Priority:     priority,
		CreatedAt:    time.Now().UTC(),
	}

	b.mu.Lock()
	b.reports = append(b.reports, report)
	b.mu.Unlock()

	writeData(w, http.StatusCreated, report)
}

func (b *Backend) handleReportList(w http.ResponseWriter, r *http.Request) {
	limit, offset := paging(r)

	b.mu.Lock()
	all := append([]models.Report(nil), b.reports...)
	b.mu.Unlock()

	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	writeData(w, http.StatusOK, models.ReportList{Reports: page(all, limit, offset)})
}

func (b *Backend) handleReportGet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rep := range b.reports {
		if rep.ID.String() == id {
			writeData(w, http.StatusOK, rep)
			return
		}
	}
	writeError(w, http.StatusNotFound, "not found", "Resource not found")
}

func (b *Backend) handleReportStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	stats := models.ReportStats{
		TotalReports: len(b.reports),
		ByType:       make(map[string]int),
		ByPriority:   make(map[string]int),
	}
	for _, rep := range b.reports {
		if rep.Status == "PENDING" {
			stats.PendingReports++
		}
		if rep.Status == "RESOLVED" {
			stats.ResolvedReports++
		}
		stats.ByType[rep.ReportType]++
		stats.ByPriority[rep.Priority]++
	}
	stats.Last24Hours = stats.TotalReports
	stats.Last7Days = stats.TotalReports
	writeData(w, http.StatusOK, stats)
}

func paging(r *http.Request) (limit, offset int) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err = strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, err, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.ErrorResponse{
		Error:   err,
		Message: message,
		Code:    status,
	})
}
