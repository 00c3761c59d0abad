package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodshare/internal/auth"
	"foodshare/internal/config"
	"foodshare/internal/database"
	"foodshare/internal/geocode"
	"foodshare/internal/handler"
	"foodshare/internal/media"
	"foodshare/internal/metrics"
	"foodshare/internal/middleware"
	"foodshare/internal/repository"
	"foodshare/internal/router"
	"foodshare/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testSecret signs the bearer tokens minted by TokenFor.
const testSecret = "integration-test-secret"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	poolConfig.MaxConns = 16

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all rows from the application tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	if _, err := pool.Exec(context.Background(), "TRUNCATE requests, listings, profiles"); err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}

// TestServer is the fully wired API backed by the test database.
type TestServer struct {
	Handler  http.Handler
	Metrics  *metrics.Metrics
	MediaDir string
}

// SetupTestServer wires repositories, services and handlers exactly as the binary does,
// with a local media directory and no geocoding provider.
func SetupTestServer(t *testing.T, testDB *TestDB) *TestServer {
	t.Helper()

	logger := zerolog.Nop()

	verifier, err := auth.NewVerifier(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	appMetrics := metrics.New()
	mediaDir := t.TempDir()

	listingRepo := repository.NewListingRepository(testDB.Pool, logger)
	requestRepo := repository.NewRequestRepository(testDB.Pool, logger)
	profileRepo := repository.NewProfileRepository(testDB.Pool, logger)

	fileStore, err := media.NewFileStore(mediaDir, "/media", logger)
	require.NoError(t, err)
	store := media.NewFallbackStore(nil, fileStore, false, logger)

	geocoder := geocode.NewClient(geocode.Options{BaseURL: "http://127.0.0.1:0", Timeout: time.Second}, appMetrics, logger)

	handlers := router.Handlers{
		Listings: handler.NewListingHandler(service.NewListingService(listingRepo, requestRepo, profileRepo, logger), logger),
		Requests: handler.NewRequestHandler(service.NewRequestService(requestRepo, listingRepo, profileRepo, appMetrics, logger), logger),
		Profile:  handler.NewProfileHandler(service.NewProfileService(profileRepo, logger), logger),
		Upload:   handler.NewUploadHandler(store, appMetrics, logger),
		Geocode:  handler.NewGeocodeHandler(geocoder, logger),
	}

	h := router.New(handlers, router.Options{
		Verifier:             verifier,
		RateLimiter:          middleware.NewRateLimiter(1000, 1000, logger),
		Metrics:              appMetrics,
		AllowAnonymousBrowse: true,
		MediaDir:             mediaDir,
		MediaPath:            "/media",
	}, logger)

	return &TestServer{Handler: h, Metrics: appMetrics, MediaDir: mediaDir}
}

// TokenFor mints a bearer token for the given user.
func TokenFor(t *testing.T, userID, name, email string) string {
	t.Helper()

	claims := auth.Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// Do sends one request to the server and returns the recorded response.
func (s *TestServer) Do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.Handler.ServeHTTP(w, req)
	return w
}

// DecodeData unmarshals the "data" envelope of a success response into dst.
func DecodeData(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}
