package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// handleNamespace makes author handle lookups deterministic: the same handle
// always resolves to the same stakeholder id across restarts.
var handleNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Stakeholder is a directory entry: an author, an organization or a region.
type Stakeholder struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// GroundUser is a member of an organization or region. An empty
// author_handle means the user has no messaging identity.
type GroundUser struct {
	ID           uuid.UUID `json:"id"`
	AuthorHandle string    `json:"author_handle"`
}

// GroundUsersResponse wraps a fan-out lookup result.
type GroundUsersResponse struct {
	GroundUsers []GroundUser `json:"ground_users"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	ServiceID string    `json:"service_id"`
	Timestamp time.Time `json:"timestamp"`
	HitRate   float64   `json:"hit_rate"`
}

// MockDirectory simulates the stakeholder directory service
type MockDirectory struct {
	hitRate          float64
	unattributedRate float64
	groundUserCount  int
	minDelay         time.Duration
	maxDelay         time.Duration
	serviceID        string
	rng              *rand.Rand
}

// NewMockDirectory creates a new mock directory instance
func NewMockDirectory(hitRate, unattributedRate float64, groundUserCount int, minDelay, maxDelay time.Duration) *MockDirectory {
	return &MockDirectory{
		hitRate:          hitRate,
		unattributedRate: unattributedRate,
		groundUserCount:  groundUserCount,
		minDelay:         minDelay,
		maxDelay:         maxDelay,
		serviceID:        "MOCK_DIRECTORY_" + uuid.New().String()[:8],
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// lookupAuthor resolves a handle to a stakeholder. Handles prefixed with
// "ghost" never resolve, which gives callers a reliable way to exercise the
// not-found path.
func (m *MockDirectory) lookupAuthor(handle string) *Stakeholder {
	m.simulateLatency()

	if len(handle) >= 5 && handle[:5] == "ghost" {
		return nil
	}
	if !m.shouldHit() {
		return nil
	}

	return &Stakeholder{
		ID:   uuid.NewSHA1(handleNamespace, []byte(handle)),
		Name: handle,
	}
}

// lookupOrganization resolves an organization id.
func (m *MockDirectory) lookupOrganization(id uuid.UUID) *Stakeholder {
	m.simulateLatency()

	if !m.shouldHit() {
		return nil
	}

	return &Stakeholder{
		ID:   id,
		Name: "org-" + id.String()[:8],
	}
}

// groundUsers synthesizes the member list of an organization or region.
// The list is seeded from the id so repeated lookups return the same users.
func (m *MockDirectory) groundUsers(scope string, id uuid.UUID) []GroundUser {
	m.simulateLatency()

	seed := int64(0)
	for _, b := range id[:] {
		seed = seed*31 + int64(b)
	}
	rng := rand.New(rand.NewSource(seed))

	users := make([]GroundUser, 0, m.groundUserCount)
	for i := 0; i < m.groundUserCount; i++ {
		user := GroundUser{ID: uuid.New()}
		if rng.Float64() >= m.unattributedRate {
			user.AuthorHandle = fmt.Sprintf("%s-user-%s-%d", scope, id.String()[:8], i+1)
		}
		users = append(users, user)
	}
	return users
}

func (m *MockDirectory) simulateLatency() {
	if m.maxDelay <= m.minDelay {
		time.Sleep(m.minDelay)
		return
	}
	delta := m.maxDelay - m.minDelay
	time.Sleep(m.minDelay + time.Duration(m.rng.Int63n(int64(delta))))
}

func (m *MockDirectory) shouldHit() bool {
	return m.rng.Float64() < m.hitRate
}

// Handler struct holds the mock directory and routes
type Handler struct {
	directory *MockDirectory
}

func NewHandler(directory *MockDirectory) *Handler {
	return &Handler{directory: directory}
}

// GetAuthor resolves an author handle to a stakeholder
func (h *Handler) GetAuthor(c *gin.Context) {
	handle := c.Query("handle")
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "handle is required",
		})
		return
	}

	stakeholder := h.directory.lookupAuthor(handle)
	if stakeholder == nil {
		log.Info().Str("handle", handle).Msg("Author handle not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "author not found",
		})
		return
	}

	c.JSON(http.StatusOK, stakeholder)
}

// GetOrganization resolves an organization id
func (h *Handler) GetOrganization(c *gin.Context) {
	id, err := uuid.Parse(c.Param("organization_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "organization_id must be a uuid",
		})
		return
	}

	stakeholder := h.directory.lookupOrganization(id)
	if stakeholder == nil {
		log.Info().Str("organization_id", id.String()).Msg("Organization not found")
		c.JSON(http.StatusNotFound, gin.H{
			"error": "organization not found",
		})
		return
	}

	c.JSON(http.StatusOK, stakeholder)
}

// GetOrganizationGroundUsers lists the ground users of an organization
func (h *Handler) GetOrganizationGroundUsers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("organization_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "organization_id must be a uuid",
		})
		return
	}

	users := h.directory.groundUsers("org", id)

	log.Info().
		Str("organization_id", id.String()).
		Int("count", len(users)).
		Msg("Resolved organization ground users")

	c.JSON(http.StatusOK, GroundUsersResponse{GroundUsers: users})
}

// GetRegionGroundUsers lists the ground users of a region
func (h *Handler) GetRegionGroundUsers(c *gin.Context) {
	id, err := uuid.Parse(c.Param("region_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "region_id must be a uuid",
		})
		return
	}

	users := h.directory.groundUsers("region", id)

	log.Info().
		Str("region_id", id.String()).
		Int("count", len(users)).
		Msg("Resolved region ground users")

	c.JSON(http.StatusOK, GroundUsersResponse{GroundUsers: users})
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		ServiceID: h.directory.serviceID,
		Timestamp: time.Now(),
		HitRate:   h.directory.hitRate,
	})
}

// UpdateConfig allows changing directory behaviour at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		HitRate          *float64 `json:"hit_rate"`
		UnattributedRate *float64 `json:"unattributed_rate"`
		GroundUserCount  *int     `json:"ground_user_count"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.HitRate != nil && *config.HitRate >= 0 && *config.HitRate <= 1.0 {
		h.directory.hitRate = *config.HitRate
		log.Info().Float64("rate", *config.HitRate).Msg("Updated hit rate")
	}
	if config.UnattributedRate != nil && *config.UnattributedRate >= 0 && *config.UnattributedRate <= 1.0 {
		h.directory.unattributedRate = *config.UnattributedRate
		log.Info().Float64("rate", *config.UnattributedRate).Msg("Updated unattributed rate")
	}
	if config.GroundUserCount != nil && *config.GroundUserCount >= 0 {
		h.directory.groundUserCount = *config.GroundUserCount
		log.Info().Int("count", *config.GroundUserCount).Msg("Updated ground user count")
	}

	c.JSON(http.StatusOK, gin.H{
		"message":           "Configuration updated",
		"hit_rate":          h.directory.hitRate,
		"unattributed_rate": h.directory.unattributedRate,
		"ground_user_count": h.directory.groundUserCount,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	// Add request logging middleware
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	s := router.Group("/stakeholder")
	{
		s.GET("/author", handler.GetAuthor)
		s.GET("/organization/:organization_id", handler.GetOrganization)
		s.GET("/organization/:organization_id/ground-users", handler.GetOrganizationGroundUsers)
		s.GET("/region/:region_id/ground-users", handler.GetRegionGroundUsers)
	}

	router.PUT("/config", handler.UpdateConfig)
	router.GET("/health", handler.HealthCheck)

	return router
}

func main() {
	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Get configuration from environment
	port := getEnv("PORT", "8081")
	hitRate := getEnvFloat("HIT_RATE", 1)
	unattributedRate := getEnvFloat("UNATTRIBUTED_RATE", 0)
	groundUserCount := getEnvInt("GROUND_USER_COUNT", 5)
	minDelay := getEnvDuration("MIN_DELAY", 10*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 100*time.Millisecond)

	log.Info().
		Str("port", port).
		Float64("hit_rate", hitRate).
		Float64("unattributed_rate", unattributedRate).
		Int("ground_user_count", groundUserCount).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock Stakeholder Directory")

	// Create mock directory
	directory := NewMockDirectory(hitRate, unattributedRate, groundUserCount, minDelay, maxDelay)
	handler := NewHandler(directory)
	router := SetupRouter(handler)

	// Setup HTTP server
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var n int
		if _, err := fmt.Sscanf(value, "%d", &n); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
