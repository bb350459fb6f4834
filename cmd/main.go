package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"boxtenant/internal/caching"
	"boxtenant/internal/handlers"
	"boxtenant/internal/identity"
	"boxtenant/internal/jobs/background"
	"boxtenant/internal/middleware"
	"boxtenant/internal/repositories"
	"boxtenant/internal/services"
	"boxtenant/pkg/database"
)

const version = "1.0.0"

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Token verification: the identity provider's JWKS in production,
	// a shared secret for development
	jwksURL := os.Getenv("IDP_JWKS_URL")
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwksURL == "" && jwtSecret == "" {
		log.Fatal("Either IDP_JWKS_URL or JWT_SECRET must be set")
	}

	// Identity provider admin API for attribute updates
	var idp identity.Provider
	idpBaseURL := os.Getenv("IDP_BASE_URL")
	if idpBaseURL != "" {
		idp = identity.NewHTTPProvider(idpBaseURL, os.Getenv("IDP_SERVICE_TOKEN"))
	} else {
		log.Println("WARNING: IDP_BASE_URL not set, identity attribute updates are disabled")
		idp = identity.NewNoopProvider()
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000"
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin"
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	storageSvc, err := services.NewMinioStorage(minioEndpoint, minioAccessKey, minioSecretKey, useSSL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := storageSvc.EnsureBucketExists(context.Background()); err != nil {
		log.Printf("WARNING: failed to ensure logo bucket exists: %v", err)
	}

	// Create repositories
	tenantRepo := repositories.NewTenantRepo(pool)
	membershipRepo := repositories.NewMembershipRepo(pool)
	requestRepo := repositories.NewTenancyRequestRepo(pool)
	boxRepo := repositories.NewBoxRepo(pool)
	appointmentRepo := repositories.NewAppointmentRepo(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	tenantSvc := services.NewTenantService(tenantRepo, cacheSvc)
	membershipSvc := services.NewMembershipService(membershipRepo, tenantRepo, cacheSvc)
	tenancySvc := services.NewTenancyService(requestRepo, tenantRepo, membershipRepo, tenantSvc, idp)
	sessionSvc := services.NewSessionService(membershipRepo, tenantRepo, idp)

	// Create handlers
	healthHandlers := handlers.NewHealthHandlers(pool)
	authHandlers := handlers.NewAuthHandlers(membershipSvc, sessionSvc)
	tenantHandlers := handlers.NewTenantHandlers(tenantSvc, storageSvc)
	membershipHandlers := handlers.NewMembershipHandlers(membershipSvc)
	requestHandlers := handlers.NewTenancyRequestHandlers(tenancySvc)
	boxHandlers := handlers.NewBoxHandlers(boxRepo)
	appointmentHandlers := handlers.NewAppointmentHandlers(appointmentRepo)

	// JWT middleware
	jwtMiddleware, err := middleware.NewJWT(middleware.JWTConfig{
		JWKSURL: jwksURL,
		Secret:  jwtSecret,
	})
	if err != nil {
		log.Fatalf("Failed to initialize JWT middleware: %v", err)
	}

	// Background reconciliation jobs
	scheduler, err := background.NewJobScheduler(tenantRepo, membershipRepo, tenantSvc)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("Failed to stop job scheduler: %v", err)
		}
	}()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// API routes
	v1 := e.Group("/v1")
	v1.Use(middleware.VersionHeader("v1"))

	// Public tenant directory (no auth required)
	v1.GET("/tenants/public", tenantHandlers.ListPublic)

	// Protected routes
	protected := v1.Group("")
	protected.Use(jwtMiddleware)
	protected.Use(middleware.AuditRequest())

	// Identity routes
	protected.GET("/me", authHandlers.Me)
	protected.GET("/me/tenancies", authHandlers.MyTenancies)
	protected.POST("/me/switch-tenant", authHandlers.SwitchTenant)

	// Tenancy request workflow
	protected.POST("/tenancy-requests", requestHandlers.Submit)
	protected.GET("/tenancy-requests", requestHandlers.List)
	protected.GET("/tenancy-requests/my", requestHandlers.ListMine)
	protected.GET("/tenancy-requests/:id", requestHandlers.Get)
	protected.POST("/tenancy-requests/:id/review", requestHandlers.Review)

	// Tenant registry
	protected.GET("/tenants", tenantHandlers.ListTenants)
	protected.POST("/tenants", tenantHandlers.CreateTenant)
	protected.GET("/tenants/:id", tenantHandlers.GetTenant)
	protected.PUT("/tenants/:id", tenantHandlers.UpdateTenant)
	protected.DELETE("/tenants/:id", tenantHandlers.DeleteTenant)
	protected.POST("/tenants/:id/logo", tenantHandlers.UploadLogo)

	// Tenant membership administration
	protected.GET("/tenants/:id/members", membershipHandlers.ListMembers)
	protected.POST("/tenants/:id/members", membershipHandlers.AddMember)
	protected.GET("/tenants/:id/members/:userId", membershipHandlers.GetMember)
	protected.DELETE("/tenants/:id/members/:userId", membershipHandlers.RemoveMember)

	// Scheduling routes (active tenant scoped)
	protected.GET("/boxes", boxHandlers.ListBoxes)
	protected.POST("/boxes", boxHandlers.CreateBox)
	protected.GET("/boxes/:id", boxHandlers.GetBox)
	protected.PUT("/boxes/:id", boxHandlers.UpdateBox)
	protected.DELETE("/boxes/:id", boxHandlers.DeleteBox)

	protected.GET("/appointments", appointmentHandlers.ListAppointments)
	protected.POST("/appointments", appointmentHandlers.CreateAppointment)
	protected.GET("/appointments/:id", appointmentHandlers.GetAppointment)
	protected.PUT("/appointments/:id", appointmentHandlers.UpdateAppointment)
	protected.DELETE("/appointments/:id", appointmentHandlers.DeleteAppointment)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("boxtenant server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
