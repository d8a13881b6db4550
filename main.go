package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rankidang/seo-crawler/internal/api"
	"github.com/rankidang/seo-crawler/internal/crawler"
	"github.com/rankidang/seo-crawler/internal/db"
	"github.com/rankidang/seo-crawler/internal/dns"
	"github.com/rankidang/seo-crawler/internal/middleware"
	"github.com/rankidang/seo-crawler/internal/performance"
	"github.com/rankidang/seo-crawler/internal/service"
	"github.com/rankidang/seo-crawler/internal/verification"
)

// Config holds application configuration
type Config struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewConfig creates a new configuration from environment variables
func NewConfig() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return &Config{
		Port:            port,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

func main() {
	config := NewConfig()

	log.Println("Initializing database...")
	dbConn, err := db.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	log.Println("Database initialized successfully")

	log.Println("Initializing crawl service...")
	crawlerService := crawler.NewService(dbConn, nil)
	if err := crawlerService.Start(); err != nil {
		log.Fatalf("Failed to start crawl service: %v", err)
	}
	log.Println("Crawl service started successfully")

	store := service.NewStore(dbConn)
	dnsService := dns.NewService(nil)
	verifier := verification.NewService(dnsService, store)
	analyzer := performance.NewService(nil, store)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC(),
			"service":   "rankidang",
		})
	})

	r.POST("/auth/login", api.LoginHandler(dbConn))

	authorized := r.Group("/")
	authorized.Use(middleware.JWTRequired())
	{
		authorized.POST("/domains", api.PostDomainHandler(dbConn, crawlerService))
		authorized.GET("/domains", api.ListDomainsHandler(dbConn))
		authorized.GET("/domains/:id", api.GetDomainHandler(dbConn))
		authorized.GET("/domains/:id/links", api.ListDomainLinksHandler(dbConn))
		authorized.GET("/domains/:id/errors", api.ListDomainErrorsHandler(dbConn))
		authorized.GET("/domains/:id/verification", api.VerificationStatusHandler(dbConn, verifier))
		authorized.POST("/domains/:id/verify", api.VerifyDomainHandler(dbConn, verifier))
		authorized.POST("/domains/:id/analyze", api.AnalyzePerformanceHandler(dbConn, analyzer))
		authorized.GET("/domains/:id/dns", api.DNSRecordsHandler(dbConn, dnsService))
		authorized.POST("/domains/bulk", api.BulkHandler(dbConn, crawlerService))
	}

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      r,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	go func() {
		log.Printf("Starting server on port %s", config.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := crawlerService.Stop(); err != nil {
		log.Printf("Failed to stop crawl service: %v", err)
	}

	log.Println("Server exited")
}
