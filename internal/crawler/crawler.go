package crawler

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"gorm.io/gorm"

	"github.com/rankidang/seo-crawler/internal/db"
	"github.com/rankidang/seo-crawler/internal/links"
	"github.com/rankidang/seo-crawler/internal/scoring"
	"github.com/rankidang/seo-crawler/internal/service"
)

// Service represents the crawl service
type Service struct {
	db        *gorm.DB
	client    *http.Client
	queue     chan uint
	workers   int
	timeout   time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	isRunning bool
}

// Config holds crawl service configuration
type Config struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

// DefaultConfig returns default crawl service configuration
func DefaultConfig() *Config {
	return &Config{
		Workers:   5,
		QueueSize: 100,
		Timeout:   30 * time.Second,
	}
}

// NewService creates a new crawl service
func NewService(dbConn *gorm.DB, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		db: dbConn,
		client: &http.Client{
			Timeout: config.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		queue:   make(chan uint, config.QueueSize),
		workers: config.Workers,
		timeout: config.Timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the crawl service
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("crawl service is already running")
	}

	s.isRunning = true

	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	log.Printf("Crawl service started with %d workers", s.workers)
	return nil
}

// Stop stops the crawl service gracefully
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.isRunning = false
	s.cancel()
	close(s.queue)

	s.wg.Wait()

	log.Println("Crawl service stopped")
	return nil
}

// NotifyDomain adds a domain to the crawl queue
func (s *Service) NotifyDomain(id uint) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return fmt.Errorf("crawl service is not running")
	}

	select {
	case s.queue <- id:
		return nil
	default:
		return fmt.Errorf("queue is full")
	}
}

// worker processes domains from the queue
func (s *Service) worker(id int) {
	defer s.wg.Done()

	log.Printf("Worker %d started", id)

	for {
		select {
		case domainID, ok := <-s.queue:
			if !ok {
				log.Printf("Worker %d shutting down", id)
				return
			}
			s.processDomain(domainID)
		case <-s.ctx.Done():
			log.Printf("Worker %d shutting down", id)
			return
		}
	}
}

// processDomain runs one crawl job for a single domain
func (s *Service) processDomain(id uint) {
	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	domain, err := service.GetDomainByID(s.db, id)
	if err != nil {
		log.Printf("Failed to get domain %d: %v", id, err)
		return
	}

	if domain.Status != db.StatusQueued {
		log.Printf("Domain %d is not in queued status: %s", id, domain.Status)
		return
	}

	if err := service.UpdateDomainStatus(s.db, id, db.StatusRunning, ""); err != nil {
		log.Printf("Failed to update domain %d status to running: %v", id, err)
		return
	}

	root := links.RootDomain(domain.Name)
	if root == "" {
		log.Printf("Domain %d has no usable root in %q", id, domain.Name)
		if updateErr := service.UpdateDomainStatus(s.db, id, db.StatusError, "invalid domain format"); updateErr != nil {
			log.Printf("Failed to update domain %d error status: %v", id, updateErr)
		}
		return
	}

	report := s.crawl(ctx, root)

	if err := s.persistReport(domain, report); err != nil {
		log.Printf("Failed to persist crawl for domain %d: %v", id, err)
		if updateErr := service.UpdateDomainStatus(s.db, id, db.StatusError, err.Error()); updateErr != nil {
			log.Printf("Failed to update domain %d error status: %v", id, updateErr)
		}
		return
	}

	log.Printf("Successfully crawled domain %d (%s): %d links, score %.2f",
		id, root, len(report.Links), scoring.Compute(report.Flags))
}

// Report accumulates everything one crawl observed about a domain.
type Report struct {
	Links  []db.Link
	Robots links.RobotsDirectives
	Flags  scoring.Flags
	// FetchError marks fetch or parse failures that are neither a 404 nor
	// a 503.
	FetchError bool
	Errors     []db.CrawlError
}

// crawl fetches the domain's root page and runs link and metatag extraction
// over it. HTTP 404 and 503 set their dedicated signals; anything else
// non-2xx, or a transport/parse failure, sets the generic error signal.
func (s *Service) crawl(ctx context.Context, root string) *Report {
	report := &Report{}
	target := "https://" + root

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		report.FetchError = true
		report.Errors = append(report.Errors, db.CrawlError{
			Kind: "error", Detail: err.Error(), FoundOnPath: "/",
		})
		return report
	}
	req.Header.Set("User-Agent", "RankidangBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		report.FetchError = true
		report.Errors = append(report.Errors, db.CrawlError{
			Kind: "error", Detail: err.Error(), FoundOnPath: "/",
		})
		return report
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		report.Flags.Error404 = true
		report.Errors = append(report.Errors, db.CrawlError{
			Kind: "error_404", Detail: "HTTP 404 fetching " + target, FoundOnPath: "/",
		})
		return report
	case resp.StatusCode == http.StatusServiceUnavailable:
		report.Flags.Error503 = true
		report.Errors = append(report.Errors, db.CrawlError{
			Kind: "error_503", Detail: "HTTP 503 fetching " + target, FoundOnPath: "/",
		})
		return report
	case resp.StatusCode != http.StatusOK:
		report.FetchError = true
		report.Errors = append(report.Errors, db.CrawlError{
			Kind: "error", Detail: fmt.Sprintf("HTTP %d fetching %s", resp.StatusCode, target), FoundOnPath: "/",
		})
		return report
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		report.FetchError = true
		report.Errors = append(report.Errors, db.CrawlError{
			Kind: "error", Detail: "failed to parse HTML: " + err.Error(), FoundOnPath: "/",
		})
		return report
	}

	report.Robots = links.ExtractRobots(doc)

	for _, anchor := range links.ExtractAnchors(doc, root) {
		report.Links = append(report.Links, db.Link{
			Path:        anchor.Classified.NormalizedLink,
			FoundOnPath: "/",
			External:    anchor.Classified.IsExternal,
		})

		// The raw double-slash warning trips on every absolute link via its
		// protocol separator; only non-absolute hrefs count against the
		// domain's warning signal.
		if anchor.Classified.WarningDoubleSlash && !strings.HasPrefix(anchor.Href, "http") {
			report.Flags.Warning = true
			report.Errors = append(report.Errors, db.CrawlError{
				Kind: "malformed_link", Detail: anchor.Href, FoundOnPath: "/",
			})
		}
	}

	return report
}

// persistReport writes links, error logs, signals and the recomputed score
func (s *Service) persistReport(domain *db.Domain, report *Report) error {
	rows := report.Links
	for i := range rows {
		rows[i].DomainID = domain.ID
	}

	if err := service.ReplaceLinks(s.db, domain.ID, rows); err != nil {
		return fmt.Errorf("failed to replace links: %w", err)
	}

	for i := range report.Errors {
		report.Errors[i].DomainID = domain.ID
	}
	if err := service.RecordCrawlErrors(s.db, report.Errors); err != nil {
		return fmt.Errorf("failed to record crawl errors: %w", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"error":         report.FetchError,
		"error404":      report.Flags.Error404,
		"error503":      report.Flags.Error503,
		"warning":       report.Flags.Warning,
		"robots_index":  report.Robots.Index,
		"robots_follow": report.Robots.Follow,
		"score":         scoring.Compute(report.Flags),
		"status":        db.StatusDone,
		"crawl_error":   "",
		"last_crawl":    now,
	}

	return s.db.Model(&db.Domain{}).Where("id = ?", domain.ID).Updates(updates).Error
}
