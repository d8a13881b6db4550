// Package performance runs external page-quality audits and folds the
// result into the domain's stored score.
package performance

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rankidang/seo-crawler/internal/db"
	"github.com/rankidang/seo-crawler/internal/links"
)

// Store is the narrow persistence slice the workflow needs.
type Store interface {
	UpdateDomain(id uint, fields map[string]interface{}) error
}

// Event is one timestamped entry in an analysis run's log.
type Event struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// Log is the append-only ordered sequence of events emitted while a run
// progresses.
type Log struct {
	events []Event
}

// Recordf appends a timestamped event and mirrors it to the process log.
func (l *Log) Recordf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.events = append(l.events, Event{At: time.Now(), Message: msg})
	log.Printf("performance: %s", msg)
}

// Events returns the recorded sequence in emission order.
func (l *Log) Events() []Event {
	return l.events
}

// Config holds oracle configuration
type Config struct {
	APIKey  string
	APIURL  string
	Timeout time.Duration
}

// NewConfig creates oracle configuration from environment variables
func NewConfig() *Config {
	apiURL := os.Getenv("PAGESPEED_API_URL")
	if apiURL == "" {
		apiURL = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"
	}

	return &Config{
		APIKey:  os.Getenv("PAGESPEED_API_KEY"),
		APIURL:  apiURL,
		Timeout: 30 * time.Second,
	}
}

// Insights is the persisted outcome of a successful run.
type Insights struct {
	Score      float64 `json:"score"`
	Screenshot string  `json:"-"`
}

// Result is what Analyze reports back to orchestration. The workflow never
// returns a Go error: Error is the sole failure signal, with the log
// carrying the detail.
type Result struct {
	Error    bool      `json:"error"`
	Insights *Insights `json:"insights,omitempty"`
	Log      []Event   `json:"log"`
}

// Service calls the external scoring oracle and smooths results into the
// domain record.
type Service struct {
	config *Config
	client *http.Client
	store  Store
}

// NewService creates a performance analysis service.
func NewService(config *Config, store Store) *Service {
	if config == nil {
		config = NewConfig()
	}
	return &Service{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		store:  store,
	}
}

// The oracle response is untrusted; every field is a pointer so missing
// pieces are detectable instead of defaulting silently.
type oracleResponse struct {
	LighthouseResult *struct {
		Categories *struct {
			Performance *struct {
				Score *float64 `json:"score"`
			} `json:"performance"`
		} `json:"categories"`
		FullPageScreenshot *struct {
			Screenshot *struct {
				Data string `json:"data"`
			} `json:"screenshot"`
		} `json:"fullPageScreenshot"`
	} `json:"lighthouseResult"`
}

// Analyze runs one audit for the domain. Failures of any kind — bad domain,
// oracle timeout, non-2xx, malformed payload, persistence — are captured
// into the result; the attempt timestamp is persisted either way so "last
// analysis attempted at T, score unchanged" is visible to users.
func (s *Service) Analyze(ctx context.Context, domain *db.Domain) Result {
	runLog := &Log{}

	root := links.RootDomain(domain.Name)
	if root == "" {
		runLog.Recordf("domain %d has no usable root in %q, skipping audit", domain.ID, domain.Name)
		s.markAttempt(domain, runLog)
		return Result{Error: true, Log: runLog.Events()}
	}

	target := "https://" + root
	runLog.Recordf("requesting audit for %s", target)

	fresh, screenshot, err := s.fetchInsights(ctx, target)
	if err != nil {
		runLog.Recordf("audit for %s failed: %v", target, err)
		s.markAttempt(domain, runLog)
		return Result{Error: true, Log: runLog.Events()}
	}

	// Single-step exponential smoothing with α=0.5: average the fresh score
	// with the stored one, or take the fresh score on the first run.
	score := fresh
	if domain.PerformanceScore != nil {
		score = (fresh + *domain.PerformanceScore) / 2
	}
	// A 1% score averaged against 0 would otherwise read as a persistent
	// 0.5% forever.
	if score == 0.005 {
		score = 0
	}

	now := time.Now()
	if err := s.store.UpdateDomain(domain.ID, map[string]interface{}{
		"screenshot":               screenshot,
		"performance_score":        score,
		"last_lighthouse_analysis": now,
	}); err != nil {
		runLog.Recordf("failed to persist audit for domain %d: %v", domain.ID, err)
		return Result{Error: true, Log: runLog.Events()}
	}

	domain.PerformanceScore = &score
	domain.Screenshot = screenshot
	domain.LastLighthouseAnalysis = &now

	runLog.Recordf("audit complete: fresh score %.3f, smoothed score %.3f", fresh, score)
	return Result{
		Insights: &Insights{Score: score, Screenshot: screenshot},
		Log:      runLog.Events(),
	}
}

// fetchInsights calls the oracle and defensively unpacks the score and
// screenshot.
func (s *Service) fetchInsights(ctx context.Context, target string) (float64, string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	params := url.Values{}
	params.Set("url", target)
	if s.config.APIKey != "" {
		params.Set("key", s.config.APIKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create oracle request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("oracle request for %s failed: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, "", fmt.Errorf("oracle returned HTTP %d for %s", resp.StatusCode, target)
	}

	var payload oracleResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, "", fmt.Errorf("failed to decode oracle response: %w", err)
	}

	lr := payload.LighthouseResult
	if lr == nil {
		return 0, "", fmt.Errorf("oracle response missing lighthouseResult")
	}
	if lr.Categories == nil || lr.Categories.Performance == nil || lr.Categories.Performance.Score == nil {
		return 0, "", fmt.Errorf("oracle response missing performance score")
	}
	if lr.FullPageScreenshot == nil || lr.FullPageScreenshot.Screenshot == nil || lr.FullPageScreenshot.Screenshot.Data == "" {
		return 0, "", fmt.Errorf("oracle response missing screenshot")
	}

	return *lr.Categories.Performance.Score, lr.FullPageScreenshot.Screenshot.Data, nil
}

// markAttempt stamps the attempt time without touching the stored score.
func (s *Service) markAttempt(domain *db.Domain, runLog *Log) {
	now := time.Now()
	if err := s.store.UpdateDomain(domain.ID, map[string]interface{}{
		"last_lighthouse_analysis": now,
	}); err != nil {
		runLog.Recordf("failed to stamp analysis attempt for domain %d: %v", domain.ID, err)
		return
	}
	domain.LastLighthouseAnalysis = &now
}
