package db

import "time"

type CrawlStatus string

const (
	StatusQueued  CrawlStatus = "queued"
	StatusRunning CrawlStatus = "running"
	StatusDone    CrawlStatus = "done"
	StatusError   CrawlStatus = "error"
)

// Domain represents a monitored site owned by a user.
type Domain struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"index" json:"user_id"`
	Name   string `gorm:"not null;size:255" json:"name"` // root domain, e.g. example.com

	// Ownership verification. The key is generated lazily on the first
	// verification-status read and never regenerated once set.
	VerificationKey string `gorm:"size:64" json:"verification_key"`
	Verified        bool   `json:"verified"`

	// Performance analysis. A nil score means no successful analysis yet;
	// LastLighthouseAnalysis marks every attempt, failed ones included.
	PerformanceScore       *float64   `json:"performance_score"`
	Screenshot             string     `gorm:"type:longtext" json:"-"`
	LastLighthouseAnalysis *time.Time `json:"last_lighthouse_analysis"`

	// Robots directives from the last crawl's meta tag.
	RobotsIndex  bool `json:"robots_index"`
	RobotsFollow bool `json:"robots_follow"`

	// Accumulated crawl signals and the weighted health score derived from
	// them.
	Error    bool    `json:"error"`
	Error404 bool    `gorm:"column:error404" json:"error_404"`
	Error503 bool    `gorm:"column:error503" json:"error_503"`
	Warning  bool    `json:"warning"`
	Score    float64 `json:"score"`

	Status    CrawlStatus `gorm:"default:'queued'" json:"status"`
	CrawlErr  string      `gorm:"column:crawl_error" json:"crawl_error"`
	LastCrawl *time.Time  `json:"last_crawl"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	User      User      `gorm:"foreignKey:UserID" json:"-"`
}

// Link is one hyperlink discovered during a crawl: the normalized target
// path and the page it was found on. Rows are replaced wholesale per crawl.
type Link struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DomainID    uint      `gorm:"index" json:"domain_id"`
	Path        string    `gorm:"size:768" json:"path"`
	FoundOnPath string    `gorm:"size:768" json:"found_on_path"`
	External    bool      `json:"external"`
	CreatedAt   time.Time `json:"created_at"`
}

// CrawlError is one error condition observed during a crawl.
type CrawlError struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DomainID    uint      `gorm:"index" json:"domain_id"`
	Kind        string    `gorm:"size:32" json:"kind"` // error, error_404, error_503, malformed_link
	Detail      string    `gorm:"size:1024" json:"detail"`
	FoundOnPath string    `gorm:"size:768" json:"found_on_path"`
	CreatedAt   time.Time `json:"created_at"`
}

// User represents an authenticated user.
type User struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:100" json:"username"`
	Password  string    `gorm:"not null;size:255" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
