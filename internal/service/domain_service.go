package service

import (
	"fmt"

	"github.com/rankidang/seo-crawler/internal/db"
	"gorm.io/gorm"
)

// UpdateDomainStatus updates the crawl status of a domain
func UpdateDomainStatus(dbConn *gorm.DB, id uint, status db.CrawlStatus, errorMsg string) error {
	updates := map[string]interface{}{
		"status":      status,
		"crawl_error": errorMsg,
	}
	return dbConn.Model(&db.Domain{}).Where("id = ?", id).Updates(updates).Error
}

// GetDomainByID retrieves a domain by ID
func GetDomainByID(dbConn *gorm.DB, id uint) (*db.Domain, error) {
	var domain db.Domain
	err := dbConn.First(&domain, id).Error
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// GetDomainByIDAndUser retrieves a domain by ID for a specific user
func GetDomainByIDAndUser(dbConn *gorm.DB, id uint, userID uint) (*db.Domain, error) {
	var domain db.Domain
	err := dbConn.Where("id = ? AND user_id = ?", id, userID).First(&domain).Error
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// GetDomainByNameAndUser retrieves a domain by root-domain name for a
// specific user
func GetDomainByNameAndUser(dbConn *gorm.DB, userID uint, name string) (*db.Domain, error) {
	var domain db.Domain
	err := dbConn.Where("user_id = ? AND name = ?", userID, name).First(&domain).Error
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// CreateDomain creates a new domain record for a specific user
func CreateDomain(dbConn *gorm.DB, userID uint, name string) (*db.Domain, error) {
	if name == "" {
		return nil, fmt.Errorf("domain name cannot be empty")
	}
	if userID == 0 {
		return nil, fmt.Errorf("user ID cannot be zero")
	}

	domain := db.Domain{
		UserID: userID,
		Name:   name,
		Status: db.StatusQueued,
	}

	err := dbConn.Create(&domain).Error
	if err != nil {
		return nil, err
	}
	return &domain, nil
}

// ReplaceLinks swaps a domain's persisted link set for the latest crawl's.
func ReplaceLinks(dbConn *gorm.DB, domainID uint, links []db.Link) error {
	return dbConn.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("domain_id = ?", domainID).Delete(&db.Link{}).Error; err != nil {
			return err
		}
		if len(links) == 0 {
			return nil
		}
		return tx.Create(&links).Error
	})
}

// RecordCrawlErrors appends error-log rows for a crawl.
func RecordCrawlErrors(dbConn *gorm.DB, errs []db.CrawlError) error {
	if len(errs) == 0 {
		return nil
	}
	return dbConn.Create(&errs).Error
}

// Store adapts gorm to the narrow persistence interface the verification
// and performance workflows accept.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store over an existing connection pool.
func NewStore(dbConn *gorm.DB) *Store {
	return &Store{db: dbConn}
}

// UpdateDomain applies a field map to a domain record.
func (s *Store) UpdateDomain(id uint, fields map[string]interface{}) error {
	return s.db.Model(&db.Domain{}).Where("id = ?", id).Updates(fields).Error
}
