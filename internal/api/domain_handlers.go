package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/rankidang/seo-crawler/internal/crawler"
	"github.com/rankidang/seo-crawler/internal/db"
	"github.com/rankidang/seo-crawler/internal/dns"
	"github.com/rankidang/seo-crawler/internal/links"
	"github.com/rankidang/seo-crawler/internal/middleware"
	"github.com/rankidang/seo-crawler/internal/performance"
	"github.com/rankidang/seo-crawler/internal/service"
	"github.com/rankidang/seo-crawler/internal/verification"
)

// PostDomainRequest represents the domain registration request
type PostDomainRequest struct {
	Name string `json:"name" binding:"required,min=3,max=255"`
}

// PaginatedResponse represents a paginated response
type PaginatedResponse struct {
	Data  interface{} `json:"data"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Total int64       `json:"total"`
	Pages int         `json:"pages"`
}

// BulkRequest represents a bulk operation request
type BulkRequest struct {
	Action string `json:"action" binding:"required,oneof=rerun delete"`
	IDs    []uint `json:"ids" binding:"required,min=1,max=100"`
}

// VerificationStatusResponse carries the lazily generated key alongside the
// current verified flag.
type VerificationStatusResponse struct {
	VerificationKey string `json:"verification_key"`
	Verified        bool   `json:"verified"`
}

// requireDomain loads the domain scoped to the authenticated user, writing
// the error response itself on failure.
func requireDomain(c *gin.Context, dbConn *gorm.DB) (*db.Domain, bool) {
	user, ok := middleware.GetUserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return nil, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid domain ID"})
		return nil, false
	}

	domain, err := service.GetDomainByIDAndUser(dbConn, uint(id), user.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Domain not found"})
			return nil, false
		}
		log.Printf("Failed to fetch domain %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return nil, false
	}

	return domain, true
}

// PostDomainHandler handles domain registration
func PostDomainHandler(dbConn *gorm.DB, crawlerService *crawler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		var req PostDomainRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("Domain registration validation error: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid domain format",
				"details": err.Error(),
			})
			return
		}

		root := links.RootDomain(strings.TrimSpace(req.Name))
		if root == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Domain cannot be empty"})
			return
		}

		existing, err := service.GetDomainByNameAndUser(dbConn, user.UserID, root)
		if err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Domain already registered", "id": existing.ID})
			return
		} else if err != gorm.ErrRecordNotFound {
			log.Printf("Database error checking existing domain: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		domain, err := service.CreateDomain(dbConn, user.UserID, root)
		if err != nil {
			log.Printf("Failed to create domain: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save domain"})
			return
		}

		if err := crawlerService.NotifyDomain(domain.ID); err != nil {
			log.Printf("Failed to notify crawl service: %v", err)
			// Don't fail the request, just log the error
		}

		log.Printf("Registered new domain: %s (ID: %d)", root, domain.ID)
		c.JSON(http.StatusCreated, domain)
	}
}

// ListDomainsHandler handles domain listing with pagination and search
func ListDomainsHandler(dbConn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil || page < 1 {
			page = 1
		}

		pageSize, err := strconv.Atoi(c.DefaultQuery("size", "10"))
		if err != nil || pageSize < 1 || pageSize > 100 {
			pageSize = 10
		}

		sort := c.DefaultQuery("sort", "created_at desc")
		allowedSorts := map[string]bool{
			"created_at desc": true,
			"created_at asc":  true,
			"updated_at desc": true,
			"updated_at asc":  true,
			"score asc":       true,
			"score desc":      true,
			"status asc":      true,
			"status desc":     true,
		}
		if !allowedSorts[sort] {
			sort = "created_at desc"
		}

		search := strings.TrimSpace(c.Query("q"))
		status := strings.TrimSpace(c.Query("status"))

		query := dbConn.Model(&db.Domain{}).Where("user_id = ?", user.UserID)

		if search != "" {
			query = query.Where("name LIKE ?", "%"+search+"%")
		}

		if status != "" {
			query = query.Where("status = ?", status)
		}

		var total int64
		if err := query.Count(&total).Error; err != nil {
			log.Printf("Failed to count domains: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		offset := (page - 1) * pageSize
		pages := int((total + int64(pageSize) - 1) / int64(pageSize))

		var domains []db.Domain
		if err := query.Order(sort).Limit(pageSize).Offset(offset).Find(&domains).Error; err != nil {
			log.Printf("Failed to fetch domains: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, PaginatedResponse{
			Data:  domains,
			Page:  page,
			Size:  pageSize,
			Total: total,
			Pages: pages,
		})
	}
}

// GetDomainHandler handles retrieving a single domain
func GetDomainHandler(dbConn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, ok := requireDomain(c, dbConn)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, domain)
	}
}

// ListDomainLinksHandler lists the links discovered by the latest crawl
func ListDomainLinksHandler(dbConn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, ok := requireDomain(c, dbConn)
		if !ok {
			return
		}

		var rows []db.Link
		if err := dbConn.Where("domain_id = ?", domain.ID).Order("id asc").Find(&rows).Error; err != nil {
			log.Printf("Failed to fetch links for domain %d: %v", domain.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"domain_id": domain.ID, "links": rows})
	}
}

// ListDomainErrorsHandler lists accumulated crawl error-log entries
func ListDomainErrorsHandler(dbConn *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, ok := requireDomain(c, dbConn)
		if !ok {
			return
		}

		var rows []db.CrawlError
		if err := dbConn.Where("domain_id = ?", domain.ID).Order("id desc").Limit(100).Find(&rows).Error; err != nil {
			log.Printf("Failed to fetch crawl errors for domain %d: %v", domain.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"domain_id": domain.ID, "errors": rows})
	}
}

// VerificationStatusHandler reports verification state. Reading the status
// is what lazily assigns a verification key to domains that have none.
func VerificationStatusHandler(dbConn *gorm.DB, verifier *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, ok := requireDomain(c, dbConn)
		if !ok {
			return
		}

		key, err := verifier.EnsureKey(domain)
		if err != nil {
			log.Printf("Failed to ensure verification key for domain %d: %v", domain.ID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate verification key"})
			return
		}

		c.JSON(http.StatusOK, VerificationStatusResponse{
			VerificationKey: key,
			Verified:        domain.Verified,
		})
	}
}

// VerifyDomainHandler runs TXT-record ownership verification
func VerifyDomainHandler(dbConn *gorm.DB, verifier *verification.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, ok := requireDomain(c, dbConn)
		if !ok {
			return
		}

		if domain.VerificationKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No verification key set; fetch verification status first"})
			return
		}

		verified, err := verifier.Verify(c.Request.Context(), domain)
		if err != nil {
			log.Printf("Verification failed for domain %d: %v", domain.ID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "DNS lookup failed", "details": err.Error()})
			return
		}

		if !verified {
			c.JSON(http.StatusConflict, gin.H{
				"verified": false,
				"error":    "Verification key not found in TXT records",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{"verified": true})
	}
}

// AnalyzePerformanceHandler triggers a performance audit run
func AnalyzePerformanceHandler(dbConn *gorm.DB, analyzer *performance.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, ok := requireDomain(c, dbConn)
		if !ok {
			return
		}

		result := analyzer.Analyze(c.Request.Context(), domain)
		c.JSON(http.StatusOK, result)
	}
}

// DNSRecordsHandler returns the best-effort full record set for diagnostics
func DNSRecordsHandler(dbConn *gorm.DB, resolver *dns.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		domain, ok := requireDomain(c, dbConn)
		if !ok {
			return
		}

		records, err := resolver.LookupAll(c.Request.Context(), domain.Name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, records)
	}
}

// BulkHandler handles bulk operations on domains
func BulkHandler(dbConn *gorm.DB, crawlerService *crawler.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := middleware.GetUserFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		var req BulkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Printf("Bulk operation validation error: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid bulk request",
				"details": err.Error(),
			})
			return
		}

		var affected int64
		var err error

		switch req.Action {
		case "rerun":
			result := dbConn.Model(&db.Domain{}).
				Where("id IN ? AND user_id = ?", req.IDs, user.UserID).
				Updates(map[string]interface{}{
					"status":      db.StatusQueued,
					"crawl_error": "",
				})
			affected = result.RowsAffected
			err = result.Error

			if err == nil && affected > 0 {
				for _, id := range req.IDs {
					if notifyErr := crawlerService.NotifyDomain(id); notifyErr != nil {
						log.Printf("Failed to notify crawl service for domain %d: %v", id, notifyErr)
					}
				}
			}

		case "delete":
			result := dbConn.Where("user_id = ?", user.UserID).Delete(&db.Domain{}, req.IDs)
			affected = result.RowsAffected
			err = result.Error

		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
			return
		}

		if err != nil {
			log.Printf("Bulk operation failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to perform bulk operation"})
			return
		}

		log.Printf("Bulk %s operation completed: %d domains affected", req.Action, affected)
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"action":   req.Action,
			"affected": affected,
		})
	}
}
