package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/localnerve/jam-build-datamodel/internal/utils"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Authorizer   string            `json:"authorizer"`
	DataModel    string            `json:"datamodel"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// HealthCheck performs a comprehensive health check of the service. models
// may be nil when the caller has not registered any.
func HealthCheck(ctx context.Context, cfg *config.Config, db *gorm.DB, models *ModelService) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	fail := func(msg string) {
		result.Status = "unhealthy"
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		fail(fmt.Sprintf("Database connection error: %v", err))
		log.Printf("Health check failed - database connection: %v", err)
	} else if err := sqlDB.PingContext(ctx); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		fail(fmt.Sprintf("Database ping failed: %v", err))
		log.Printf("Health check failed - database ping: %v", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Authorizer is optional
	if cfg.AuthzURL == "" {
		result.Authorizer = "disabled"
	} else if err := utils.PingAuthorizer(ctx, cfg.AuthzURL); err != nil {
		result.Authorizer = "unreachable"
		result.Details["authorizer_error"] = err.Error()
		fail(fmt.Sprintf("Authorizer ping failed: %v", err))
		log.Printf("Health check failed - authorizer ping: %v", err)
	} else {
		result.Authorizer = "ok"
		result.Details["authorizer_url"] = cfg.AuthzURL
	}

	if models == nil {
		result.DataModel = "not loaded"
	} else {
		entities := len(models.Document()) - 1
		result.DataModel = "ok"
		result.Details["datamodel_entities"] = strconv.Itoa(entities)
		result.Details["datamodel_endpoints"] = strconv.Itoa(len(models.Endpoints().List()))
	}

	if result.Status == "healthy" {
		log.Println("Health check passed - all systems operational")
	}

	return result
}
