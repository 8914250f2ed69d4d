package services

import (
	"context"
	"testing"

	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestHealthCheck(t *testing.T) {
	db := setupDB(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:"}

	result := HealthCheck(context.Background(), cfg, db, nil)
	assert.Equal(t, "healthy", result.Status)
	assert.Equal(t, "ok", result.Database)
	assert.Equal(t, "disabled", result.Authorizer)
	assert.Equal(t, "not loaded", result.DataModel)

	result = HealthCheck(context.Background(), cfg, db, newModelService(t, db, ModelOptions{}))
	assert.Equal(t, "ok", result.DataModel)
	assert.Equal(t, "5", result.Details["datamodel_entities"])
}

func TestHealthCheckAuthorizerUnreachable(t *testing.T) {
	db := setupDB(t)
	cfg := &config.Config{DBType: "sqlite", DBDatabase: ":memory:", AuthzURL: "http://127.0.0.1:1"}

	result := HealthCheck(context.Background(), cfg, db, nil)
	assert.Equal(t, "unhealthy", result.Status)
	assert.Equal(t, "unreachable", result.Authorizer)
	assert.Contains(t, result.ErrorMessage, "Authorizer ping failed")
}
