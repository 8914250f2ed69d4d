package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/localnerve/jam-build-datamodel/internal/app"
	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/localnerve/jam-build-datamodel/internal/models"
	"github.com/localnerve/jam-build-datamodel/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	for _, dbType := range []string{"mysql", "mariadb", "postgres", "postgresql", "sqlite", "sqlite-purego", "sqlserver", "mssql"} {
		d, err := Dialector(&config.Config{DBType: dbType, DBHost: "localhost", DBPort: "3306", DBDatabase: "datamodel"})
		require.NoError(t, err, dbType)
		assert.NotNil(t, d, dbType)
	}

	_, err := Dialector(&config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestConnectSQLite(t *testing.T) {
	for _, dbType := range []string{"sqlite", "sqlite-purego"} {
		t.Run(dbType, func(t *testing.T) {
			cfg := &config.Config{
				DBType:            dbType,
				DBDatabase:        filepath.Join(t.TempDir(), "datamodel.db"),
				DBConnectionLimit: 5,
			}
			db, err := Connect(cfg)
			require.NoError(t, err)
			defer Close(db)

			sqlDB, err := db.DB()
			require.NoError(t, err)
			assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

			require.NoError(t, AutoMigrate(db, models.All()...))
			assert.True(t, db.Migrator().HasTable("people"))
			assert.True(t, db.Migrator().HasTable("computer_tags"))
		})
	}
}

// TestMariaDB runs a method invocation against a real MariaDB server
func TestMariaDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	port, err := nat.NewPort("tcp", "3306")
	require.NoError(t, err)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mariadb:11",
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"MARIADB_ROOT_PASSWORD": "secret",
				"MARIADB_DATABASE":      "datamodel",
				"MARIADB_USER":          "datamodel",
				"MARIADB_PASSWORD":      "datamodel",
			},
			WaitingFor: wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate MariaDB: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)

	cfg := &config.Config{
		APIPrefix:         "/api",
		DBType:            "mariadb",
		DBHost:            host,
		DBPort:            mapped.Port(),
		DBDatabase:        "datamodel",
		DBUser:            "datamodel",
		DBPassword:        "datamodel",
		DBConnectionLimit: 5,
		RaiseLoadErrors:   true,
		PayloadFormat:     "json",
	}

	// the port listens before the server accepts logins
	db := mustConnect(t, cfg)
	defer Close(db)
	require.NoError(t, AutoMigrate(db, models.All()...))

	person := &models.Person{
		Name:      "Ada Lovelace",
		BirthDate: datatypes.Date(time.Date(2018, 1, 1, 0, 0, 0, 0, time.Local)),
	}
	require.NoError(t, db.Create(person).Error)

	dataModel, err := app.LoadDataModel(cfg, db)
	require.NoError(t, err)
	invoker := services.NewInvokeService(dataModel)

	result, err := invoker.InvokeMethod(ctx, "people", fmt.Sprint(person.ID), "age_in_x_years_y_months",
		`{"args":[],"kwargs":{"y_offset":10,"m_offset":3}}`, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"$type":"date","$value":"2028-04-01"}`, result.Payload)

	result, err = invoker.SetProperty(ctx, "people", fmt.Sprint(person.ID), "display_name", `"Countess"`, "json")
	require.NoError(t, err)
	assert.Equal(t, services.Committed, result.Commit)

	var stored models.Person
	require.NoError(t, db.First(&stored, person.ID).Error)
	assert.Equal(t, "Countess", stored.Nickname)
}

func mustConnect(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()

	var lastErr error
	for attempt := 0; attempt < 30; attempt++ {
		db, err := Connect(cfg)
		if err == nil {
			return db
		}
		lastErr = err
		time.Sleep(time.Second)
	}
	require.NoError(t, lastErr)
	return nil
}
