package services

import (
	"errors"
	"testing"
	"time"

	"github.com/localnerve/jam-build-datamodel/internal/codec"
	"github.com/localnerve/jam-build-datamodel/internal/datamodel"
	"github.com/localnerve/jam-build-datamodel/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// widget is a minimal model with undeclared methods
type widget struct {
	ID    uint `gorm:"primaryKey"`
	Label string
}

func (w *widget) Explode() error {
	return errors.New("Something happened")
}

func (w *widget) Boom() string {
	panic("boom")
}

func (w *widget) Relabel(label string) string {
	w.Label = label
	return label
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(append(models.All(), &widget{})...))
	return db
}

func newModelService(t *testing.T, db *gorm.DB, opts ModelOptions) *ModelService {
	t.Helper()

	codecs := codec.NewRegistry(codec.Options{RaiseLoadErrors: true})
	models.RegisterCodecs(codecs)

	svc, err := NewModelService(db, codecs, opts)
	require.NoError(t, err)
	for _, r := range models.Registrations() {
		require.NoError(t, svc.Register(r.Model, r.View))
	}
	require.NoError(t, svc.Register(&widget{}, datamodel.ViewConfig{}))
	return svc
}

func seedPerson(t *testing.T, db *gorm.DB) *models.Person {
	t.Helper()

	p := &models.Person{
		Name:      "Ada Lovelace",
		BirthDate: datatypes.Date(time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
