package app

import (
	"fmt"
	"log"

	"github.com/localnerve/jam-build-datamodel/internal/codec"
	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/localnerve/jam-build-datamodel/internal/models"
	"github.com/localnerve/jam-build-datamodel/internal/services"
	"gorm.io/gorm"
)

// LoadDataModel registers every served model against db using the
// registration options in cfg.
func LoadDataModel(cfg *config.Config, db *gorm.DB) (*services.ModelService, error) {
	codecs := codec.NewRegistry(codec.Options{
		SerializeNaively: cfg.SerializeNaively,
		RaiseLoadErrors:  cfg.RaiseLoadErrors,
	})
	models.RegisterCodecs(codecs)

	svc, err := services.NewModelService(db, codecs, services.ModelOptions{
		IncludeInternal:      cfg.IncludeModelInternalFunctions,
		CommitOnMethodReturn: cfg.CommitOnMethodReturn,
		PayloadFormat:        cfg.PayloadFormat,
		HideProperties:       !cfg.ExposeProperty,
	})
	if err != nil {
		return nil, err
	}

	for _, r := range models.Registrations() {
		view := r.View
		if view.URLPrefix == "" {
			view.URLPrefix = cfg.APIPrefix
		}
		if err := svc.Register(r.Model, view); err != nil {
			return nil, fmt.Errorf("register %T: %w", r.Model, err)
		}
	}

	log.Printf("Data model loaded: %d endpoints", len(svc.Endpoints().List()))
	return svc, nil
}
