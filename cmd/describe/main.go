package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/localnerve/jam-build-datamodel/internal/app"
	"github.com/localnerve/jam-build-datamodel/internal/config"
	"github.com/localnerve/jam-build-datamodel/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	prefix := flag.String("prefix", "/api", "URL prefix of the model endpoints")
	internal := flag.Bool("internal", false, "include single underscore methods")
	naive := flag.Bool("naive", false, "describe with naive serialization")
	hideProperties := flag.Bool("no-properties", false, "describe without computed properties")
	showSchema := flag.Bool("schema", false, "print the generated table DDL")
	flag.Parse()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal(err)
	}

	// Auto-migrate to see what GORM creates
	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal(err)
	}

	cfg := &config.Config{
		APIPrefix:                     *prefix,
		IncludeModelInternalFunctions: *internal,
		SerializeNaively:              *naive,
		ExposeProperty:                !*hideProperties,
		RaiseLoadErrors:               true,
		PayloadFormat:                 "msgpack",
	}
	dataModel, err := app.LoadDataModel(cfg, db)
	if err != nil {
		log.Fatal(err)
	}

	if *showSchema {
		var tables []string
		db.Raw("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name").Scan(&tables)

		for _, table := range tables {
			fmt.Printf("\n=== Table: %s ===\n", table)
			var ddl string
			db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&ddl)
			fmt.Println(ddl)
		}
		fmt.Println()
	}

	out, err := json.MarshalIndent(dataModel.Document(), "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(out))
}
