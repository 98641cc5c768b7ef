package pipeline

import (
	"uls_etl/internal/archive"
	"uls_etl/internal/database"
	"uls_etl/internal/models"
	"uls_etl/internal/records"
	"uls_etl/internal/uls"
)

const (
	AircraftDataset = "aircraft"
	TowerDataset    = "tower"
)

// DatasetNames lists the known datasets in default run order
var DatasetNames = []string{AircraftDataset, TowerDataset}

// entityPayload is the EN (entity) file of a ULS complete extract
var entityPayload = archive.Pattern{Prefix: "en", Suffix: ".dat"}

// Aircraft is the aircraft license dataset, deduplicated by call sign
func Aircraft(locators []string) Dataset[models.AircraftLicense] {
	return Dataset[models.AircraftLicense]{
		Name:        AircraftDataset,
		Locators:    locators,
		ArchiveName: "aircr.zip",
		OutputName:  "aircr_clean.json",
		Payload:     entityPayload,
		Map:         uls.MapAircraft,
		NewCollection: func() records.Collection[models.AircraftLicense] {
			return records.NewKeyed(models.AircraftLicense.Key)
		},
		Persist: func(db *database.DB, recs []models.AircraftLicense, batchSize int) error {
			return db.AircraftRepository().ReplaceAll(recs, batchSize)
		},
		Summary: "Processed %d unique aircraft call signs saved to %s",
	}
}

// Tower is the antenna structure registration dataset, kept line for line
func Tower(locators []string) Dataset[models.TowerRegistration] {
	return Dataset[models.TowerRegistration]{
		Name:        TowerDataset,
		Locators:    locators,
		ArchiveName: "tower.zip",
		OutputName:  "tower_clean.json",
		Payload:     entityPayload,
		Map:         uls.MapTower,
		NewCollection: func() records.Collection[models.TowerRegistration] {
			return records.NewSequence[models.TowerRegistration]()
		},
		Persist: func(db *database.DB, recs []models.TowerRegistration, batchSize int) error {
			return db.TowerRepository().ReplaceAll(recs, batchSize)
		},
		Summary: "Processed %d tower records saved to %s",
	}
}
