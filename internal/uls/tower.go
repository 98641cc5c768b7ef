package uls

import (
	"strings"

	"uls_etl/internal/models"
)

// TowerOffsets are the EN (entity) columns retained from the tower dataset
var TowerOffsets = []Offset{
	{Name: "record_type", Index: 0},
	{Name: "registration_type", Index: 1},
	{Name: "registration_number", Index: 2},
	{Name: "ebf_number", Index: 3},
	{Name: "unique_id", Index: 4},
	{Name: "status_code", Index: 5},
	{Name: "company_name", Index: 10},
	{Name: "phone", Index: 14},
	{Name: "street_address", Index: 17},
	{Name: "city", Index: 20},
	{Name: "state", Index: 21},
	{Name: "zip_code", Index: 22},
	{Name: "contact_name", Index: 23},
}

// MapTower builds a tower registration from one EN line. Every line is kept.
func MapTower(tokens []string) (models.TowerRegistration, bool) {
	f := AlignOffsets(TowerOffsets, tokens)

	return models.TowerRegistration{
		RecordType:         f["record_type"],
		RegistrationType:   f["registration_type"],
		RegistrationNumber: f["registration_number"],
		EBFNumber:          f["ebf_number"],
		UniqueID:           f["unique_id"],
		StatusCode:         f["status_code"],
		CompanyName:        f["company_name"],
		Phone:              f["phone"],
		StreetAddress:      f["street_address"],
		City:               f["city"],
		State:              f["state"],
		ZipCode:            strings.TrimSpace(truncate(f["zip_code"], zipLength)),
		ContactName:        f["contact_name"],
	}, true
}
