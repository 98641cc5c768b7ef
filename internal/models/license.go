package models

// AircraftLicense is one deduplicated entry of the aircraft license registry.
// Field order matches the emitted JSON object.
type AircraftLicense struct {
	CallSign      string `json:"call_sign"` // Primary key
	Name          string `json:"name"`      // Entity name, or "first last" when absent
	StreetAddress string `json:"street_address"`
	City          string `json:"city"`
	State         string `json:"state"`
	Zip           string `json:"zip"` // First 5 characters only
	FRN           string `json:"frn"` // FCC Registration Number, placeholder corrected
}

// Key returns the call sign
func (a AircraftLicense) Key() string {
	return a.CallSign
}

// TowerRegistration is one line of the antenna structure registration dataset.
// Tower lines have no natural key and are never deduplicated.
type TowerRegistration struct {
	RecordType         string `json:"record_type"`
	RegistrationType   string `json:"registration_type"`
	RegistrationNumber string `json:"registration_number"`
	EBFNumber          string `json:"ebf_number"`
	UniqueID           string `json:"unique_id"`
	StatusCode         string `json:"status_code"`
	CompanyName        string `json:"company_name"`
	Phone              string `json:"phone"`
	StreetAddress      string `json:"street_address"`
	City               string `json:"city"`
	State              string `json:"state"`
	ZipCode            string `json:"zip_code"`
	ContactName        string `json:"contact_name"`
}
