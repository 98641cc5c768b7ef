package uls

import (
	"strings"

	"uls_etl/internal/models"
)

// AircraftFields is the column layout of the aircraft EN (entity) file
var AircraftFields = []string{
	"record_type", "unique_system_identifier", "uls_file_number", "ebf_number",
	"call_sign", "status_code", "status_date", "name", "first_name",
	"middle_initial", "last_name", "suffix", "phone", "fax", "email",
	"street_address", "city", "state", "zip_code", "po_box", "attn_line",
	"frn", "registration_number", "license_status", "reserved1", "reserved2",
	"reserved3", "reserved4",
}

var frnIndex = indexOf(AircraftFields, "frn")

const zipLength = 5

// MapAircraft builds an aircraft license from one EN line. Lines without a
// call sign are rejected.
func MapAircraft(tokens []string) (models.AircraftLicense, bool) {
	tokens = Pad(tokens, len(AircraftFields))
	fields := Align(AircraftFields, tokens)

	callSign := fields["call_sign"]
	if callSign == "" {
		return models.AircraftLicense{}, false
	}

	name := fields["name"]
	if name == "" {
		name = fields["first_name"] + " " + fields["last_name"]
	}

	return models.AircraftLicense{
		CallSign:      callSign,
		Name:          strings.TrimSpace(name),
		StreetAddress: fields["street_address"],
		City:          fields["city"],
		State:         fields["state"],
		Zip:           strings.TrimSpace(truncate(fields["zip_code"], zipLength)),
		FRN:           CorrectFRN(tokens, frnIndex),
	}, true
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}
