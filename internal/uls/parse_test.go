package uls

import (
	"strings"
	"testing"

	"uls_etl/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// aircraftLine renders an EN line with the given columns set
func aircraftLine(values map[string]string) string {
	tokens := make([]string, len(AircraftFields))
	for i, name := range AircraftFields {
		tokens[i] = values[name]
	}
	tokens[0] = "EN"
	return strings.Join(tokens, "|")
}

func TestSplitLine(t *testing.T) {
	tokens := SplitLine("  EN| 123 |KA1234|  \r\n")
	assert.Equal(t, []string{"EN", "123", "KA1234", ""}, tokens)
}

func TestAlign_PadsMissingTrailingFields(t *testing.T) {
	fields := Align(AircraftFields, []string{"EN", "42"})

	require.Len(t, fields, len(AircraftFields))
	assert.Equal(t, "EN", fields["record_type"])
	assert.Equal(t, "42", fields["unique_system_identifier"])
	assert.Equal(t, "", fields["call_sign"])
	assert.Equal(t, "", fields["reserved4"])
}

func TestAlignOffsets_BeyondLine(t *testing.T) {
	fields := AlignOffsets(TowerOffsets, []string{"EN", "A", "1000001"})

	require.Len(t, fields, len(TowerOffsets))
	assert.Equal(t, "1000001", fields["registration_number"])
	assert.Equal(t, "", fields["contact_name"])
}

func TestCorrectFRN(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		idx    int
		want   string
	}{
		{name: "regular value", tokens: []string{"x", "0012345678", "y"}, idx: 1, want: "0012345678"},
		{name: "placeholder with value next", tokens: []string{"x", "000", "123456"}, idx: 1, want: "123456"},
		{name: "placeholder followed by placeholder", tokens: []string{"x", "000", "000"}, idx: 1, want: "000"},
		{name: "placeholder followed by empty", tokens: []string{"x", "000", ""}, idx: 1, want: "000"},
		{name: "placeholder at end of line", tokens: []string{"x", "000"}, idx: 1, want: "000"},
		{name: "index out of range", tokens: []string{"x"}, idx: 3, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CorrectFRN(tt.tokens, tt.idx))
		})
	}
}

func TestMapAircraft(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		want   models.AircraftLicense
		wantOK bool
	}{
		{
			name: "entity name and long zip",
			line: aircraftLine(map[string]string{
				"call_sign": "KA1234", "name": "Acme Aviation LLC", "street_address": "1 Main St",
				"city": "Wichita", "state": "KS", "zip_code": "672021234", "frn": "0001234567",
			}),
			want: models.AircraftLicense{
				CallSign: "KA1234", Name: "Acme Aviation LLC", StreetAddress: "1 Main St",
				City: "Wichita", State: "KS", Zip: "67202", FRN: "0001234567",
			},
			wantOK: true,
		},
		{
			name: "individual name from first and last",
			line: aircraftLine(map[string]string{
				"call_sign": "N5678", "first_name": "Amelia", "last_name": "Earhart", "frn": "000",
				"registration_number": "123456",
			}),
			want:   models.AircraftLicense{CallSign: "N5678", Name: "Amelia Earhart", FRN: "123456"},
			wantOK: true,
		},
		{
			name:   "only last name",
			line:   aircraftLine(map[string]string{"call_sign": "N1", "last_name": "Wright"}),
			want:   models.AircraftLicense{CallSign: "N1", Name: "Wright"},
			wantOK: true,
		},
		{
			name:   "short line keeps call sign",
			line:   "EN|1|F|E|KB9999",
			want:   models.AircraftLicense{CallSign: "KB9999"},
			wantOK: true,
		},
		{
			name:   "missing call sign is dropped",
			line:   aircraftLine(map[string]string{"name": "Nobody"}),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MapAircraft(SplitLine(tt.line))
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMapTower(t *testing.T) {
	tokens := make([]string, 26)
	for i := range tokens {
		tokens[i] = "c" + string(rune('a'+i))
	}
	tokens[22] = "20001-1234"

	got, ok := MapTower(tokens)
	require.True(t, ok)
	assert.Equal(t, models.TowerRegistration{
		RecordType: "ca", RegistrationType: "cb", RegistrationNumber: "cc", EBFNumber: "cd",
		UniqueID: "ce", StatusCode: "cf", CompanyName: "ck", Phone: "co", StreetAddress: "cr",
		City: "cu", State: "cv", ZipCode: "20001", ContactName: "cx",
	}, got)

	short, ok := MapTower([]string{"EN", "A"})
	require.True(t, ok)
	assert.Equal(t, models.TowerRegistration{RecordType: "EN", RegistrationType: "A"}, short)
}

func TestParse_Latin1AndBlankLines(t *testing.T) {
	// 0xE9 is "é" in ISO-8859-1 and invalid on its own in UTF-8
	payload := "EN|1|||KA1|||Soci\xe9t\xe9 A\xe9ro\r\n\n   \nEN|2|||||||Dropped\n"

	var got []models.AircraftLicense
	stats, err := Parse(strings.NewReader(payload), MapAircraft, func(a models.AircraftLicense) {
		got = append(got, a)
	})
	require.NoError(t, err)

	assert.Equal(t, Stats{Lines: 2, Parsed: 1, Dropped: 1}, stats)
	require.Len(t, got, 1)
	assert.Equal(t, "KA1", got[0].CallSign)
	assert.Equal(t, "Société Aéro", got[0].Name)
}

func TestParse_TowerKeepsEveryLine(t *testing.T) {
	payload := "EN|A|1\nEN|A|1\nEN|B|2\n"

	var got []models.TowerRegistration
	stats, err := Parse(strings.NewReader(payload), MapTower, func(r models.TowerRegistration) {
		got = append(got, r)
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Parsed)
	assert.Len(t, got, 3)
}

func TestParse_OverlongLineIsNotFatal(t *testing.T) {
	long := "EN|9|||" + strings.Repeat("x", 2<<20)
	payload := "EN|1|||KA1\n" + long + "\nEN|2|||KB2"

	var got []string
	stats, err := Parse(strings.NewReader(payload), MapAircraft, func(a models.AircraftLicense) {
		got = append(got, a.CallSign)
	})
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Lines)
	assert.Equal(t, []string{"KA1", strings.Repeat("x", 2<<20), "KB2"}, got)
}
