package directory

import (
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/rc-medicall/backend/internal/storage/models"
)

//go:embed seed.csv
var seedCSV string

// Positional layout of the seed table.
const (
	seedExecutive = iota
	seedName
	seedSpecialty
	seedSubSpecialty
	seedAddress
	seedHospital
	seedOffice
	seedFloor
	seedPhone
	seedEmail
	seedCedula
	seedBirthDate
	seedInsurance
	seedCategory
	seedSocialStyle
	seedSegment
	seedHours
	seedNotes
)

const defaultSpecialty = "GENERAL"

var whitespace = regexp.MustCompile(`\s+`)

// Seed returns the built-in directory loaded when neither the remote store nor
// the local cache has any contacts.
func Seed() ([]models.Contact, error) {
	return ParseSeed(strings.NewReader(seedCSV))
}

// ParseSeed reads a positional seed table. The first line is skipped when it is a
// header; rows without a name are ignored. IDs are derived from the row number and
// the name, so the same table always yields the same IDs.
func ParseSeed(r io.Reader) ([]models.Contact, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	contacts := []models.Contact{}
	for row := 0; ; row++ {
		parts, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", row, err)
		}
		if row == 0 && strings.Contains(strings.ToUpper(strings.Join(parts, ",")), "EJECUTIVO") {
			continue
		}
		if len(parts) < 2 {
			continue
		}

		field := func(i int) string {
			if i < len(parts) {
				return strings.TrimSpace(parts[i])
			}
			return ""
		}

		name := strings.ToUpper(field(seedName))
		if name == "" || name == "NOMBRE" {
			continue
		}

		category := models.Category(strings.ToUpper(field(seedCategory)))
		if !category.Valid() {
			category = models.CategoryMedico
		}
		specialty := field(seedSpecialty)
		if specialty == "" {
			specialty = defaultSpecialty
		}

		c := models.Contact{
			ID:                 fmt.Sprintf("doc-%d-%s", row, whitespace.ReplaceAllString(name, "")),
			Category:           category,
			Executive:          field(seedExecutive),
			Name:               name,
			Specialty:          specialty,
			SubSpecialty:       field(seedSubSpecialty),
			Address:            field(seedAddress),
			Hospital:           field(seedHospital),
			OfficeNumber:       field(seedOffice),
			Floor:              field(seedFloor),
			Phone:              field(seedPhone),
			Email:              field(seedEmail),
			Cedula:             field(seedCedula),
			BirthDate:          field(seedBirthDate),
			IsInsuranceDoctor:  field(seedInsurance) != "",
			Classification:     seedClassification(field(seedCategory)),
			SocialStyle:        models.SocialStyle(strings.ToUpper(field(seedSocialStyle))),
			AttitudinalSegment: models.AttitudinalSegment(strings.ToUpper(field(seedSegment))),
			ImportantNotes:     field(seedNotes),
			Schedule:           models.InactiveSchedule(),
			Visits:             []models.Visit{},
		}
		c.Normalize()
		contacts = append(contacts, c)
	}
	return contacts, nil
}

// The seed table carries the VIP mark in its category column.
func seedClassification(category string) models.Classification {
	if strings.Contains(strings.ToUpper(category), "VIP") {
		return models.ClassificationA
	}
	return models.ClassificationC
}
