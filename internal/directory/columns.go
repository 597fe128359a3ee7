// Package directory reads and writes the contact directory in its spreadsheet
// forms: the built-in seed, CSV and XLSX imports, and CSV/XLSX exports.
package directory

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rc-medicall/backend/internal/storage/models"
)

// column is one directory field as it appears in a spreadsheet. The header is what
// exports write; aliases are the extra spellings imports accept.
type column struct {
	header  string
	aliases []string
	get     func(c *models.Contact) string
	set     func(c *models.Contact, v string)
}

var columns = []column{
	{"ID", nil,
		func(c *models.Contact) string { return c.ID },
		func(c *models.Contact, v string) { c.ID = v }},
	{"EJECUTIVO", []string{"executive"},
		func(c *models.Contact) string { return c.Executive },
		func(c *models.Contact, v string) { c.Executive = v }},
	{"NOMBRE", []string{"name"},
		func(c *models.Contact) string { return c.Name },
		func(c *models.Contact, v string) { c.Name = v }},
	{"ESPECIALIDAD", []string{"specialty"},
		func(c *models.Contact) string { return c.Specialty },
		func(c *models.Contact, v string) { c.Specialty = v }},
	{"SUB ESPECIALIDAD", []string{"subespecialidad", "subSpecialty"},
		func(c *models.Contact) string { return c.SubSpecialty },
		func(c *models.Contact, v string) { c.SubSpecialty = v }},
	{"DIRECCION", []string{"address"},
		func(c *models.Contact) string { return c.Address },
		func(c *models.Contact, v string) { c.Address = v }},
	{"HOSPITAL", nil,
		func(c *models.Contact) string { return c.Hospital },
		func(c *models.Contact, v string) { c.Hospital = v }},
	{"CONSULTORIO", []string{"officeNumber"},
		func(c *models.Contact) string { return c.OfficeNumber },
		func(c *models.Contact, v string) { c.OfficeNumber = v }},
	{"PISO", []string{"floor"},
		func(c *models.Contact) string { return c.Floor },
		func(c *models.Contact, v string) { c.Floor = v }},
	{"TELEFONO", []string{"phone"},
		func(c *models.Contact) string { return c.Phone },
		func(c *models.Contact, v string) { c.Phone = v }},
	{"CORREO ELECTRONICO", []string{"correo", "email"},
		func(c *models.Contact) string { return c.Email },
		func(c *models.Contact, v string) { c.Email = v }},
	{"CEDULA PROFESIONAL", []string{"cedula"},
		func(c *models.Contact) string { return c.Cedula },
		func(c *models.Contact, v string) { c.Cedula = v }},
	{"FECHA DE NACIMIENTO", []string{"birthDate"},
		func(c *models.Contact) string { return c.BirthDate },
		func(c *models.Contact, v string) { c.BirthDate = v }},
	{"ASEGURADORA", []string{"isInsuranceDoctor"},
		func(c *models.Contact) string {
			if c.IsInsuranceDoctor {
				return "SI"
			}
			return ""
		},
		func(c *models.Contact, v string) { c.IsInsuranceDoctor = truthy(v) }},
	{"CATEGORIA", []string{"category"},
		func(c *models.Contact) string { return string(c.Category) },
		func(c *models.Contact, v string) { c.Category = models.Category(Fold(v)) }},
	{"CLASIFICACION", []string{"classification"},
		func(c *models.Contact) string { return string(c.Classification) },
		func(c *models.Contact, v string) { c.Classification = classify(v) }},
	{"ESTILO SOCIAL", []string{"socialStyle"},
		func(c *models.Contact) string { return string(c.SocialStyle) },
		func(c *models.Contact, v string) { c.SocialStyle = models.SocialStyle(strings.ToUpper(v)) }},
	{"SEGMENTO ACTITUDINAL", []string{"attitudinalSegment"},
		func(c *models.Contact) string { return string(c.AttitudinalSegment) },
		func(c *models.Contact, v string) { c.AttitudinalSegment = models.AttitudinalSegment(strings.ToUpper(v)) }},
	{"OBSERVACIONES", []string{"notas", "importantNotes"},
		func(c *models.Contact) string { return c.ImportantNotes },
		func(c *models.Contact, v string) { c.ImportantNotes = v }},
}

// headers returns the export header row.
func headers() []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = col.header
	}
	return out
}

// columnIndex maps every accepted header spelling, folded, to its column.
var columnIndex = func() map[string]*column {
	idx := make(map[string]*column)
	for i := range columns {
		col := &columns[i]
		idx[foldKey(col.header)] = col
		for _, a := range col.aliases {
			idx[foldKey(a)] = col
		}
	}
	return idx
}()

// foldKey reduces a header to upper-case ASCII letters and digits, so "Correo
// Electrónico", "CORREO ELECTRONICO" and "correoElectronico" all match.
func foldKey(s string) string {
	s = Fold(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fold strips diacritics and upper-cases s, for accent-insensitive comparisons.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

func truthy(v string) bool {
	switch Fold(v) {
	case "", "NO", "FALSE", "0", "N":
		return false
	}
	return true
}

// classify reads a classification cell. "VIP" anywhere in it means tier A; an
// unknown value falls back to C.
func classify(v string) models.Classification {
	up := Fold(v)
	if strings.Contains(up, "VIP") {
		return models.ClassificationA
	}
	c := models.Classification(up)
	if c == "" || !c.Valid() {
		return models.ClassificationC
	}
	return c
}
