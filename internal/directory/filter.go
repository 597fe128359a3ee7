package directory

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/rc-medicall/backend/internal/calendar"
	"github.com/rc-medicall/backend/internal/storage/models"
)

// Filter selects the contacts shown in one directory tab.
type Filter struct {
	// Executive limits the list to one owner. Empty, TODOS and ALL mean everyone.
	Executive string
	// Category is the active tab; empty means MEDICO.
	Category models.Category
	// Search is matched against name and address, ignoring case and accents.
	Search string
}

// Match reports whether c belongs in the filtered list.
func (f Filter) Match(c *models.Contact) bool {
	category := models.Category(strings.ToUpper(string(f.Category)))
	if category == "" {
		category = models.CategoryMedico
	}
	if c.Category != category {
		return false
	}
	if !calendar.ExecutiveFilter(f.Executive).Match(c.Executive) {
		return false
	}
	if q := Fold(f.Search); q != "" {
		return strings.Contains(Fold(c.Name), q) || strings.Contains(Fold(c.Address), q)
	}
	return true
}

// Apply returns the matching contacts ordered by name. The input is not modified.
func (f Filter) Apply(contacts []models.Contact) []models.Contact {
	out := lo.Filter(contacts, func(c models.Contact, _ int) bool { return f.Match(&c) })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
