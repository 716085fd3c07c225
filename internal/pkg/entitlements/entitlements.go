package entitlements

import "github.com/cartamenu/carta/app/models"

// Capabilities are the menu-publishing abilities a tier grants.
type Capabilities struct {
	PDFExport         bool
	CustomFonts       bool
	Images            bool
	MultipleLocations bool
}

// ForTier reads the capability flags off a tier.
func ForTier(t *models.Tier) Capabilities {
	if t == nil {
		return Capabilities{}
	}
	return Capabilities{
		PDFExport:         t.AllowsPDF,
		CustomFonts:       t.AllowsCustomFonts,
		Images:            t.AllowsImages,
		MultipleLocations: t.AllowsMultipleLocations,
	}
}

// CanCreateMenu reports whether a restaurant with the given menu count may
// create another menu under this tier. The -1 sentinel means unlimited.
func CanCreateMenu(t *models.Tier, currentMenus int) bool {
	if t == nil {
		return false
	}
	return t.HasUnlimitedMenus() || currentMenus < t.MaxMenus
}
