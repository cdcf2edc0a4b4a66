package policy

import "strings"

// Backend menu slugs hidden from household users.
var hiddenMenus = map[string]bool{
	"dashboard":  true,
	"posts":      true,
	"media":      true,
	"pages":      true,
	"comments":   true,
	"appearance": true,
	"plugins":    true,
	"users":      true,
	"tools":      true,
	"settings":   true,
}

// DefaultMenus is the full backend menu.
var DefaultMenus = []string{
	"dashboard", "posts", "media", "pages", "comments", "recipes",
	"my-networks", "appearance", "plugins", "users", "profile", "tools", "settings",
}

// allowedPathPrefixes are the backend screens household users may open.
var allowedPathPrefixes = []string{
	"/admin/profile",
	"/admin/my-networks",
	"/admin/recipes",
}

// RecipeListPath is where household users are sent from other screens.
const RecipeListPath = "/admin/recipes"

// restricted reports whether the backend is trimmed for s. Administrators
// and users without a household role see everything.
func restricted(s Subject) bool {
	return !s.IsAdmin && s.HasHouseholdRole()
}

// VisibleMenus filters menus down to what s may see.
func VisibleMenus(s Subject, menus []string) []string {
	if !restricted(s) {
		return menus
	}
	out := make([]string, 0, len(menus))
	for _, m := range menus {
		if !hiddenMenus[m] {
			out = append(out, m)
		}
	}
	return out
}

// AllowBackendPath reports whether s may open path. When it returns false,
// redirect is where to send them.
func AllowBackendPath(s Subject, path string) (ok bool, redirect string) {
	if !restricted(s) {
		return true, ""
	}
	for _, p := range allowedPathPrefixes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true, ""
		}
	}
	return false, RecipeListPath
}
