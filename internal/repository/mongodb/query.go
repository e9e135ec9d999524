package mongodb

import "strings"

// sortOrder maps an asc/desc query parameter onto a mongo sort direction,
// falling back to def when the parameter is absent or unrecognised.
func sortOrder(order string, def int) int {
	switch strings.ToLower(order) {
	case "asc":
		return 1
	case "desc":
		return -1
	}
	return def
}
