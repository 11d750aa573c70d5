package repository

import "strconv"

// formatInt renders a positional SQL argument index.
func formatInt(n int) string {
	return strconv.Itoa(n)
}
