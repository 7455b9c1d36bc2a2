package utils

// UniqueStringSlice removes duplicate strings, preserving order
func UniqueStringSlice(slice []string) []string {
	uniqueSlice := make([]string, 0, len(slice))
	uniqueMap := make(map[string]struct{})
	for _, str := range slice {
		if _, ok := uniqueMap[str]; !ok {
			uniqueMap[str] = struct{}{}
			uniqueSlice = append(uniqueSlice, str)
		}
	}
	return uniqueSlice
}

// StringSlice2Map converts a string slice to a membership map
func StringSlice2Map(slice []string) map[string]struct{} {
	uniqueMap := make(map[string]struct{})
	for _, str := range slice {
		uniqueMap[str] = struct{}{}
	}
	return uniqueMap
}

// TruncateString shortens s to at most max runes, appending "..." when cut
func TruncateString(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
