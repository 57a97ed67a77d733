package domain

import "strings"

// FormatLink renders the shareable report link for q under base. Query
// parameters are emitted in sorted key order, so equal descriptors always
// yield byte-identical links.
func FormatLink(base string, q QueryDescriptor) string {
	sep := "?"
	switch {
	case strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&"):
		sep = ""
	case strings.Contains(base, "?"):
		sep = "&"
	}
	return base + sep + q.Values().Encode()
}
