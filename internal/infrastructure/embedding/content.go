package embedding

import "strings"

// ContentText joins the non-null fields of a normalized event into the
// fixed-format string embedded as its semantic fingerprint. Absent fields
// are dropped rather than rendered empty; an all-absent input yields "".
func ContentText(title, artist, album *string) string {
	var parts []string
	if title != nil && *title != "" {
		parts = append(parts, "Title: "+*title)
	}
	if artist != nil && *artist != "" {
		parts = append(parts, "Artist: "+*artist)
	}
	if album != nil && *album != "" {
		parts = append(parts, "Album: "+*album)
	}
	return strings.Join(parts, " | ")
}
