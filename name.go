package bootfat

import "strings"

// encodeName converts one path component into the fixed 11 byte 8.3 name
// field: up to 8 bytes base name, up to 3 bytes extension, both space padded
// and ASCII uppercased. Overlong parts are truncated silently, there is no
// collision detection. Comparison against stored names encodes the
// candidate the same way and compares byte for byte.
func encodeName(component string) [11]byte {
	base := component
	ext := ""

	if i := strings.LastIndexByte(component, '.'); i >= 0 {
		base = component[:i]
		ext = component[i+1:]
	}

	if len(base) > 8 {
		base = base[:8]
	}
	if len(ext) > 3 {
		ext = ext[:3]
	}

	var name [11]byte
	for i := range name {
		name[i] = ' '
	}
	copyUpper(name[:8], base)
	copyUpper(name[8:], ext)

	return name
}

func copyUpper(dst []byte, src string) {
	for i := 0; i < len(src) && i < len(dst); i++ {
		c := src[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		dst[i] = c
	}
}

// formatName reconstructs a display name from an 11 byte 8.3 name field.
// Used for directory listings and Stat, not for comparisons.
func formatName(raw [11]byte) string {
	base := strings.TrimRight(string(raw[:8]), " ")
	ext := strings.TrimRight(string(raw[8:]), " ")

	if ext == "" {
		return base
	}

	return base + "." + ext
}
