package strategy

import (
	"strconv"
	"strings"
)

// normalizeVersion strips range prefixes (^ ~ > >= < <= =), a leading
// "v", and any pre-release or build suffix, leaving dotted segments.
func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimLeft(v, "^~<>= ")
	v = strings.TrimPrefix(v, "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	return v
}

// compareVersions orders two version strings with numeric-aware lexical
// ordering after normalization. Returns -1, 0, or 1. Used by the
// manifest merge's "newer wins" rule.
func compareVersions(a, b string) int {
	as := strings.Split(normalizeVersion(a), ".")
	bs := strings.Split(normalizeVersion(b), ".")

	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aNum := atoi(as[i])
		bn, bNum := atoi(bs[i])
		switch {
		case aNum && bNum:
			if an != bn {
				return sign(an - bn)
			}
		case aNum != bNum:
			// numeric segments order before non-numeric ones
			if aNum {
				return -1
			}
			return 1
		default:
			if c := strings.Compare(as[i], bs[i]); c != 0 {
				return c
			}
		}
	}
	return sign(len(as) - len(bs))
}

func atoi(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
