package compare

import "strings"

// ObfuscateEmail masks an email-like string for safe display: the first
// character of the local part and the last six characters of the domain
// survive, everything else collapses to a literal ellipsis.
//
//	alpha@example.com -> a...@...le.com
//
// Values without an @ separator are returned unchanged.
func ObfuscateEmail(s string) string {
	local, domain, ok := strings.Cut(s, "@")
	if !ok || local == "" {
		return s
	}
	if len(domain) > 6 {
		domain = domain[len(domain)-6:]
	}
	return local[:1] + "...@..." + domain
}

// ObfuscateHash masks an opaque hex/hash-like string. The visible prefix
// and suffix shrink with the hash: long hashes keep three characters of
// each end, short ones keep one, and anything under eight characters
// collapses entirely.
//
//	1239fe0ab0afc39b -> 123...39b
//	190dae4e          -> 1...e
//	1234              -> ...
func ObfuscateHash(s string) string {
	switch {
	case len(s) >= 16:
		return s[:3] + "..." + s[len(s)-3:]
	case len(s) >= 8:
		return s[:1] + "..." + s[len(s)-1:]
	default:
		return "..."
	}
}

// obfuscateEach applies fn across a value list.
func obfuscateEach(values []string, fn func(string) string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fn(v)
	}
	return out
}
