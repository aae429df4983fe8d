package backend

import "regexp"

// DeclaresEntryPoint reports whether WGSL source declares an @compute
// function named entryPoint. It is a textual check, not a parse.
func DeclaresEntryPoint(source, entryPoint string) bool {
	if entryPoint == "" {
		return false
	}
	re, err := regexp.Compile(`@compute[^{;]*\bfn\s+` + regexp.QuoteMeta(entryPoint) + `\s*\(`)
	if err != nil {
		return false
	}
	return re.MatchString(source)
}
