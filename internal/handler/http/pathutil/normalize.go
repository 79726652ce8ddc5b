package pathutil

import "strings"

// roots are the first path segments served by the API. Requests outside
// them share the "other" label, so scanners probing random URLs do not
// create new metric series.
var roots = map[string]bool{
	"stories":      true,
	"images":       true,
	"issues":       true,
	"frontpage":    true,
	"contributors": true,
	"auth":         true,
	"health":       true,
	"ready":        true,
	"live":         true,
	"metrics":      true,
}

// NormalizePath turns a request path into a metrics label: numeric
// segments become ":id", query and trailing slash are dropped.
//
//	NormalizePath("/stories/123/visit")   // "/stories/:id/visit"
//	NormalizePath("/frontpage/blocks/9")  // "/frontpage/blocks/:id"
//	NormalizePath("/wp-login.php")        // "other"
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i != -1 {
		path = path[:i]
	}
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return "/"
	}
	segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if !roots[segs[0]] {
		return "other"
	}
	for i, s := range segs {
		if isDigits(s) {
			segs[i] = ":id"
		}
	}
	return "/" + strings.Join(segs, "/")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
