package generation

import "strings"

// LocatorKind discriminates how a video artifact is referenced in a terminal
// generation response.
type LocatorKind string

const (
	LocatorInline LocatorKind = "b64"
	LocatorFileID LocatorKind = "file_id"
	LocatorURL    LocatorKind = "url"
)

// Locator points at the produced video artifact.
type Locator struct {
	Kind  LocatorKind
	Value string
}

// containerFields are the nested response fields worth descending into, in
// search order.
var containerFields = []string{"video", "videos", "file", "output", "content", "data", "items", "result"}

// FindLocator walks a decoded response depth-first looking for a video
// artifact. At each mapping node the direct fields win over containers, in
// priority order: inline base64 payload, then a file handle ("file_id", or
// "id" with a "file-" prefix), then a direct http URL. Containers are then
// visited in fixed order, and sequences element by element. The first match
// wins.
func FindLocator(node any) (Locator, bool) {
	switch v := node.(type) {
	case map[string]any:
		if s, ok := v["b64_json"].(string); ok {
			return Locator{Kind: LocatorInline, Value: s}, true
		}
		if s, ok := v["file_id"].(string); ok {
			return Locator{Kind: LocatorFileID, Value: s}, true
		}
		if s, ok := v["id"].(string); ok && strings.HasPrefix(s, "file-") {
			return Locator{Kind: LocatorFileID, Value: s}, true
		}
		if s, ok := v["url"].(string); ok && strings.HasPrefix(s, "http") {
			return Locator{Kind: LocatorURL, Value: s}, true
		}
		for _, field := range containerFields {
			if child, ok := v[field]; ok {
				if loc, found := FindLocator(child); found {
					return loc, true
				}
			}
		}
	case []any:
		for _, item := range v {
			if loc, found := FindLocator(item); found {
				return loc, true
			}
		}
	}
	return Locator{}, false
}
