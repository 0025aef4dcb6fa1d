package page

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Product URL shapes seen across storefront domains. Both encode the same
// shop/item pair.
var (
	productPathPattern = regexp.MustCompile(`/product/(\d+)/(\d+)`)
	productSlugPattern = regexp.MustCompile(`-i\.(\d+)\.(\d+)`)
)

// Identity derives the canonical token for "the current logical page".
// A structured product ID in the path wins; otherwise the URL minus its
// fragment is hashed into a bounded token. Fragment-only differences (in-page
// pagination markers) never change the identity.
func Identity(rawURL string) string {
	if m := productPathPattern.FindStringSubmatch(rawURL); m != nil {
		return "product:" + m[1] + ":" + m[2]
	}
	if m := productSlugPattern.FindStringSubmatch(rawURL); m != nil {
		return "product:" + m[1] + ":" + m[2]
	}

	stripped := rawURL
	if i := strings.Index(stripped, "#"); i >= 0 {
		stripped = stripped[:i]
	}

	sum := sha256.Sum256([]byte(stripped))
	return "url:" + hex.EncodeToString(sum[:8])
}
