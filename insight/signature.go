package insight

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// insightSchemaVersion is folded into every signature input, so a change to
// the artifact shape invalidates all stored entries without a data migration.
const insightSchemaVersion = 4

const softSuffix = ":soft"

// Signature hashes an arbitrary nested structure (maps/arrays/scalars) into a
// stable hex digest. Inputs that are deep-equal after key sorting and array
// normalization hash identically regardless of property or element order.
func Signature(v any) string {
	sum := sha256.Sum256(canonicalJSON(v))
	return hex.EncodeToString(sum[:])
}

// HashText digests a plain string. Used to fold free text (journal summaries,
// rule output) into a signature input without embedding the text itself.
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// SoftSignature marks a signature as belonging to a soft placeholder.
func SoftSignature(sig string) string { return sig + softSuffix }

// BaseSignature strips the soft marker, if present.
func BaseSignature(sig string) string { return strings.TrimSuffix(sig, softSuffix) }

// IsSoftSignature reports whether sig carries the soft marker.
func IsSoftSignature(sig string) bool { return strings.HasSuffix(sig, softSuffix) }

// canonicalJSON serializes v deterministically. The value is first reduced to
// plain maps/slices/scalars via a JSON round trip, then arrays are sorted by
// the serialized form of their normalized elements. encoding/json already
// emits map keys in sorted order.
func canonicalJSON(v any) []byte {
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return []byte("null")
	}
	return b
}

func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	return normalizeTree(tree)
}

func normalizeTree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeTree(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeTree(val)
		}
		sort.SliceStable(out, func(i, j int) bool {
			bi, _ := json.Marshal(out[i])
			bj, _ := json.Marshal(out[j])
			return string(bi) < string(bj)
		})
		return out
	default:
		return v
	}
}
