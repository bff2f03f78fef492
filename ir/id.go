package ir

import (
	"fmt"
	"strings"

	"github.com/minio/highwayhash"
)

// scheme is the fixed CanonicalId URI scheme, spec §3: "scheme://<project>/<kind>:<fragment>".
const scheme = "codegraph"

// hashKey is a fixed 32-byte key for the fallback fast-hash, matching the
// teacher's inspector/graph.Hash helper (highwayhash needs a stable key so
// the same bytes always hash to the same value across process runs).
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Minter mints CanonicalIds and relationship ids. It is pure and stateless
// (spec §4.1): the same (project, kind, fragment) always normalizes to the
// same id, independent of minter instance or process.
type Minter struct {
	project string
}

// NewMinter returns a Minter scoped to a project id (embedded in every
// CanonicalId per spec §4.1).
func NewMinter(projectID string) *Minter {
	return &Minter{project: projectID}
}

// Mint produces a CanonicalId for an element fragment of the given kind.
// Fragment construction (relative_path, qualified_name(...), schema.table,
// etc.) is the caller's responsibility per spec §3; Mint only normalizes and
// assembles the scheme URI.
func (m *Minter) Mint(kind ElementKind, fragment string) CanonicalId {
	normKind := normalizeKindPrefix(string(kind))
	normFragment := normalizeFragment(fragment)
	if normFragment == "" {
		normFragment = fallbackFragment(string(kind), fragment)
	}
	return CanonicalId(fmt.Sprintf("%s://%s/%s:%s", scheme, normalizeFragment(m.project), normKind, normFragment))
}

// MintRelationship produces the deterministic id of a concrete edge (spec §4.1):
// "<sourceId>:<TYPE_UPPER>:<targetId>".
func (m *Minter) MintRelationship(sourceID CanonicalId, kind RelationshipKind, targetID CanonicalId) string {
	return fmt.Sprintf("%s:%s:%s", sourceID, kind.Upper(), targetID)
}

// normalizeKindPrefix lowercases the kind, case-insensitive per spec §8.
func normalizeKindPrefix(kind string) string {
	return strings.ToLower(kind)
}

// normalizeFragment applies the path/name normalization rules of spec §3:
// separators to '/', path portion lowercased, restricted character set,
// everything else replaced with '_'.
func normalizeFragment(fragment string) string {
	if fragment == "" {
		return ""
	}
	s := strings.ReplaceAll(fragment, "\\", "/")
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == ':' || r == '/' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// fallbackFragment builds the 16-hex-digit hash fallback for empty inputs
// (spec §4.1), prefixed with the kind so two different kinds sharing an
// empty fragment never collide.
func fallbackFragment(kind, original string) string {
	sum, err := fastHash([]byte(kind + "\x00" + original))
	if err != nil {
		// highwayhash.New64 only fails on a malformed key, which is a
		// programmer error in hashKey above, never on caller input.
		panic(err)
	}
	return fmt.Sprintf("%s_%016x", normalizeKindPrefix(kind), sum)
}

// fastHash mirrors inspector/graph.Hash from the teacher: a 64-bit
// non-cryptographic HighwayHash, fast enough to run on every empty-fragment
// mint without becoming the bottleneck in a large-project analysis run.
func fastHash(data []byte) (uint64, error) {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		return 0, err
	}
	_, err = h.Write(data)
	return h.Sum64(), err
}
