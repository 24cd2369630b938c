package jsonmark

import "math/rand"

// suffixPool is tried, in shuffled order, appended to a base key's
// lowercase prefix when disguising the watermark field.
var suffixPool = []string{"Hash", "Id", "Code", "Key", "Sig", "Ref"}

// fallbackKeyPool is used once every existing key has been exhausted as a
// camouflage base.
var fallbackKeyPool = []string{
	"checksum", "contentHash", "packageId", "creatorId", "assetId",
	"buildVersion", "versionTag", "releaseId", "fileHash", "dataHash",
}

// defaultWatermarkKey is the last-resort literal key when every candidate
// collides.
const defaultWatermarkKey = "_watermark"

// disguisedKey picks a camouflaged field name for the watermark, per
// spec.md §4.9. Returns the chosen key and, if it was derived from an
// existing top-level key, that base key (so the caller can insert right
// after it); baseKey is "" when none applies.
//
// This function consults process-wide randomness (math/rand's global
// source) and is deliberately non-deterministic across calls — callers
// must never assert on the chosen key name, only round-trip through the
// scanner.
func disguisedKey(existingKeys []string, taken map[string]bool) (key, baseKey string) {
	order := rand.Perm(len(existingKeys))
	for _, idx := range order {
		base := existingKeys[idx]
		prefix := lowercasePrefix(base)
		if len(prefix) < 3 {
			prefix = base
		}
		for _, si := range rand.Perm(len(suffixPool)) {
			candidate := prefix + suffixPool[si]
			if !taken[candidate] {
				return candidate, base
			}
		}
	}

	offset := 0
	if len(fallbackKeyPool) > 0 {
		offset = rand.Intn(len(fallbackKeyPool))
	}
	for i := 0; i < len(fallbackKeyPool); i++ {
		candidate := fallbackKeyPool[(offset+i)%len(fallbackKeyPool)]
		if !taken[candidate] {
			return candidate, ""
		}
	}

	return defaultWatermarkKey, ""
}

// lowercasePrefix returns the leading run of ASCII lowercase letters in s.
func lowercasePrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= 'a' && s[i] <= 'z' {
		i++
	}
	return s[:i]
}

// insertPosition computes where the disguised key should land: right
// after its base key if one was found, otherwise a position chosen to
// look plausible within a small object.
func insertPosition(n int, baseKeyIndex int) int {
	if baseKeyIndex >= 0 {
		return baseKeyIndex + 1
	}
	if n <= 2 {
		if n == 0 {
			return 0
		}
		return n - 1
	}
	return 1 + rand.Intn(n-1)
}

func takenSet(keys []string) map[string]bool {
	taken := make(map[string]bool, len(keys))
	for _, k := range keys {
		taken[k] = true
	}
	return taken
}
