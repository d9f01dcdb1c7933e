// Package policy implements the pure eviction and TTL decisions shared by
// both tiers: which keys to drop to bring count/byte budgets back under
// their limits, and whether a given entry has aged out under its tier's
// sliding TTL. It never touches a tier directly; the coordinator feeds it
// candidate state and applies the keys it returns, the way cache_service's
// evictLowestScore only ever computed a victim and left removal to its
// caller.
package policy

import "github.com/shaigeva/tiercache/internal/model"

// Limits bounds a single tier's resource budgets. A zero value for
// either field is itself a hard budget of zero ("evict everything along
// that axis"), matching the registered Options' own unchecked-zero
// semantics; a negative value means "unbounded along that axis" instead.
type Limits struct {
	MaxCount int
	MaxBytes int64
}

// Expired reports whether an entry accessed at lastAccessTS is stale at
// currentTS under ttlSeconds, applying the literal comparison
// unconditionally — a ttlSeconds of zero expires an entry the instant
// currentTS moves past lastAccessTS, matching the original's unchecked
// `timestamp - memory_timestamp > ttl_seconds`.
func Expired(lastAccessTS, currentTS, ttlSeconds float64) bool {
	return currentTS-lastAccessTS > ttlSeconds
}

// SelectVictims scans candidates and returns, in eviction order, the keys
// that must be dropped to bring count and bytes within limits. Ties on
// last_access_ts are broken by ascending key: the lexicographically
// smaller key is evicted first, so that among equally-stale entries the
// lexicographically greater key is the one retained.
//
// currentBytes is the tier's running byte total before any of the
// returned keys are removed; byteOf supplies each candidate's
// contribution so the scan can track the shrinking total without a
// second pass over the tier.
func SelectVictims(candidates []model.VictimCandidate, byteOf map[string]int64, currentCount int, currentBytes int64, limits Limits) []string {
	remaining := make([]model.VictimCandidate, len(candidates))
	copy(remaining, candidates)

	var victims []string
	count := currentCount
	bytes := currentBytes

	for overBudget(count, bytes, limits) && len(remaining) > 0 {
		victimIdx := pickOldest(remaining)
		victim := remaining[victimIdx]

		victims = append(victims, victim.Key)
		count--
		bytes -= byteOf[victim.Key]

		remaining[victimIdx] = remaining[len(remaining)-1]
		remaining = remaining[:len(remaining)-1]
	}

	return victims
}

func overBudget(count int, bytes int64, limits Limits) bool {
	if limits.MaxCount >= 0 && count > limits.MaxCount {
		return true
	}
	if limits.MaxBytes >= 0 && bytes > limits.MaxBytes {
		return true
	}
	return false
}

// pickOldest returns the index of the candidate with the smallest
// last_access_ts, breaking ties by the lexicographically smaller key.
func pickOldest(candidates []model.VictimCandidate) int {
	best := 0
	for i := 1; i < len(candidates); i++ {
		c := candidates[i]
		b := candidates[best]
		if c.LastAccessTS < b.LastAccessTS {
			best = i
			continue
		}
		if c.LastAccessTS == b.LastAccessTS && c.Key < b.Key {
			best = i
		}
	}
	return best
}
