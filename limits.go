package keyset

const (
	// NoLimit disables LIMIT on a plan.
	NoLimit      = -1
	MaxLimit     = 100
	DefaultLimit = 10
)

// IsNormalizedLimitMax clamps limit into (0, maxLimit] and reports whether
// it was already there. Non-positive limits become DefaultLimit.
func IsNormalizedLimitMax(limit int, maxLimit int) (int, bool) {
	if limit <= 0 {
		return DefaultLimit, false
	} else if limit > maxLimit {
		return maxLimit, false
	}

	return limit, true
}

// NormalizeLimitMax is IsNormalizedLimitMax without the report.
func NormalizeLimitMax(limit int, maxLimit int) int {
	ret, _ := IsNormalizedLimitMax(limit, maxLimit)
	return ret
}

// NormalizeLimit clamps a page size requested by a client.
func NormalizeLimit(limit int) int {
	return NormalizeLimitMax(limit, MaxLimit)
}
