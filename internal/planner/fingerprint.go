package planner

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// FingerprintPrefix namespaces search results in shared cache stores.
const FingerprintPrefix = "route_search:"

// Fingerprint hashes the canonical form of req. The JSON encoder writes map
// keys in sorted order, so field order never affects the result. The
// default criterion is applied first.
func Fingerprint(req SearchRequest) string {
	canonical := map[string]any{
		"start_lat":   req.Origin.Lat,
		"start_lng":   req.Origin.Lng,
		"end_lat":     req.Destination.Lat,
		"end_lng":     req.Destination.Lng,
		"filter_type": string(req.Criterion.OrDefault()),
	}

	b, err := json.Marshal(canonical)
	if err != nil {
		// NaN and Inf are not valid JSON
		b = []byte(fmt.Sprintf("%v", canonical))
	}

	sum := sha256.Sum256(b)
	return FingerprintPrefix + hex.EncodeToString(sum[:])
}
