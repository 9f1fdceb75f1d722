package journal

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/dgnsrekt/jsonrequest/internal/jsonrequest"
)

// record is a Report as written to disk. Oversized values are replaced by
// a prefix of their encoding plus its size and digest.
type record struct {
	jsonrequest.Report
	ValueTruncated bool   `json:"value_truncated,omitempty"`
	ValueSize      int    `json:"value_size,omitempty"`
	ValueSHA256    string `json:"value_sha256,omitempty"`
}

func truncateBytes(in []byte, maxBytes int) ([]byte, bool, int, string) {
	if maxBytes <= 0 || len(in) <= maxBytes {
		return in, false, len(in), ""
	}
	sum := sha256.Sum256(in)
	return in[:maxBytes], true, len(in), hex.EncodeToString(sum[:])
}

func newRecord(r jsonrequest.Report, maxValueBytes int) record {
	rec := record{Report: r}
	if r.Value == nil || maxValueBytes <= 0 {
		return rec
	}
	encoded, err := json.Marshal(r.Value)
	if err != nil {
		return rec
	}
	prefix, truncated, size, hash := truncateBytes(encoded, maxValueBytes)
	if !truncated {
		return rec
	}
	rec.Value = string(prefix)
	rec.ValueTruncated = true
	rec.ValueSize = size
	rec.ValueSHA256 = hash
	return rec
}
