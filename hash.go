package xtrack

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashIdentity normalizes a raw personal identifier (trim, lowercase) and
// returns its SHA-256 digest as lowercase hex. Empty input yields "" so that
// unknown identifiers never collapse into one matchable digest.
func HashIdentity(raw string) string {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// HashUserData returns a copy of u with em/ph digests derived from raw
// email/phone. Digests supplied by the caller are kept as given.
func HashUserData(u UserData) UserData {
	out := u.Clone()
	if out == nil {
		out = UserData{}
	}
	derive := func(raw, hashed string) {
		if out[hashed] != "" {
			return
		}
		if h := HashIdentity(out[raw]); h != "" {
			out[hashed] = h
		}
	}
	derive(FieldEmail, FieldHashedEmail)
	derive(FieldPhone, FieldHashedPhone)
	return out
}
