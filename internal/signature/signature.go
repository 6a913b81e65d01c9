// Package signature implements the HitPay webhook HMAC scheme: every field is
// rendered as key+value, the pieces are ordered by key and concatenated, and
// the result is signed with HMAC-SHA256 keyed by the merchant salt.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// Field is the posted field carrying the signature. It never takes part in
// the signed source.
const Field = "hmac"

// Sign computes the lowercase hex signature over fields.
func Sign(secret string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == Field {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(fields[k])
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether claimed is the signature of fields under secret.
func Verify(secret string, fields map[string]string, claimed string) bool {
	if secret == "" || claimed == "" {
		return false
	}

	got, err := hex.DecodeString(strings.ToLower(claimed))
	if err != nil || len(got) != sha256.Size {
		return false
	}

	want, _ := hex.DecodeString(Sign(secret, fields))
	return hmac.Equal(got, want)
}
