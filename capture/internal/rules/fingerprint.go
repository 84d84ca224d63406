package rules

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint hashes the content of every rule script, base and mode-specific
// alike. The session cache uses it as the version key in development so a
// script edit hot-swaps the browser session without a process restart;
// production pins a constant instead.
func Fingerprint() string {
	h := sha256.New()
	for _, r := range append(Base(), OutcomeFilter(), EventCTA()) {
		h.Write([]byte(r.Name))
		for _, s := range r.scripts {
			h.Write([]byte(s))
		}
	}
	return "rules-" + hex.EncodeToString(h.Sum(nil))[:16]
}
