// Package fingerprint derives stable content identifiers for video locators.
// The identifier doubles as the record store primary key and the namespace
// for the pipeline's temporary files.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Locator maps a canonical locator string to its identifier. The mapping is
// deterministic across runs; two distinct locators collide only with
// cryptographic improbability.
func Locator(locator string) string {
	sum := sha256.Sum256([]byte(locator))
	return hex.EncodeToString(sum[:])
}
