package services

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nonAlphanumericRegex is a compiled regex for efficiency.
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]+`)

// sanitizeFileName converts a section title into a safe GCS object name component.
// Accents are folded first so "Café Días" becomes "cafe_dias" rather than "caf_d_as".
func sanitizeFileName(title string) string {
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, title)
	if err != nil {
		folded = title
	}

	lower := strings.ToLower(folded)
	sanitized := nonAlphanumericRegex.ReplaceAllString(lower, "_")
	sanitized = strings.Trim(sanitized, "_")

	const maxLength = 100
	if len(sanitized) > maxLength {
		sanitized = sanitized[:maxLength]
		// Trim again in case we cut on an underscore
		sanitized = strings.Trim(sanitized, "_")
	}
	return sanitized
}

// emailLocalPart is the part of an address before the @.
func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

func calculateHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
