package services

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/attachment"
)

const maxFileNameLength = 120

// sanitizeFileName produces a storage-safe object name: accents are
// transliterated to their base letters, anything outside [A-Za-z0-9._-]
// becomes a dash, and runs of dashes collapse. Cosmetic only, the stored
// bytes and mime type are untouched.
func sanitizeFileName(name string) string {
	decomposed := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	clean, _, err := transform.String(decomposed, name)
	if err != nil {
		clean = name
	}

	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	out = strings.Trim(out, "-.")
	if out == "" {
		out = "file"
	}
	if len(out) > maxFileNameLength {
		out = out[len(out)-maxFileNameLength:]
	}
	return out
}

// storagePath yields the deterministic object key for an upload:
// {clinic}/{conversation}/{category}/{unix_ts}-{sanitized_name}.
func storagePath(clinicID, conversationID uuid.UUID, mimeType, fileName string, now time.Time) string {
	return fmt.Sprintf(
		"%s/%s/%s/%d-%s",
		clinicID.String(),
		conversationID.String(),
		attachment.CategoryOf(mimeType),
		now.Unix(),
		sanitizeFileName(fileName),
	)
}
