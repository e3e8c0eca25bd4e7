package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"scan.jpg", "scan.jpg"},
		{"radiografia-panorâmica.png", "radiografia-panoramica.png"},
		{"exame físico (julho).pdf", "exame-fisico-julho-.pdf"},
		{"relatório    final.docx", "relatorio-final.docx"},
		{"çüéà.ogg", "cuea.ogg"},
		{"---weird---name---.txt", "weird-name-.txt"},
		{"???", "file"},
		{"", "file"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, sanitizeFileName(tc.in), "input %q", tc.in)
	}
}

func TestSanitizeFileName_BoundsLength(t *testing.T) {
	t.Parallel()

	long := ""
	for i := 0; i < 40; i++ {
		long += "segment"
	}
	long += ".pdf"

	out := sanitizeFileName(long)
	assert.LessOrEqual(t, len(out), maxFileNameLength)
	assert.Contains(t, out, ".pdf", "extension survives truncation")
}

func TestStoragePath(t *testing.T) {
	t.Parallel()

	clinicID := uuid.New()
	conversationID := uuid.New()
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)

	got := storagePath(clinicID, conversationID, "audio/ogg", "nota de voz.ogg", now)
	want := fmt.Sprintf("%s/%s/audio/%d-nota-de-voz.ogg", clinicID, conversationID, now.Unix())
	assert.Equal(t, want, got)

	// Same inputs, same path.
	assert.Equal(t, got, storagePath(clinicID, conversationID, "audio/ogg", "nota de voz.ogg", now))
}
