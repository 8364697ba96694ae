// Package batch turns the operator's pasted text into a validated list of
// top-up entries.
package batch

import (
	"strings"

	"github.com/xkilldash9x/recharge-cli/api/schemas"
)

// Normalizer canonicalizes a raw phone number or returns a
// *schemas.ValidationError.
type Normalizer interface {
	Normalize(raw string) (string, error)
}

// Parse splits text into entries, one per line, each line holding a phone
// number and a top-up code separated by a single tab. The whole batch is
// rejected on the first malformed line or invalid number; no partial result
// is returned. Codes have all interior whitespace removed.
func Parse(text string, n Normalizer) ([]schemas.TopUpEntry, error) {
	lines := strings.Split(text, "\n")
	// Pasting from a spreadsheet leaves one trailing newline.
	if len(lines) > 1 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	entries := make([]schemas.TopUpEntry, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, &schemas.FormatError{Line: i + 1, Fields: len(fields)}
		}

		number, err := n.Normalize(fields[0])
		if err != nil {
			return nil, err
		}
		entries = append(entries, schemas.TopUpEntry{
			Phone: number,
			Code:  strings.Join(strings.Fields(fields[1]), ""),
		})
	}
	return entries, nil
}
