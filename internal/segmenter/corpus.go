package segmenter

import (
	"errors"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/unicode/norm"

	"legalrag/internal/domain"
)

// ReadCorpus loads the statute text at path.
//
// A missing or blank file yields "" and an error matching domain.ErrMissingCorpus;
// callers treat that as an empty corpus. Files that are not valid UTF-8 are
// decoded as Windows-1252, the usual encoding of exported legal texts.
func ReadCorpus(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", domain.E(domain.KindMissingCorpus, "read corpus", path, err)
		}
		return "", err
	}
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		data = decoded
	}
	text := norm.NFC.String(strings.TrimPrefix(string(data), "\ufeff"))
	if strings.TrimSpace(text) == "" {
		return "", domain.E(domain.KindMissingCorpus, "read corpus", path+" is empty", nil)
	}
	return text, nil
}
