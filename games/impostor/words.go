package impostor

import (
	"bufio"
	"bytes"
	_ "embed"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"
)

//go:embed footballers.txt
var builtinWords []byte

// used when a configured list is missing or too short to play with
var fallbackWords = []string{"Nicolò Barella", "Kylian Mbappé", "Erling Haaland"}

const minWords = 2

// WordList is the read-only pool secret words are drawn from.
type WordList struct {
	Words  []string
	Source string // "builtin", "fallback", or the file path
	Padded bool   // fallback entries were appended to a short file
}

// ParseWords reads one entry per line, skipping blank lines.
func ParseWords(r io.Reader) ([]string, error) {
	var words []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			words = append(words, line)
		}
	}

	return words, scanner.Err()
}

// LoadWords reads the list at path, or the embedded list when path is empty.
// A missing file yields the fallback list rather than an error.
func LoadWords(path string) (WordList, error) {
	if path == "" {
		words, err := ParseWords(bytes.NewReader(builtinWords))
		if err != nil {
			return WordList{}, err
		}

		return padWords(WordList{Words: words, Source: "builtin"}), nil
	}

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return WordList{Words: append([]string(nil), fallbackWords...), Source: "fallback"}, nil
	case err != nil:
		return WordList{}, err
	}
	defer f.Close()

	words, err := ParseWords(f)
	if err != nil {
		return WordList{}, err
	}

	return padWords(WordList{Words: words, Source: path}), nil
}

func padWords(list WordList) WordList {
	if len(list.Words) >= minWords {
		return list
	}

	seen := make(map[string]bool, len(list.Words))
	for _, w := range list.Words {
		seen[w] = true
	}

	for _, w := range fallbackWords {
		if !seen[w] {
			list.Words = append(list.Words, w)
		}
	}
	list.Padded = true

	return list
}
