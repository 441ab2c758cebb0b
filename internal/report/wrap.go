package report

import (
	"strings"
	"unicode/utf8"
)

// Measurer reports the printed width of text at a font size and weight, in
// the same unit as the page.
type Measurer interface {
	Width(text string, size float64, bold bool) float64
}

// Wrap breaks text into lines no wider than maxWidth in the regular weight.
// Breaks happen at spaces; a single word wider than the line is split
// between runes. Explicit newlines start a new line and blank lines are kept.
func Wrap(m Measurer, text string, size, maxWidth float64) []string {
	return wrap(m, text, size, false, maxWidth)
}

// WrapBold is Wrap measured in the bold weight.
func WrapBold(m Measurer, text string, size, maxWidth float64) []string {
	return wrap(m, text, size, true, maxWidth)
}

func wrap(m Measurer, text string, size float64, bold bool, maxWidth float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		current := ""
		for _, word := range words {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if m.Width(candidate, size, bold) <= maxWidth {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			if m.Width(word, size, bold) <= maxWidth {
				current = word
				continue
			}
			pieces := splitRunes(m, word, size, bold, maxWidth)
			lines = append(lines, pieces[:len(pieces)-1]...)
			current = pieces[len(pieces)-1]
		}
		lines = append(lines, current)
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// splitRunes cuts an unbreakable word into pieces that fit. Each piece holds
// at least one rune so the loop always advances.
func splitRunes(m Measurer, word string, size float64, bold bool, maxWidth float64) []string {
	var pieces []string
	for word != "" {
		end := 0
		for i := range word {
			if i == 0 {
				continue
			}
			if m.Width(word[:i], size, bold) > maxWidth {
				break
			}
			end = i
		}
		if m.Width(word, size, bold) <= maxWidth {
			end = len(word)
		}
		if end == 0 {
			_, end = utf8.DecodeRuneInString(word)
		}
		pieces = append(pieces, word[:end])
		word = word[end:]
	}
	return pieces
}
