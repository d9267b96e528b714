package pdf

import (
	"strconv"
	"strings"
)

// pageTextFromContent turns a raw PDF content stream into readable text.
// Text is pulled from the show operators (Tj, TJ, ', ") where possible;
// otherwise any lines that look like prose are kept.
func pageTextFromContent(content string) string {
	if content == "" {
		return ""
	}

	texts := textsFromShowOperators(content)
	if len(texts) == 0 {
		return readableLines(content)
	}

	return cleanupText(strings.Join(texts, " "))
}

// textsFromShowOperators collects the string operands of text show
// operations from a content stream.
func textsFromShowOperators(content string) []string {
	var texts []string

	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.Contains(line, " Tj") || strings.Contains(line, " TJ") ||
			strings.Contains(line, "' ") || strings.Contains(line, "\" ") {
			for _, text := range parenOperands(line) {
				if text != "" {
					texts = append(texts, text)
				}
			}
		}
	}

	return texts
}

// parenOperands extracts the unescaped (...) string operands from one
// content stream line.
func parenOperands(line string) []string {
	var texts []string
	inText := false
	start := -1

	for i, char := range line {
		if char == '(' && (i == 0 || line[i-1] != '\\') {
			inText = true
			start = i + 1
		} else if char == ')' && inText && (i == 0 || line[i-1] != '\\') {
			if start != -1 && start < i {
				text := line[start:i]
				text = strings.ReplaceAll(text, "\\(", "(")
				text = strings.ReplaceAll(text, "\\)", ")")
				text = strings.ReplaceAll(text, "\\\\", "\\")
				text = strings.ReplaceAll(text, "\\n", "\n")
				text = strings.ReplaceAll(text, "\\r", "\r")
				text = strings.ReplaceAll(text, "\\t", "\t")

				if strings.TrimSpace(text) != "" {
					texts = append(texts, text)
				}
			}
			inText = false
			start = -1
		}
	}

	return texts
}

// readableLines keeps content stream lines that look like prose rather
// than operators or coordinate data.
func readableLines(content string) string {
	var kept []string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isOperatorLine(line) {
			continue
		}
		if alphaRatio(line) >= 0.3 {
			kept = append(kept, line)
		}
	}

	return strings.Join(kept, " ")
}

// pdfOperators are the content stream operators a line may end with
var pdfOperators = map[string]bool{
	"BT": true, "ET": true, "Tf": true, "Td": true, "TD": true, "Tm": true,
	"T*": true, "Tj": true, "TJ": true, "'": true, "\"": true,
	"q": true, "Q": true, "cm": true, "w": true, "gs": true,
	"m": true, "l": true, "c": true, "re": true, "S": true, "s": true,
	"f": true, "F": true, "f*": true, "B": true, "b": true, "n": true,
	"W": true, "W*": true, "BMC": true, "BDC": true, "EMC": true,
	"G": true, "g": true, "RG": true, "rg": true, "K": true, "k": true,
	"CS": true, "cs": true, "SC": true, "sc": true, "SCN": true, "scn": true,
}

func isOperatorLine(line string) bool {
	words := strings.Fields(line)
	if len(words) == 0 {
		return false
	}

	if pdfOperators[words[len(words)-1]] {
		return true
	}

	// Mostly-numeric lines are coordinate data
	nonNumeric := 0
	for _, word := range words {
		if _, err := strconv.ParseFloat(word, 64); err != nil {
			nonNumeric++
		}
	}
	return float64(nonNumeric)/float64(len(words)) < 0.3
}

func alphaRatio(line string) float64 {
	if line == "" {
		return 0
	}
	alpha := 0
	for _, char := range line {
		if (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') {
			alpha++
		}
	}
	return float64(alpha) / float64(len(line))
}

// octalReplacements maps octal escapes commonly seen in content streams
var octalReplacements = map[string]string{
	"\\037": "",
	"\\240": " ",
	"\\260": "°",
	"\\251": "©",
	"\\256": "®",
	"\\221": "'",
	"\\231": "'",
	"\\223": "“",
	"\\224": "”",
	"\\226": "–",
	"\\227": "—",
	"\\011": "\t",
	"\\012": "\n",
	"\\015": "\r",
}

// cleanupText normalises extracted text: resolves octal escapes, drops
// control characters and collapses whitespace.
func cleanupText(text string) string {
	text = strings.TrimSpace(text)

	for octal, replacement := range octalReplacements {
		text = strings.ReplaceAll(text, octal, replacement)
	}
	text = dropUnknownOctalEscapes(text)
	text = dropControlCharacters(text)

	for strings.Contains(text, "  ") {
		text = strings.ReplaceAll(text, "  ", " ")
	}

	text = strings.ReplaceAll(text, " .", ".")
	text = strings.ReplaceAll(text, " ,", ",")

	return text
}

func dropUnknownOctalEscapes(text string) string {
	var b strings.Builder
	i := 0
	for i < len(text) {
		if i+3 < len(text) && text[i] == '\\' &&
			text[i+1] >= '0' && text[i+1] <= '7' &&
			text[i+2] >= '0' && text[i+2] <= '7' &&
			text[i+3] >= '0' && text[i+3] <= '7' {
			i += 4
			continue
		}
		b.WriteByte(text[i])
		i++
	}
	return b.String()
}

func dropControlCharacters(text string) string {
	var b strings.Builder
	for _, char := range text {
		switch {
		case char == '\n' || char == '\r' || char == '\t':
			b.WriteRune(char)
		case char < 32:
			b.WriteRune(' ')
		default:
			b.WriteRune(char)
		}
	}
	return b.String()
}
