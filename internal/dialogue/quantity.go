package dialogue

import (
	"regexp"
	"strconv"
	"strings"
)

// maxQuantityTokens bounds how far into a segment a quantity is looked for.
const maxQuantityTokens = 4

// numberWords is the spelled-out quantity vocabulary, in scan order.
var numberWords = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight",
	"nine", "ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen",
	"sixteen", "seventeen", "eighteen", "nineteen", "twenty",
}

var (
	segmentSplit  = regexp.MustCompile(`(?i)\band\b|,|&`)
	digitQuantity = regexp.MustCompile(`\b(\d{1,2})\b`)
	wordPatterns  = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(numberWords))
		for i, w := range numberWords {
			out[i] = regexp.MustCompile(`\b` + w + `\b`)
		}
		return out
	}()
)

// ParsedItem is one delimiter-separated segment of an order phrase.
type ParsedItem struct {
	Quantity    int
	HasQuantity bool
	Text        string
}

// TextToNumber converts a literal integer or a number word (zero..twenty)
// to its value. Surrounding periods and commas are ignored.
func TextToNumber(tok string) (int, bool) {
	tok = strings.Trim(strings.ToLower(strings.TrimSpace(tok)), ".,")
	if tok == "" {
		return 0, false
	}
	if isDigits(tok) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	for i, w := range numberWords {
		if tok == w {
			return i, true
		}
	}
	return 0, false
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// ParseItemsWithQuantity splits text on "and", commas and "&" and extracts
// an optional quantity and item text from each segment. Tokens before the
// quantity are discarded; segments without item text are dropped.
func ParseItemsWithQuantity(text string) []ParsedItem {
	var out []ParsedItem
	for _, seg := range segmentSplit.Split(text, -1) {
		fields := strings.Fields(seg)
		if len(fields) == 0 {
			continue
		}

		item := ParsedItem{Text: strings.Join(fields, " ")}
		for i := 0; i < len(fields) && i < maxQuantityTokens; i++ {
			if n, ok := TextToNumber(fields[i]); ok {
				item.Quantity = n
				item.HasQuantity = true
				item.Text = strings.Join(fields[i+1:], " ")
				break
			}
		}
		if item.Text == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// ParseQuantity finds a quantity in a short reply. Number words are scanned
// first; a one or two digit integer, if present, takes precedence.
func ParseQuantity(text string) (int, bool) {
	text = strings.ToLower(text)
	n, found := 0, false
	for i, re := range wordPatterns {
		if re.MatchString(text) {
			n, found = i, true
			break
		}
	}
	if m := digitQuantity.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			n, found = v, true
		}
	}
	return n, found
}
