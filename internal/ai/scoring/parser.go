package scoring

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Block is one scoring block of an oracle response.
type Block struct {
	// Position is the zero-based position among blocks whose marker carries a
	// number. It is -1 for a marker followed by prose, such as "Score: pending".
	Position int
	// Number is the enumeration the block starts with, zero when absent.
	Number         int
	Score          int
	Recommendation string
	Links          []string
	Text           string
	// Err is set when the block carries a score marker with an unusable value.
	Err error
}

func (b Block) Failed() bool { return b.Err != nil }

var (
	blankLines     = regexp.MustCompile(`\n[ \t]*\n`)
	scoreMarker    = regexp.MustCompile(`(?i)\bscore\s*:`)
	recommendation = regexp.MustCompile(`(?i)\brecommendation\s*:\s*(.*)$`)
	enumeration    = regexp.MustCompile(`^\s*(?:#+\s*)?(\d+)[.)]\s`)
	scoreValue     = regexp.MustCompile(`^(\d+)(?:/(\d+))?[.,;]?$`)
	numberLike     = regexp.MustCompile(`^[-+]?\d`)
	slashSpacing   = regexp.MustCompile(`\s*/\s*`)
	linkPattern    = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)
	emphasis       = strings.NewReplacer("**", "", "__", "", "`", "")
)

// Parse splits an oracle response into scoring blocks. Blocks without a
// score marker are not scoring content and are skipped.
func Parse(text string) []Block {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []Block
	slot := 0
	for _, chunk := range blankLines.Split(text, -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		block, ok := parseBlock(chunk)
		if !ok {
			continue
		}
		if block.Position == 0 {
			block.Position = slot
			slot++
		}
		blocks = append(blocks, block)
	}

	return blocks
}

func parseBlock(chunk string) (Block, bool) {
	block := Block{Text: chunk}
	found := false

	for i, line := range strings.Split(chunk, "\n") {
		plain := emphasis.Replace(line)

		if i == 0 {
			if m := enumeration.FindStringSubmatch(plain); m != nil {
				block.Number, _ = strconv.Atoi(m[1])
			}
		}

		if !found {
			if loc := scoreMarker.FindStringIndex(plain); loc != nil {
				found = true
				rest := plain[loc[1]:]
				block.Score, block.Err = parseScore(rest)
				if !numberLike.MatchString(strings.TrimSpace(rest)) {
					block.Position = -1
				}
			}
		}

		if block.Recommendation == "" {
			if m := recommendation.FindStringSubmatch(plain); m != nil {
				block.Recommendation = strings.TrimSpace(m[1])
			}
		}

		for _, link := range linkPattern.FindAllString(line, -1) {
			block.Links = append(block.Links, strings.TrimRight(link, ".,;:*_"))
		}
	}

	return block, found
}

func parseScore(rest string) (int, error) {
	fields := strings.Fields(slashSpacing.ReplaceAllString(rest, "/"))
	if len(fields) == 0 {
		return 0, fmt.Errorf("score marker without a value")
	}

	m := scoreValue.FindStringSubmatch(fields[0])
	if m == nil {
		return 0, fmt.Errorf("score %q is not an integer", fields[0])
	}
	if m[2] != "" && m[2] != "100" {
		return 0, fmt.Errorf("score %q uses an unsupported scale", fields[0])
	}

	score, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("score %q: %w", fields[0], err)
	}
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("score %d is out of range", score)
	}

	return score, nil
}
