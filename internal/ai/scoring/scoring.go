package scoring

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/ai"
	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/posting"
	"github.com/spigell/job-radar/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

// OracleCallError means the oracle could not be asked at all. It is fatal to a run.
type OracleCallError struct {
	Provider string
	Model    string
	Err      error
}

func (e *OracleCallError) Error() string {
	return fmt.Sprintf("scoring oracle %s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *OracleCallError) Unwrap() error { return e.Err }

// Evaluation is the parsed oracle answer for one batch of postings.
type Evaluation struct {
	Verdicts *ai.Verdicts
	// Blocks is the number of scoring blocks in the response.
	Blocks        int
	ParseFailures []Block
	// Unmatched holds valid blocks that could not be tied to a posting.
	Unmatched []Block
	Response  string
}

type Client struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

func New(generator ai.Generator, log *zap.Logger, maxLogLength int) *Client {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Client{
		generator: generator,
		logger:    logger.WithOracle(log, generator.Provider(), generator.Model()).Named("scoring"),
		maxLogLen: maxLogLength,
	}
}

// Evaluate asks the oracle once about all postings and turns the answer into verdicts.
func (c *Client) Evaluate(ctx context.Context, postings []*posting.Posting, criteria string) (*Evaluation, error) {
	if len(postings) == 0 {
		return &Evaluation{Verdicts: &ai.Verdicts{}}, nil
	}

	instruction := BuildInstruction(criteria)
	prompt := BuildPrompt(postings)

	c.logger.Debug("scoring request",
		zap.Int("postings", len(postings)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, instruction, prompt)
	if err != nil {
		return nil, &OracleCallError{Provider: c.generator.Provider(), Model: c.generator.Model(), Err: err}
	}

	c.logger.Debug("scoring response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)

	eval := Associate(Parse(raw), postings)
	eval.Response = raw

	for _, b := range eval.ParseFailures {
		c.logger.Warn("unparseable score", zap.Int("block", b.Position+1), zap.Error(b.Err),
			zap.String("text", utils.TruncateForLog(b.Text, c.maxLogLen)))
	}
	for _, b := range eval.Unmatched {
		c.logger.Warn("verdict not matched to a posting", zap.Int("block", b.Position+1),
			zap.String("text", utils.TruncateForLog(b.Text, c.maxLogLen)))
	}

	c.logger.Info("postings scored",
		zap.Int("postings", len(postings)),
		zap.Int("blocks", eval.Blocks),
		zap.Int("verdicts", eval.Verdicts.Len()),
		zap.Int("parse_failures", len(eval.ParseFailures)),
		zap.Int("unmatched", len(eval.Unmatched)),
	)

	return eval, nil
}

// BuildInstruction renders the rubric the oracle scores against.
func BuildInstruction(criteria string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Criteria:\n{{CRITERIA}}\n\nAnswer with one block per job containing Score: {0-100}/100."
	}

	criteria = strings.TrimSpace(criteria)
	if criteria == "" {
		criteria = "- No specific preferences; judge general quality of the posting."
	}
	return strings.ReplaceAll(template, "{{CRITERIA}}", criteria)
}

// BuildPrompt lists the postings as numbered entries separated by blank lines.
func BuildPrompt(postings []*posting.Posting) string {
	entries := make([]string, 0, len(postings))
	for i, p := range postings {
		entries = append(entries, fmt.Sprintf("%d. Title: %s\nCompany: %s\nLocation: %s\nDescription: %s\nLink: %s",
			i+1, p.Title, p.Company, p.Location, p.Description, p.Link))
	}
	return "Evaluate the following jobs.\n\n" + strings.Join(entries, "\n\n")
}

// Associate ties blocks to postings. A block naming a posting link wins,
// then an enumeration number, then the block position. Each posting takes
// at most one verdict; verdicts are returned in posting order.
func Associate(blocks []Block, postings []*posting.Posting) *Evaluation {
	eval := &Evaluation{Verdicts: &ai.Verdicts{}, Blocks: len(blocks)}

	byLink := make(map[string]int, len(postings))
	for i, p := range postings {
		byLink[posting.CanonicalLink(p.Link)] = i
	}

	bound := make([]*Block, len(postings))
	var pending []Block

	claim := func(i int, b Block) bool {
		if i < 0 || i >= len(postings) || bound[i] != nil {
			return false
		}
		bound[i] = &b
		return true
	}

	var valid []Block
	for _, b := range blocks {
		if b.Failed() {
			eval.ParseFailures = append(eval.ParseFailures, b)
			continue
		}
		valid = append(valid, b)
	}

	for _, b := range valid {
		if i, ok := linkTarget(b, byLink); ok && claim(i, b) {
			continue
		}
		pending = append(pending, b)
	}

	var positional []Block
	for _, b := range pending {
		if b.Number > 0 && claim(b.Number-1, b) {
			continue
		}
		positional = append(positional, b)
	}

	for _, b := range positional {
		if b.Number == 0 && claim(b.Position, b) {
			continue
		}
		eval.Unmatched = append(eval.Unmatched, b)
	}

	for i, b := range bound {
		if b == nil {
			continue
		}
		eval.Verdicts.Items = append(eval.Verdicts.Items, &ai.Verdict{
			Posting:        postings[i],
			Score:          b.Score,
			Recommendation: b.Recommendation,
			Raw:            b.Text,
		})
	}

	return eval
}

func linkTarget(b Block, byLink map[string]int) (int, bool) {
	for _, link := range b.Links {
		if i, ok := byLink[posting.CanonicalLink(link)]; ok {
			return i, true
		}
	}
	return 0, false
}
