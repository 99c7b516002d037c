package posting

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/spigell/job-radar/internal/logger"
	"github.com/spigell/job-radar/internal/utils"
)

// Raw record keys understood by the normalizer.
const (
	FieldTitle       = "title"
	FieldCompany     = "company"
	FieldLocation    = "location"
	FieldDescription = "description"
	FieldLink        = "link"
)

// RawRecord is an adapter-specific extraction. Values are loosely typed and
// decoded with weak typing.
type RawRecord map[string]any

// RejectionKind classifies why a raw record did not become a posting.
type RejectionKind string

const (
	MissingField RejectionKind = "missing_field"
	InvalidField RejectionKind = "invalid_field"
	Undecodable  RejectionKind = "undecodable"
)

// Rejection explains a dropped raw record.
type Rejection struct {
	Kind   RejectionKind `json:"kind"`
	Field  string        `json:"field,omitempty"`
	Source string        `json:"source"`
	// Hint is whatever identifying text the record had, for the operator.
	Hint   string `json:"hint,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func (r *Rejection) Error() string {
	msg := string(r.Kind)
	if r.Field != "" {
		msg = fmt.Sprintf("%s(%s)", r.Kind, r.Field)
	}
	if r.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, r.Detail)
	}
	return msg
}

type rawFields struct {
	Title       string `mapstructure:"title"`
	Company     string `mapstructure:"company"`
	Location    string `mapstructure:"location"`
	Description string `mapstructure:"description"`
	Link        string `mapstructure:"link"`
}

// Normalizer turns raw adapter records into postings.
type Normalizer struct {
	logger *zap.Logger
}

func NewNormalizer(log *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger.OrNop(log)}
}

// Normalize converts one raw record. Exactly one of the results is non-nil.
func (n *Normalizer) Normalize(raw RawRecord, sourceID string) (*Posting, *Rejection) {
	var fields rawFields

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &fields,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, &Rejection{Kind: Undecodable, Source: sourceID, Detail: err.Error()}
	}

	if err := decoder.Decode(map[string]any(raw)); err != nil {
		return nil, &Rejection{Kind: Undecodable, Source: sourceID, Hint: hint(raw), Detail: err.Error()}
	}

	p := &Posting{
		Title:       utils.CleanText(fields.Title),
		Company:     utils.CleanText(fields.Company),
		Location:    utils.CleanText(fields.Location),
		Description: utils.CleanText(fields.Description),
		Link:        utils.CleanText(fields.Link),
		Sources:     []string{sourceID},
	}

	for _, required := range []struct {
		name  string
		value string
	}{
		{FieldTitle, p.Title},
		{FieldCompany, p.Company},
		{FieldLink, p.Link},
	} {
		if required.value == "" {
			return nil, &Rejection{Kind: MissingField, Field: required.name, Source: sourceID, Hint: hint(raw)}
		}
	}

	if !IsAbsoluteLink(p.Link) {
		return nil, &Rejection{
			Kind:   InvalidField,
			Field:  FieldLink,
			Source: sourceID,
			Hint:   hint(raw),
			Detail: fmt.Sprintf("%q is not an absolute http(s) url", p.Link),
		}
	}

	if p.Location == "" {
		p.Location = UnknownLocation
	}
	if !p.HasDescription() {
		p.Description = NoDescription
	}

	return p, nil
}

// NormalizeBatch normalizes every record of one adapter. Every record becomes
// either a posting or a rejection.
func (n *Normalizer) NormalizeBatch(raw []RawRecord, sourceID string) ([]*Posting, []*Rejection) {
	postings := make([]*Posting, 0, len(raw))
	var rejections []*Rejection

	for _, record := range raw {
		p, rejection := n.Normalize(record, sourceID)
		if rejection != nil {
			n.logger.Debug("raw record dropped",
				zap.String("source", sourceID),
				zap.String("kind", string(rejection.Kind)),
				zap.String("field", rejection.Field),
				zap.String("hint", rejection.Hint),
			)
			rejections = append(rejections, rejection)
			continue
		}
		postings = append(postings, p)
	}

	return postings, rejections
}

func hint(raw RawRecord) string {
	for _, key := range []string{FieldLink, FieldTitle, FieldCompany} {
		if v, ok := raw[key]; ok && v != nil {
			if s := utils.CleanText(fmt.Sprintf("%v", v)); s != "" {
				return utils.TruncateForLog(s, 80)
			}
		}
	}
	return ""
}
