package headhunter

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

const (
	SearchPath = "/vacancies"
)

type SearchParams struct {
	Text string `yaml:"text"`
	// hhparam is custom tag for reflect. Please see below.
	Areas       []int    `hhparam:"area"`
	OrderBy     string   `yaml:"order_by"`
	SearchField string   `yaml:"search_field" mapstructure:"search_field"`
	Schedules   []string `hhparam:"schedule"`
	PerPage     string   `yaml:"per_page" mapstructure:"per_page"`
	Experience  string   `yaml:"experience"`
	Period      uint     `yaml:"period"`
}

func (c *Client) search(ctx context.Context, params *SearchParams) (*Vacancies, error) {
	var vacancies []*Vacancy

	p := *params
	// Set per_page max as possible. It should be faster.
	if p.PerPage == "" {
		p.PerPage = perPage
	}

	apiURLSearch := fmt.Sprintf("%s%s", c.APIURL, SearchPath)

	items, err := c.GetItems(ctx, apiURLSearch, buildParams(&p))
	if len(items) == 0 && err != nil {
		return nil, err
	}

	cfg := &mapstructure.DecoderConfig{
		Result:           &vacancies,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, derr := mapstructure.NewDecoder(cfg)
	if derr != nil {
		return nil, derr
	}
	if derr := decoder.Decode(items); derr != nil {
		return nil, fmt.Errorf("decode vacancies: %w", derr)
	}

	// A failure past the first page still returns what was read.
	return &Vacancies{Items: vacancies}, err
}

func buildParams(params *SearchParams) url.Values {
	q := url.Values{}
	fields := reflect.VisibleFields(reflect.TypeOf(*params))
	for _, field := range fields {
		// Our custom tag is using here.
		key := field.Tag.Get("hhparam")
		if key == "" {
			// Failover to default tag if our tag do not exist.
			key = field.Tag.Get("yaml")
		}
		value := reflect.ValueOf(params).Elem().Field(field.Index[0]).Interface()

		switch v := value.(type) {
		case []int:
			for _, item := range v {
				q.Add(key, strconv.Itoa(item))
			}
		case []string:
			for _, item := range v {
				q.Add(key, item)
			}
		default:
			s := fmt.Sprintf("%v", v)
			if s != "" && s != "0" {
				q.Set(key, s)
			}
		}
	}

	return q
}
