package entity

import (
	"regexp"
	"strconv"
	"strings"
)

// Panel is a dashboard panel together with the queries it runs.
type Panel struct {
	// Type is the visualization, e.g. "Time series" or "Pie chart".
	Type       string            `json:"type" yaml:"type"`
	Variables  map[string]string `json:"variables,omitempty" yaml:"variables"`
	Queries    []QueryConfig     `json:"queries" yaml:"queries"`
	Transforms []Transform       `json:"transforms,omitempty" yaml:"transforms"`
}

// QueryConfig is one query row of a panel editor.
type QueryConfig struct {
	Index     int       `json:"index" yaml:"index"`
	ID        string    `json:"id,omitempty" yaml:"id"`
	Name      string    `json:"name,omitempty" yaml:"name"`
	Query     Query     `json:"query" yaml:"query"`
	Alias     string    `json:"alias,omitempty" yaml:"alias"`
	QueryType string    `json:"query_type,omitempty" yaml:"query_type"`
	Metrics   []Metric  `json:"metrics,omitempty" yaml:"metrics"`
	GroupBy   []GroupBy `json:"group_by,omitempty" yaml:"group_by"`
	RawData   RawData   `json:"raw_data" yaml:"raw_data"`

	// Size overrides the size found in RawData when positive.
	Size int `json:"size,omitempty" yaml:"size"`
}

type Query struct {
	Type    string `json:"type,omitempty" yaml:"type"`
	Content string `json:"content" yaml:"content"`
}

type Metric struct {
	Type     string            `json:"type" yaml:"type"`
	Field    string            `json:"field,omitempty" yaml:"field"`
	Settings map[string]string `json:"settings,omitempty" yaml:"settings"`
}

type GroupBy struct {
	Type     string            `json:"type" yaml:"type"`
	Field    string            `json:"field,omitempty" yaml:"field"`
	Settings map[string]string `json:"settings,omitempty" yaml:"settings"`
}

// RawData holds the texts scraped from the query row that have no dedicated
// field.
type RawData struct {
	Buttons []string     `json:"buttons,omitempty" yaml:"buttons"`
	Labels  []string     `json:"labels,omitempty" yaml:"labels"`
	Inputs  []InputValue `json:"inputs,omitempty" yaml:"inputs"`
}

type InputValue struct {
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder"`
	Value       string `json:"value" yaml:"value"`
}

// Transform is a panel transformation such as "Add field from calculation".
type Transform struct {
	Type   string            `json:"type" yaml:"type"`
	Config map[string]string `json:"config,omitempty" yaml:"config"`
}

var sizeRegex = regexp.MustCompile(`Size:\s*(\d+)`)

// SizeLimit returns the "Size: N" setting of the query, or 0 when unset.
func (c QueryConfig) SizeLimit() int {
	if c.Size > 0 {
		return c.Size
	}

	for _, b := range c.RawData.Buttons {
		m := sizeRegex.FindStringSubmatch(b)
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			return n
		}
	}

	return 0
}

// IsRawData reports whether one of the metrics of the query is a raw data
// metric ("Raw Data", "raw Data", "rawData"). Only raw data queries take
// their limit from the "Size: N" button.
func (c QueryConfig) IsRawData() bool {
	for _, m := range c.Metrics {
		if strings.EqualFold(strings.ReplaceAll(m.Type, " ", ""), "rawdata") {
			return true
		}
	}
	return false
}
