// Package template fills the placeholders of a SQL skeleton with a translated
// condition and the values derived from a panel query.
package template

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/thisisjab/querybridge/entity"
	"github.com/thisisjab/querybridge/fault"
	"golang.org/x/net/html"
)

// Placeholder names filled by Values.
const (
	QueryCondition = "queryCondition"
	Alias          = "alias"
	DeviceIDField  = "deviceIdField"
	GroupByField   = "groupByField"
	Limit          = "limit"
)

type Config struct {
	Alias         string `yaml:"alias"`
	DeviceIDField string `yaml:"device_id_field"`
	GroupByField  string `yaml:"group_by_field"`
	Limit         int    `yaml:"limit"`

	// EmptyCondition replaces a blank condition so the WHERE clause stays
	// valid.
	EmptyCondition string `yaml:"empty_condition"`
}

var DefaultConfig = Config{
	Alias:          "query_result",
	DeviceIDField:  "deviceId",
	GroupByField:   "timestamp",
	Limit:          100,
	EmptyCondition: "1 = 1",
}

var identifierRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Values prepares the placeholder values for one query of a panel. Dashboard
// variables such as ${DorisSources} and ${interval} are not part of the result
// and survive rendering.
func Values(query entity.QueryConfig, condition string, cfg Config) (map[string]string, error) {
	if strings.TrimSpace(condition) == "" {
		condition = cfg.EmptyCondition
	}

	alias := query.Alias
	if alias == "" {
		alias = cfg.Alias
	}

	deviceID := cfg.DeviceIDField
	if len(query.Metrics) > 0 && query.Metrics[0].Field != "" {
		deviceID = query.Metrics[0].Field
	}

	groupBy := "@timestamp"
	if len(query.GroupBy) > 0 && query.GroupBy[0].Field != "" {
		groupBy = query.GroupBy[0].Field
	}

	limit := cfg.Limit
	if query.Size > 0 || query.IsRawData() {
		if n := query.SizeLimit(); n > 0 {
			limit = n
		}
	}

	// condition is already escaped SQL. Entities in the query are decoded
	// before translation, never here.
	values := map[string]string{
		QueryCondition: condition,
		Alias:          html.UnescapeString(alias),
		DeviceIDField:  identifier(deviceID, cfg.DeviceIDField),
		GroupByField:   identifier(groupBy, cfg.GroupByField),
		Limit:          strconv.Itoa(limit),
	}

	if strings.TrimSpace(values[Alias]) == "" {
		return nil, fault.New(fault.BadInputCode, "alias is required").
			WithMetadata(fault.FieldErrorsMetadata{"alias": {"must not be empty"}})
	}

	return values, nil
}

func identifier(field, fallback string) string {
	field = html.UnescapeString(strings.Replace(field, ".keyword", "", 1))
	if identifierRegex.MatchString(field) {
		return field
	}
	return fallback
}
