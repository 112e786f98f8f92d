package entity

import "testing"

func TestSizeLimit(t *testing.T) {
	tests := map[string]struct {
		cfg      QueryConfig
		expected int
	}{
		"unset": {
			cfg:      QueryConfig{},
			expected: 0,
		},
		"from buttons": {
			cfg:      QueryConfig{RawData: RawData{Buttons: []string{"Raw Data", "Size: 500"}}},
			expected: 500,
		},
		"no space": {
			cfg:      QueryConfig{RawData: RawData{Buttons: []string{"Size:20"}}},
			expected: 20,
		},
		"explicit size wins": {
			cfg:      QueryConfig{Size: 7, RawData: RawData{Buttons: []string{"Size: 500"}}},
			expected: 7,
		},
		"zero is ignored": {
			cfg:      QueryConfig{RawData: RawData{Buttons: []string{"Size: 0", "Size: 3"}}},
			expected: 3,
		},
	}

	for name, tt := range tests {
		if actual := tt.cfg.SizeLimit(); actual != tt.expected {
			t.Fatalf("%s: SizeLimit() = %d, want %d", name, actual, tt.expected)
		}
	}
}

func TestIsRawData(t *testing.T) {
	tests := map[string]struct {
		cfg      QueryConfig
		expected bool
	}{
		"no metrics": {
			cfg:      QueryConfig{RawData: RawData{Buttons: []string{"Size: 500"}}},
			expected: false,
		},
		"aggregation": {
			cfg:      QueryConfig{Metrics: []Metric{{Type: "Unique Count", Field: "deviceId"}}},
			expected: false,
		},
		"raw data": {
			cfg:      QueryConfig{Metrics: []Metric{{Type: "Raw Data"}}},
			expected: true,
		},
		"lower case": {
			cfg:      QueryConfig{Metrics: []Metric{{Type: "raw Data"}}},
			expected: true,
		},
		"camel case": {
			cfg:      QueryConfig{Metrics: []Metric{{Type: "Count"}, {Type: "rawData"}}},
			expected: true,
		},
	}

	for name, tt := range tests {
		if actual := tt.cfg.IsRawData(); actual != tt.expected {
			t.Fatalf("%s: IsRawData() = %t, want %t", name, actual, tt.expected)
		}
	}
}
