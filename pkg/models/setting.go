package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Project setting names known to the platform
const (
	SettingMaxConcurrentJobs = "MAX_CONCURRENT_JOBS"
	SettingMaxAOISize        = "JOB_QUERY_MAX_AOI_SIZE"
	SettingMaxNumberOfImages = "JOB_QUERY_LIMIT_PARAMETER_MAX_VALUE"
	SettingLegacyMaxAOISize  = "MAX_AOI_SIZE"
)

// Setting is one project setting record. Values arrive either as JSON
// numbers or as numeric strings.
type Setting struct {
	Name     string      `mapstructure:"name" json:"name"`
	Value    interface{} `mapstructure:"value" json:"value,omitempty"`
	MinValue interface{} `mapstructure:"minValue" json:"minValue,omitempty"`
	MaxValue interface{} `mapstructure:"maxValue" json:"maxValue,omitempty"`
}

// IntValue returns the setting value as an integer
func (s Setting) IntValue() (int, error) {
	return toInt(s.Value)
}

func toInt(v interface{}) (int, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("value is missing")
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t != float64(int64(t)) {
			return 0, fmt.Errorf("value %v is not an integer", t)
		}
		return int(t), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer: %w", t.String(), err)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer: %w", t, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
