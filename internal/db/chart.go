package db

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Chart is a sparse dental chart: a mapping from tooth index to a clinical
// annotation. Keys that are not numeric are reserved and ignored by
// presentation code.
type Chart map[string]ChartValue

// ChartValueKind tags the shape of one chart entry.
type ChartValueKind int

const (
	ChartScalar ChartValueKind = iota
	ChartGroup
	ChartGroupList
)

// ChartValue is a tagged union over the shapes a chart annotation can take:
// a scalar note, a group of labeled findings, or a list of such groups.
// Modeling the shape explicitly keeps rendering a total function instead of
// runtime type inspection.
type ChartValue struct {
	Kind   ChartValueKind
	Scalar string
	Group  map[string]string
	Groups []map[string]string
}

// ScalarValue builds a scalar entry.
func ScalarValue(s string) ChartValue {
	return ChartValue{Kind: ChartScalar, Scalar: s}
}

// GroupValue builds a labeled-findings entry.
func GroupValue(g map[string]string) ChartValue {
	return ChartValue{Kind: ChartGroup, Group: g}
}

// GroupListValue builds a list-of-groups entry.
func GroupListValue(gs []map[string]string) ChartValue {
	return ChartValue{Kind: ChartGroupList, Groups: gs}
}

// NumericKeys returns the chart's numeric tooth indexes in ascending order.
func (c Chart) NumericKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		if _, err := strconv.Atoi(k); err == nil {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		a, _ := strconv.Atoi(keys[i])
		b, _ := strconv.Atoi(keys[j])
		return a < b
	})
	return keys
}

// UnmarshalJSON classifies the raw JSON shape into the union. Scalars of any
// JSON primitive type become their string rendering; list elements that are
// not objects are dropped, matching how charts were captured upstream.
func (v *ChartValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = classifyChartValue(raw)
	return nil
}

// MarshalJSON writes the union back in its natural JSON shape.
func (v ChartValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ChartGroup:
		return json.Marshal(v.Group)
	case ChartGroupList:
		if v.Groups == nil {
			return json.Marshal([]map[string]string{})
		}
		return json.Marshal(v.Groups)
	default:
		return json.Marshal(v.Scalar)
	}
}

func classifyChartValue(raw any) ChartValue {
	switch t := raw.(type) {
	case map[string]any:
		return GroupValue(stringifyGroup(t))
	case []any:
		groups := make([]map[string]string, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				groups = append(groups, stringifyGroup(m))
			}
		}
		return GroupListValue(groups)
	default:
		return ScalarValue(stringifyScalar(raw))
	}
}

func stringifyGroup(m map[string]any) map[string]string {
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = stringifyScalar(val)
	}
	return out
}

func stringifyScalar(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
