package testutils

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"

	"github.com/mcuadros/go-defaults"
	"github.com/yudai/gojsondiff"
	"github.com/yudai/gojsondiff/formatter"
)

// TestingT is the subset of *testing.T the asserters report through.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// MustJSON marshals v or panics.
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// JSONAssertOptions tunes the comparison.
type JSONAssertOptions struct {
	// IgnoreExtraKeys drops object keys the expected document does not mention.
	IgnoreExtraKeys bool `default:"true"`
	// IgnoredFields are removed at every depth before comparing.
	IgnoredFields []string
	// IgnoreArrayOrder sorts arrays by their JSON encoding on both sides.
	IgnoreArrayOrder bool `default:"false"`
}

type Option func(*JSONAssertOptions)

func WithIgnoreExtraKeys(ignore bool) Option {
	return func(o *JSONAssertOptions) { o.IgnoreExtraKeys = ignore }
}

func WithIgnoredFields(fields ...string) Option {
	return func(o *JSONAssertOptions) { o.IgnoredFields = append(o.IgnoredFields, fields...) }
}

func WithIgnoreArrayOrder(ignore bool) Option {
	return func(o *JSONAssertOptions) { o.IgnoreArrayOrder = ignore }
}

// JSONAsserter compares JSON documents structurally and reports a readable
// diff on mismatch.
type JSONAsserter struct {
	t       TestingT
	options JSONAssertOptions
}

func NewJSONAsserter(t TestingT) *JSONAsserter {
	opts := JSONAssertOptions{}
	defaults.SetDefaults(&opts)
	return &JSONAsserter{t: t, options: opts}
}

func (ja *JSONAsserter) WithOptions(opts ...Option) *JSONAsserter {
	for _, opt := range opts {
		opt(&ja.options)
	}
	return ja
}

// Assert fails the test when actualJSON differs from expectedJSON.
func (ja *JSONAsserter) Assert(actualJSON, expectedJSON string) {
	ja.t.Helper()
	if diff := ja.Diff(actualJSON, expectedJSON); diff != "" {
		ja.t.Errorf("JSON assertion failed:\n%s", diff)
	}
}

// Diff returns "" when the documents match under the current options.
func (ja *JSONAsserter) Diff(actualJSON, expectedJSON string) string {
	var expected, actual any
	if err := json.Unmarshal([]byte(expectedJSON), &expected); err != nil {
		return fmt.Sprintf("invalid expected JSON: %v", err)
	}
	if err := json.Unmarshal([]byte(actualJSON), &actual); err != nil {
		return fmt.Sprintf("invalid actual JSON: %v", err)
	}

	// gojsondiff compares objects only.
	if _, ok := expected.([]any); ok {
		expected = map[string]any{"array": expected}
		actual = map[string]any{"array": actual}
	}

	if len(ja.options.IgnoredFields) > 0 {
		expected = dropFields(expected, ja.options.IgnoredFields)
		actual = dropFields(actual, ja.options.IgnoredFields)
	}
	if ja.options.IgnoreArrayOrder {
		expected = sortArrays(expected)
		actual = sortArrays(actual)
	}
	if ja.options.IgnoreExtraKeys {
		actual = keepKeysOf(actual, expected)
	}

	expectedBytes, _ := json.Marshal(expected)
	actualBytes, _ := json.Marshal(actual)
	diff, err := gojsondiff.New().Compare(expectedBytes, actualBytes)
	if err != nil {
		return fmt.Sprintf("JSON comparison failed: %v", err)
	}
	if !diff.Modified() {
		return ""
	}

	f := formatter.NewAsciiFormatter(expected, formatter.AsciiFormatterConfig{ShowArrayIndex: true})
	out, _ := f.Format(diff)
	return out
}

func dropFields(v any, fields []string) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			if slices.Contains(fields, k) {
				continue
			}
			out[k] = dropFields(val, fields)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = dropFields(val, fields)
		}
		return out
	default:
		return v
	}
}

func sortArrays(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = sortArrays(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = sortArrays(val)
		}
		sort.SliceStable(out, func(i, j int) bool { return MustJSON(out[i]) < MustJSON(out[j]) })
		return out
	default:
		return v
	}
}

// keepKeysOf prunes actual down to the object keys present in expected.
// Arrays are pruned element-wise against the expected element at the same index.
func keepKeysOf(actual, expected any) any {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			return actual
		}
		out := make(map[string]any, len(exp))
		for k, ev := range exp {
			if av, ok := act[k]; ok {
				out[k] = keepKeysOf(av, ev)
			}
		}
		return out
	case []any:
		act, ok := actual.([]any)
		if !ok {
			return actual
		}
		out := make([]any, len(act))
		for i, av := range act {
			if i < len(exp) {
				out[i] = keepKeysOf(av, exp[i])
			} else {
				out[i] = av
			}
		}
		return out
	default:
		return actual
	}
}
