package filter

import (
	"fmt"
	"math"
	"sort"
)

// MaxConditionsPerGroup is the maximum number of conditions per filter group.
const MaxConditionsPerGroup = 32

// Expression is a structured payload filter with must/should/must_not boolean semantics.
type Expression struct {
	must    []Condition
	should  []Condition
	mustNot []Condition
}

// NewExpression validates and creates a filter Expression.
func NewExpression(must, should, mustNot []Condition) (Expression, error) {
	if len(must) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(should) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many should conditions (max %d)", MaxConditionsPerGroup)
	}
	if len(mustNot) > MaxConditionsPerGroup {
		return Expression{}, fmt.Errorf("too many must_not conditions (max %d)", MaxConditionsPerGroup)
	}
	return Expression{must: must, should: should, mustNot: mustNot}, nil
}

// AllOf builds a conjunction of field-equality conditions from a flat map.
// Keys are sorted so the resulting backend query is deterministic.
func AllOf(fields map[string]any) (Expression, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	must := make([]Condition, 0, len(keys))
	for _, k := range keys {
		c, err := NewMatch(k, fields[k])
		if err != nil {
			return Expression{}, err
		}
		must = append(must, c)
	}
	return NewExpression(must, nil, nil)
}

// Must returns the must conditions.
func (e Expression) Must() []Condition { return e.must }

// Should returns the should conditions.
func (e Expression) Should() []Condition { return e.should }

// MustNot returns the must-not conditions.
func (e Expression) MustNot() []Condition { return e.mustNot }

// IsEmpty reports whether the expression has no conditions.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0 && len(e.should) == 0 && len(e.mustNot) == 0
}

// With returns a copy of e with extra must conditions appended.
func (e Expression) With(conds ...Condition) (Expression, error) {
	must := make([]Condition, 0, len(e.must)+len(conds))
	must = append(must, e.must...)
	must = append(must, conds...)
	return NewExpression(must, e.should, e.mustNot)
}

// Kind is the type of a match value.
type Kind int

const (
	// KindString is an exact keyword match.
	KindString Kind = iota
	// KindInt is an exact integer match.
	KindInt
	// KindBool is an exact boolean match.
	KindBool
)

// Condition is a single field-equality clause.
type Condition struct {
	key  string
	kind Kind
	str  string
	num  int64
	flag bool
}

// NewMatch creates an exact match condition. Accepted values are strings, booleans and
// integral numbers (JSON numbers arrive as float64 and are accepted when they have no fraction).
func NewMatch(key string, value any) (Condition, error) {
	if key == "" {
		return Condition{}, fmt.Errorf("filter key is required")
	}
	if !IsValidKey(key) {
		return Condition{}, fmt.Errorf("filter key %q must match [a-zA-Z0-9_]+", key)
	}
	switch v := value.(type) {
	case string:
		if v == "" {
			return Condition{}, fmt.Errorf("match value is required for key %q", key)
		}
		return Condition{key: key, kind: KindString, str: v}, nil
	case bool:
		return Condition{key: key, kind: KindBool, flag: v}, nil
	case int:
		return Condition{key: key, kind: KindInt, num: int64(v)}, nil
	case int64:
		return Condition{key: key, kind: KindInt, num: v}, nil
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return Condition{}, fmt.Errorf("match value for key %q must be an integer, got %v", key, v)
		}
		return Condition{key: key, kind: KindInt, num: int64(v)}, nil
	case nil:
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	default:
		return Condition{}, fmt.Errorf("unsupported match value type %T for key %q", value, key)
	}
}

// IsValidKey reports whether key is usable as a payload field name in every backend query language.
// Keys are interpolated into FT.SEARCH and Milvus expressions, so only [a-zA-Z0-9_]+ is allowed.
func IsValidKey(key string) bool {
	if key == "" {
		return false
	}
	for _, r := range key {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		if !isAlpha && !isDigit && r != '_' {
			return false
		}
	}
	return true
}

// Key returns the payload field name.
func (c Condition) Key() string { return c.key }

// Kind returns the match value type.
func (c Condition) Kind() Kind { return c.kind }

// String returns the keyword value (KindString).
func (c Condition) String() string { return c.str }

// Int returns the integer value (KindInt).
func (c Condition) Int() int64 { return c.num }

// Bool returns the boolean value (KindBool).
func (c Condition) Bool() bool { return c.flag }

// Value returns the match value as a Go value.
func (c Condition) Value() any {
	switch c.kind {
	case KindInt:
		return c.num
	case KindBool:
		return c.flag
	default:
		return c.str
	}
}

// Text renders the value as text, the form used by tag-based backends.
func (c Condition) Text() string {
	switch c.kind {
	case KindInt:
		return fmt.Sprintf("%d", c.num)
	case KindBool:
		if c.flag {
			return "true"
		}
		return "false"
	default:
		return c.str
	}
}

// Matches reports whether a payload value satisfies the condition.
// Numbers from JSON (float64) compare equal to integer conditions.
func (c Condition) Matches(v any) bool {
	switch c.kind {
	case KindString:
		s, ok := v.(string)
		return ok && s == c.str
	case KindBool:
		b, ok := v.(bool)
		return ok && b == c.flag
	case KindInt:
		switch n := v.(type) {
		case int:
			return int64(n) == c.num
		case int64:
			return n == c.num
		case float64:
			return n == float64(c.num)
		case string:
			return n == c.Text()
		}
	}
	return false
}
