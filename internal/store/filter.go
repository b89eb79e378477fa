package store

import (
	"reflect"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// Match evaluates filter against doc using the supported subset of the Mongo
// query language: $or, $and, field equality (including match-any over array
// fields), and the per-field operators $eq, $ne, $gt, $gte, $lt, $lte, $in,
// $nin, $regex/$options and $exists. Dotted paths descend into embedded
// documents.
//
// Values arrive here exactly as the request decoder produced them. A caller
// that does not constrain a field to a scalar before building a filter is
// letting the client choose between "value" and "operator document" - which
// is precisely the distinction the login path's credential policy exists to
// enforce.
func Match(doc bson.M, filter bson.M) bool {
	for key, condition := range filter {
		switch key {
		case "$or":
			if !matchAny(doc, condition) {
				return false
			}
		case "$and":
			if !matchAll(doc, condition) {
				return false
			}
		default:
			value, present := lookupPath(doc, key)
			if operators, ok := asDocument(condition); ok && isOperatorDoc(operators) {
				if !matchOperators(value, present, operators) {
					return false
				}
			} else if !valuesEqual(value, condition) {
				return false
			}
		}
	}
	return true
}

func matchAny(doc bson.M, condition any) bool {
	branches, ok := asSlice(condition)
	if !ok {
		return false
	}
	for _, branch := range branches {
		if sub, ok := asDocument(branch); ok && Match(doc, sub) {
			return true
		}
	}
	return false
}

func matchAll(doc bson.M, condition any) bool {
	branches, ok := asSlice(condition)
	if !ok {
		return false
	}
	for _, branch := range branches {
		sub, ok := asDocument(branch)
		if !ok || !Match(doc, sub) {
			return false
		}
	}
	return true
}

func matchOperators(value any, present bool, operators bson.M) bool {
	for op, operand := range operators {
		switch op {
		case "$eq":
			if !valuesEqual(value, operand) {
				return false
			}
		case "$ne":
			if valuesEqual(value, operand) {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			cmp, ok := compareValues(value, operand)
			if !ok {
				return false
			}
			switch op {
			case "$gt":
				if cmp <= 0 {
					return false
				}
			case "$gte":
				if cmp < 0 {
					return false
				}
			case "$lt":
				if cmp >= 0 {
					return false
				}
			case "$lte":
				if cmp > 0 {
					return false
				}
			}
		case "$in":
			if !inList(value, operand) {
				return false
			}
		case "$nin":
			if inList(value, operand) {
				return false
			}
		case "$regex":
			pattern, ok := operand.(string)
			if !ok || !regexMatch(value, pattern, operators["$options"]) {
				return false
			}
		case "$options":
			// consumed together with $regex
		case "$exists":
			want, ok := operand.(bool)
			if !ok || present != want {
				return false
			}
		default:
			// unsupported operator: fail closed
			return false
		}
	}
	return true
}

// valuesEqual applies Mongo equality: scalars compare with numeric coercion,
// and an array field equals a scalar condition when any element does.
func valuesEqual(value, condition any) bool {
	if elements, ok := asSlice(value); ok {
		if _, condIsSlice := asSlice(condition); !condIsSlice {
			for _, element := range elements {
				if valuesEqual(element, condition) {
					return true
				}
			}
			return false
		}
	}
	if value == nil || condition == nil {
		return value == nil && condition == nil
	}
	if cmp, ok := compareValues(value, condition); ok {
		return cmp == 0
	}
	return reflect.DeepEqual(value, condition)
}

// compareValues orders two scalars when they are of a comparable kind
// (numbers, strings, times, bools). The second result is false otherwise.
func compareValues(a, b any) (int, bool) {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		}
		return 0, true
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(as, bs), true
	}
	if at, ok := asTime(a); ok {
		bt, ok := asTime(b)
		if !ok {
			return 0, false
		}
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		}
		return 0, true
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if ab == bb {
			return 0, true
		}
		if !ab {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func inList(value any, operand any) bool {
	candidates, ok := asSlice(operand)
	if !ok {
		return false
	}
	for _, candidate := range candidates {
		if valuesEqual(value, candidate) {
			return true
		}
	}
	return false
}

func regexMatch(value any, pattern string, options any) bool {
	text, ok := value.(string)
	if !ok {
		return false
	}
	if opts, ok := options.(string); ok && strings.Contains(opts, "i") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

func lookupPath(doc bson.M, path string) (any, bool) {
	segments := strings.Split(path, ".")
	var current any = doc
	for _, segment := range segments {
		sub, ok := asDocument(current)
		if !ok {
			return nil, false
		}
		current, ok = sub[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func isOperatorDoc(doc bson.M) bool {
	if len(doc) == 0 {
		return false
	}
	for key := range doc {
		if !strings.HasPrefix(key, "$") {
			return false
		}
	}
	return true
}

func asDocument(v any) (bson.M, bool) {
	switch t := v.(type) {
	case bson.M:
		return t, true
	case map[string]any:
		return bson.M(t), true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case bson.A:
		return []any(t), true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}
