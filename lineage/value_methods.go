package lineage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindInstance:
		return "instance"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.data.(string)
	case KindNil:
		return ""
	case KindBool:
		if v.Bool() {
			return "true"
		}
		return "false"
	case KindInt:
		return strconv.FormatInt(v.data.(int64), 10)
	case KindFloat:
		return strconv.FormatFloat(v.data.(float64), 'g', -1, 64)
	case KindInstance:
		return v.data.(*Instance).String()
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// Inspect renders v the way the REPL echoes results: strings are quoted and
// nil is spelled out.
func (v Value) Inspect() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindString:
		return strconv.Quote(v.data.(string))
	default:
		return v.String()
	}
}

func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		if isNumeric(v.kind) && isNumeric(other.kind) {
			return v.Float() == other.Float()
		}
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindInstance:
		return v.data.(*Instance) == other.data.(*Instance)
	default:
		return v.data == other.data
	}
}

func isNumeric(k ValueKind) bool {
	return k == KindInt || k == KindFloat
}

// FromAny converts a decoded scalar (as produced by YAML or JSON decoders)
// into a Value.
func FromAny(raw any) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return NewNil(), nil
	case Value:
		return val, nil
	case bool:
		return NewBool(val), nil
	case int:
		return NewInt(int64(val)), nil
	case int64:
		return NewInt(val), nil
	case int32:
		return NewInt(int64(val)), nil
	case uint64:
		if val > math.MaxInt64 {
			return NewNil(), fmt.Errorf("integer %d overflows int64", val)
		}
		return NewInt(int64(val)), nil
	case float64:
		return NewFloat(val), nil
	case float32:
		return NewFloat(float64(val)), nil
	case string:
		return NewString(val), nil
	case *Instance:
		return NewInstance(val), nil
	default:
		return NewNil(), fmt.Errorf("unsupported value type %T", raw)
	}
}

// ParseLiteral interprets a command-line token: integers, floats, booleans
// and nil are recognised, quoted text is unquoted and anything else is kept
// as a string.
func ParseLiteral(token string) Value {
	switch token {
	case "nil":
		return NewNil()
	case "true":
		return NewBool(true)
	case "false":
		return NewBool(false)
	}
	if i, err := strconv.ParseInt(token, 10, 64); err == nil {
		return NewInt(i)
	}
	if f, err := strconv.ParseFloat(token, 64); err == nil {
		return NewFloat(f)
	}
	if len(token) >= 2 && strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`) {
		if unquoted, err := strconv.Unquote(token); err == nil {
			return NewString(unquoted)
		}
	}
	return NewString(token)
}
