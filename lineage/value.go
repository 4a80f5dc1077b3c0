package lineage

type ValueKind int

const (
	KindNil ValueKind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindInstance
)

// Value is the small tagged union carried through fields, arguments and
// method results.
type Value struct {
	kind ValueKind
	data any
}

func NewNil() Value            { return Value{kind: KindNil} }
func NewBool(b bool) Value     { return Value{kind: KindBool, data: b} }
func NewInt(i int64) Value     { return Value{kind: KindInt, data: i} }
func NewFloat(f float64) Value { return Value{kind: KindFloat, data: f} }
func NewString(s string) Value { return Value{kind: KindString, data: s} }

func NewInstance(inst *Instance) Value {
	if inst == nil {
		return NewNil()
	}
	return Value{kind: KindInstance, data: inst}
}
