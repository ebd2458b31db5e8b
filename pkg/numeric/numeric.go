// Package numeric converts the numeric values returned by graph drivers into
// plain Go numbers.
//
// Drivers hand back a mix of native integers and floats, arbitrary precision
// values (math/big, pgtype.Numeric, json.Number) and nil for missing
// properties or empty aggregates. Wrap classifies a raw value into a Value and
// Normalize collapses it to a float64. Neither ever fails: null and
// unrecognized values become 0.
package numeric

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"

	"github.com/jackc/pgx/v5/pgtype"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNative
	KindBigInt
)

// Value is a tagged union of the numeric shapes a driver can return.
type Value struct {
	kind   Kind
	native float64
	big    *big.Int
}

func Null() Value { return Value{kind: KindNull} }

func Native(f float64) Value { return Value{kind: KindNative, native: f} }

func BigInt(i *big.Int) Value {
	if i == nil {
		return Null()
	}
	return Value{kind: KindBigInt, big: new(big.Int).Set(i)}
}

func (v Value) Kind() Kind { return v.kind }

// Float returns the value as float64. Big integers outside the float64 range
// saturate to ±Inf like big.Float does.
func (v Value) Float() float64 {
	switch v.kind {
	case KindNative:
		if math.IsNaN(v.native) {
			return 0
		}
		return v.native
	case KindBigInt:
		f, _ := new(big.Float).SetInt(v.big).Float64()
		return f
	default:
		return 0
	}
}

// Wrap classifies a raw driver value.
func Wrap(raw any) Value {
	switch n := raw.(type) {
	case nil:
		return Null()
	case Value:
		return n
	case float64:
		return Native(n)
	case float32:
		return Native(float64(n))
	case int:
		return Native(float64(n))
	case int8:
		return Native(float64(n))
	case int16:
		return Native(float64(n))
	case int32:
		return Native(float64(n))
	case int64:
		return Native(float64(n))
	case uint:
		return Native(float64(n))
	case uint8:
		return Native(float64(n))
	case uint16:
		return Native(float64(n))
	case uint32:
		return Native(float64(n))
	case uint64:
		return Native(float64(n))
	case *int64:
		if n == nil {
			return Null()
		}
		return Native(float64(*n))
	case *float64:
		if n == nil {
			return Null()
		}
		return Native(*n)
	case *big.Int:
		return BigInt(n)
	case big.Int:
		return BigInt(&n)
	case *big.Float:
		if n == nil {
			return Null()
		}
		f, _ := n.Float64()
		return Native(f)
	case json.Number:
		return fromString(string(n))
	case pgtype.Numeric:
		return fromPgNumeric(n)
	case pgtype.Int8:
		if !n.Valid {
			return Null()
		}
		return Native(float64(n.Int64))
	case pgtype.Int4:
		if !n.Valid {
			return Null()
		}
		return Native(float64(n.Int32))
	case pgtype.Float8:
		if !n.Valid {
			return Null()
		}
		return Native(n.Float64)
	default:
		return Null()
	}
}

// Normalize converts any driver numeric into a float64. nil and values of
// unknown shape yield 0.
func Normalize(raw any) float64 {
	return Wrap(raw).Float()
}

// NormalizeInt is Normalize truncated to an int64.
func NormalizeInt(raw any) int64 {
	f := Normalize(raw)
	if math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// Optional returns nil for a null value and a pointer to the normalized
// number otherwise.
func Optional(raw any) *float64 {
	v := Wrap(raw)
	if v.kind == KindNull {
		return nil
	}
	f := v.Float()
	return &f
}

// Round rounds f to the given number of decimal places.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

func fromString(s string) Value {
	if i, ok := new(big.Int).SetString(s, 10); ok {
		if i.IsInt64() {
			return Native(float64(i.Int64()))
		}
		return BigInt(i)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null()
	}
	return Native(f)
}

func fromPgNumeric(n pgtype.Numeric) Value {
	if !n.Valid || n.NaN || n.Int == nil {
		return Null()
	}
	if n.Exp == 0 {
		return BigInt(n.Int)
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return Null()
	}
	return Native(f.Float64)
}
