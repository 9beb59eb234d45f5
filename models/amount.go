package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Amount is a monetary value in the base currency unit. Stored documents written by
// older clients sometimes carry amounts as strings or nulls, so decoding never fails:
// anything that is not a number (or a numeric string) becomes zero.
type Amount float64

// Float64 returns the amount as a plain float64
func (a Amount) Float64() float64 {
	return float64(a)
}

// MarshalBSONValue stores the amount as a bson double
func (a Amount) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(float64(a))
}

// UnmarshalBSONValue coerces any stored bson value into an Amount
func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Double:
		*a = Amount(rv.Double())
	case bsontype.Int32:
		*a = Amount(rv.Int32())
	case bsontype.Int64:
		*a = Amount(rv.Int64())
	case bsontype.Decimal128:
		*a = parseAmount(rv.Decimal128().String())
	case bsontype.String:
		*a = parseAmount(rv.StringValue())
	default:
		*a = 0
	}
	return nil
}

// UnmarshalJSON accepts numbers and numeric strings, anything else is zero
func (a *Amount) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		*a = 0
		return nil
	}
	switch n := v.(type) {
	case float64:
		*a = Amount(n)
	case string:
		*a = parseAmount(n)
	default:
		*a = 0
	}
	return nil
}

func parseAmount(s string) Amount {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return Amount(f)
}
