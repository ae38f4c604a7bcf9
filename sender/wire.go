/*
DESCRIPTION
  wire.go provides decoding of protobuf wire format fields.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package sender

import (
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

var errWireType = errors.New("unexpected wire type")

// field is a decoded field value. Only the member for typ is set.
type field struct {
	typ    protowire.Type
	varint uint64
	fixed  uint64
	bytes  []byte
}

// decodeFields calls fn with each field of the message b, skipping fields
// of types other than varint, fixed64 and bytes.
func decodeFields(b []byte, fn func(protowire.Number, field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		v := field{typ: typ}
		switch typ {
		case protowire.VarintType:
			v.varint, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			v.fixed, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			v.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		err := fn(num, v)
		if err != nil {
			return err
		}
	}
	return nil
}

func (f field) int64() (int64, error) {
	if f.typ != protowire.VarintType {
		return 0, errWireType
	}
	return protowire.DecodeZigZag(f.varint), nil
}

func (f field) int() (int, error) {
	v, err := f.int64()
	return int(v), err
}

func (f field) double() (float64, error) {
	if f.typ != protowire.Fixed64Type {
		return 0, errWireType
	}
	return math.Float64frombits(f.fixed), nil
}

func (f field) string() (string, error) {
	if f.typ != protowire.BytesType {
		return "", errWireType
	}
	return string(f.bytes), nil
}

// property decodes a map entry into p.
func (f field) property(p map[string]string) error {
	if f.typ != protowire.BytesType {
		return errWireType
	}
	var k, v string
	err := decodeFields(f.bytes, func(n protowire.Number, f field) error {
		var err error
		switch n {
		case propertyKey:
			k, err = f.string()
		case propertyValue:
			v, err = f.string()
		}
		return err
	})
	if err != nil {
		return err
	}
	p[k] = v
	return nil
}
