// Package pb writes protobuf messages field by field. Zero scalars are omitted the way proto3
// marshallers do, so bytes that are hashed and signed match what the chain recomputes.
package pb

import (
	"google.golang.org/protobuf/encoding/protowire"
)

type Message []byte

func (m Message) Bytes(num protowire.Number, v []byte) Message {
	if len(v) == 0 {
		return m
	}
	m = protowire.AppendTag(m, num, protowire.BytesType)
	return protowire.AppendBytes(m, v)
}

func (m Message) String(num protowire.Number, v string) Message {
	return m.Bytes(num, []byte(v))
}

func (m Message) Uint(num protowire.Number, v uint64) Message {
	if v == 0 {
		return m
	}
	m = protowire.AppendTag(m, num, protowire.VarintType)
	return protowire.AppendVarint(m, v)
}

func (m Message) Int(num protowire.Number, v int64) Message {
	return m.Uint(num, uint64(v))
}

// Embed writes a nested message even when it is empty.
func (m Message) Embed(num protowire.Number, v Message) Message {
	m = protowire.AppendTag(m, num, protowire.BytesType)
	return protowire.AppendBytes(m, v)
}

// Any wraps value in a google.protobuf.Any.
func Any(typeURL string, value Message) Message {
	return Message(nil).String(1, typeURL).Bytes(2, value)
}
