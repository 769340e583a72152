/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package canonical implements the deterministic, signature-grade
// serialization litefab signs over: a textual map encoding with keys
// sorted lexicographically at every nesting level, not just the top
// level. Sorting only the top level leaves nested-object key order
// producer-dependent, which breaks cross-node signature verification;
// this implementation makes the recursive sort a hard requirement.
//
// Canonical encodes a restricted value universe: map[string]interface{},
// []interface{}, string, bool, nil, and the numeric types produced by
// json.Unmarshal plus the integer types used internally (int, int64,
// uint64). Any value outside that universe is a programming error in the
// caller, not a data error, and Marshal panics.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Marshal produces the canonical byte encoding of v.
func Marshal(v interface{}) []byte {
	var buf bytes.Buffer
	encode(&buf, v)
	return buf.Bytes()
}

// MarshalStruct canonicalizes an arbitrary Go value by round-tripping it
// through encoding/json into the map[string]interface{}/[]interface{}
// universe Marshal understands, then encoding that with sorted keys at
// every level. This is how callers turn a typed struct (a Proposal, an
// Envelope, an RWSet) into the signed byte string, without hand-writing a
// map literal per call site.
func MarshalStruct(v interface{}) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("canonical: value not JSON-representable: %v", err))
	}
	var generic interface{}
	if err := json.Unmarshal(b, &generic); err != nil {
		panic(fmt.Sprintf("canonical: round-trip decode failed: %v", err))
	}
	return Marshal(generic)
}

func encode(buf *bytes.Buffer, v interface{}) {
	switch t := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		encodeString(buf, t)
	case int:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(t, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(t, 10))
	case float64:
		encodeFloat(buf, t)
	case []byte:
		encodeString(buf, string(t))
	case []interface{}:
		encodeArray(buf, t)
	case map[string]interface{}:
		encodeObject(buf, t)
	default:
		panic(fmt.Sprintf("canonical: unsupported value type %T", v))
	}
}

func encodeArray(buf *bytes.Buffer, a []interface{}) {
	buf.WriteByte('[')
	for i, e := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		encode(buf, e)
	}
	buf.WriteByte(']')
}

func encodeObject(buf *bytes.Buffer, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		encodeString(buf, k)
		buf.WriteByte(':')
		encode(buf, m[k])
	}
	buf.WriteByte('}')
}

// encodeString escapes a string the way encoding/json would for a value
// with no HTML-sensitive characters re-escaped differently across
// implementations: control characters, quote, and backslash are escaped;
// everything else (including non-ASCII UTF-8) passes through verbatim so
// two faithful implementations agree byte-for-byte.
func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(buf, `\u%04x`, r)
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// encodeFloat renders integral float64 values (as produced by
// json.Unmarshal for JSON numbers) without a trailing ".0" so re-encoding a
// decoded struct matches the canonical form of the same value constructed
// natively as an int.
func encodeFloat(buf *bytes.Buffer, f float64) {
	if f == float64(int64(f)) {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
}
