package codec

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/flate"
)

// wireValue is the self-describing textual form a tree value is marshaled
// to. Exactly one field is non-nil; which one names the value's runtime
// type so Decode reconstructs it exactly rather than losing int64 precision
// to JSON's default float64-for-numbers behavior. Every field is a
// pointer so that empty-but-present values (the empty string, an empty
// byte string, an empty tuple) survive omitempty and round-trip with
// their type intact.
type wireValue struct {
	Int   *int64       `json:"i,omitempty"`
	Float *float64     `json:"f,omitempty"`
	Str   *string      `json:"s,omitempty"`
	Bytes *[]byte      `json:"b,omitempty"`
	Tuple *[]wireValue `json:"t,omitempty"`
}

// wireNode is the envelope written to storage: a node's value set plus,
// for internal nodes, the storage keys of its children. A node is only
// ever encoded once every child has itself been written through to
// storage (see the eviction write-through rule), so child identifiers here
// are always content hashes, never resident ids.
type wireNode struct {
	Values   []wireValue `json:"values"`
	ChildIDs []string    `json:"child_ids,omitempty"`
}

func encodeValue(v interface{}) (wireValue, error) {
	switch t := v.(type) {
	case int:
		i := int64(t)
		return wireValue{Int: &i}, nil
	case int64:
		return wireValue{Int: &t}, nil
	case float64:
		return wireValue{Float: &t}, nil
	case string:
		return wireValue{Str: &t}, nil
	case []byte:
		b := t
		if b == nil {
			b = []byte{}
		}
		return wireValue{Bytes: &b}, nil
	case []interface{}:
		tuple := make([]wireValue, len(t))
		for i, elem := range t {
			wv, err := encodeValue(elem)
			if err != nil {
				return wireValue{}, err
			}
			tuple[i] = wv
		}
		return wireValue{Tuple: &tuple}, nil
	default:
		return wireValue{}, errors.Newf("codec: unsupported value type %T", v)
	}
}

func decodeValue(wv wireValue) (interface{}, error) {
	switch {
	case wv.Int != nil:
		return *wv.Int, nil
	case wv.Float != nil:
		return *wv.Float, nil
	case wv.Str != nil:
		return *wv.Str, nil
	case wv.Bytes != nil:
		b := *wv.Bytes
		if b == nil {
			b = []byte{}
		}
		return b, nil
	case wv.Tuple != nil:
		tuple := make([]interface{}, len(*wv.Tuple))
		for i, elem := range *wv.Tuple {
			v, err := decodeValue(elem)
			if err != nil {
				return nil, err
			}
			tuple[i] = v
		}
		return tuple, nil
	default:
		return nil, errors.New("codec: value carries no recognized type field")
	}
}

// EncodeNode serializes a node's values and (for internal nodes) child
// storage keys into the self-describing textual form, then DEFLATE-
// compresses it. The result is the exact byte sequence that gets hashed
// into the node's storage key.
func EncodeNode(values []interface{}, childIDs []string) ([]byte, error) {
	wn := wireNode{Values: make([]wireValue, len(values)), ChildIDs: childIDs}
	for i, v := range values {
		wv, err := encodeValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding node value %d", i)
		}
		wn.Values[i] = wv
	}

	plain, err := json.Marshal(wn)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling node envelope")
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, errors.Wrap(err, "creating deflate writer")
	}
	if _, err := w.Write(plain); err != nil {
		return nil, errors.Wrap(err, "compressing node bytes")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "flushing deflate writer")
	}
	return buf.Bytes(), nil
}

// DecodeNode inverts EncodeNode.
func DecodeNode(data []byte) (values []interface{}, childIDs []string, err error) {
	r := flate.NewReader(bytes.NewReader(data))
	defer r.Close()

	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, errors.Wrap(err, "decompressing node bytes")
	}

	var wn wireNode
	if err := json.Unmarshal(plain, &wn); err != nil {
		return nil, nil, errors.Wrap(err, "unmarshaling node envelope")
	}

	values = make([]interface{}, len(wn.Values))
	for i, wv := range wn.Values {
		v, err := decodeValue(wv)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "decoding node value %d", i)
		}
		values[i] = v
	}
	return values, wn.ChildIDs, nil
}

// HashBytes computes the storage key for a blob: uppercase hex SHA-256.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
