package memcache

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ErrUnsupportedScalar is returned by SetScalar for a value type that has
// no defined decimal rendering.
var ErrUnsupportedScalar = errors.New("memcache: unsupported scalar type")

// SetString encodes v as UTF-8 bytes and calls Set.
func (cl *Client) SetString(key string, v string, cas uint64, flags, exptime uint32) (OpResult, error) {
	return cl.Set(key, []byte(v), cas, flags, exptime)
}

// SetJSON marshals v to JSON and calls Set.
func (cl *Client) SetJSON(key string, v interface{}, cas uint64, flags, exptime uint32) (OpResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return OpResult{Status: InvalidArguments}, err
	}
	return cl.Set(key, data, cas, flags, exptime)
}

// SetScalar formats v with fmt-equivalent decimal rendering and calls Set.
// Supported types: int, int64, uint64, float64, bool, and string; any
// other type (including the other integer and float widths) returns
// ErrUnsupportedScalar.
func (cl *Client) SetScalar(key string, v interface{}, cas uint64, flags, exptime uint32) (OpResult, error) {
	s, err := formatScalar(v)
	if err != nil {
		return OpResult{Status: InvalidArguments}, err
	}
	return cl.Set(key, []byte(s), cas, flags, exptime)
}

func formatScalar(v interface{}) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	default:
		return "", ErrUnsupportedScalar
	}
}

// TrimScalar strips ASCII whitespace and trailing NUL bytes before a
// scalar parse. Servers have been observed padding values with NULs.
func TrimScalar(data []byte) []byte {
	s := strings.TrimRight(string(data), "\x00")
	return []byte(strings.TrimSpace(s))
}

// AsString interprets Data as a UTF-8 string, trimming padding NULs and
// surrounding whitespace first.
func AsString(item CachedItem) (string, bool) {
	return string(TrimScalar(item.Data)), true
}

// AsJSON unmarshals Data into v, returning false if the payload is not
// valid JSON for v's type.
func AsJSON(item CachedItem, v interface{}) bool {
	return json.Unmarshal(TrimScalar(item.Data), v) == nil
}

// AsInt64 parses Data (after trimming) as a base-10 signed integer.
func AsInt64(item CachedItem) (int64, bool) {
	v, err := strconv.ParseInt(string(TrimScalar(item.Data)), 10, 64)
	return v, err == nil
}

// AsUint64 parses Data (after trimming) as a base-10 unsigned integer.
func AsUint64(item CachedItem) (uint64, bool) {
	v, err := strconv.ParseUint(string(TrimScalar(item.Data)), 10, 64)
	return v, err == nil
}

// AsFloat64 parses Data (after trimming) as a base-10 float.
func AsFloat64(item CachedItem) (float64, bool) {
	v, err := strconv.ParseFloat(string(TrimScalar(item.Data)), 64)
	return v, err == nil
}
