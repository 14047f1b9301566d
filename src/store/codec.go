package store

import (
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/cgscacau/yieldlab/src/logger"
)

// EncodeFields converts plain values into the Firestore typed-value form.
// Values with no wire representation are logged and left out.
func EncodeFields(fields Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for key, value := range fields {
		encoded, ok := encodeValue(value)
		if !ok {
			logger.L.Warn("Dropping field with unsupported type", "field", key, "type", reflect.TypeOf(value))
			continue
		}
		out[key] = encoded
	}
	return out
}

// DecodeFields is the inverse of EncodeFields. Unrecognized shapes are
// logged and dropped.
func DecodeFields(wire map[string]any) Fields {
	out := make(Fields, len(wire))
	for key, raw := range wire {
		typed, _ := raw.(map[string]any)
		value, ok := decodeValue(typed)
		if !ok {
			logger.L.Warn("Unrecognized Firestore field", "field", key, "value", raw)
			continue
		}
		out[key] = value
	}
	return out
}

func encodeValue(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case nil:
		return map[string]any{"nullValue": nil}, true
	case string:
		return map[string]any{"stringValue": x}, true
	case bool:
		return map[string]any{"booleanValue": x}, true
	case float64:
		return encodeDouble(x), true
	case float32:
		return encodeDouble(float64(x)), true
	case int:
		return map[string]any{"integerValue": strconv.FormatInt(int64(x), 10)}, true
	case int32:
		return map[string]any{"integerValue": strconv.FormatInt(int64(x), 10)}, true
	case int64:
		return map[string]any{"integerValue": strconv.FormatInt(x, 10)}, true
	case time.Time:
		return map[string]any{"timestampValue": x.UTC().Format(time.RFC3339Nano)}, true
	case Fields:
		return map[string]any{"mapValue": map[string]any{"fields": EncodeFields(x)}}, true
	case map[string]any:
		return map[string]any{"mapValue": map[string]any{"fields": EncodeFields(x)}}, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		values := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			encoded, ok := encodeValue(rv.Index(i).Interface())
			if !ok {
				logger.L.Warn("Dropping array element with unsupported type", "index", i)
				continue
			}
			values = append(values, encoded)
		}
		return map[string]any{"arrayValue": map[string]any{"values": values}}, true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		fields := make(Fields, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = iter.Value().Interface()
		}
		return map[string]any{"mapValue": map[string]any{"fields": EncodeFields(fields)}}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return map[string]any{"integerValue": strconv.FormatUint(rv.Uint(), 10)}, true
	case reflect.Int8, reflect.Int16:
		return map[string]any{"integerValue": strconv.FormatInt(rv.Int(), 10)}, true
	}
	return nil, false
}

// Firestore's JSON mapping writes non-finite doubles as strings.
func encodeDouble(f float64) map[string]any {
	switch {
	case math.IsNaN(f):
		return map[string]any{"doubleValue": "NaN"}
	case math.IsInf(f, 1):
		return map[string]any{"doubleValue": "Infinity"}
	case math.IsInf(f, -1):
		return map[string]any{"doubleValue": "-Infinity"}
	}
	return map[string]any{"doubleValue": f}
}

func decodeValue(typed map[string]any) (any, bool) {
	if typed == nil {
		return nil, false
	}
	if v, ok := typed["stringValue"]; ok {
		s, isString := v.(string)
		return s, isString
	}
	if v, ok := typed["doubleValue"]; ok {
		return decodeDouble(v)
	}
	if v, ok := typed["integerValue"]; ok {
		switch n := v.(type) {
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			return i, err == nil
		case float64:
			return int64(n), true
		}
		return nil, false
	}
	if v, ok := typed["booleanValue"]; ok {
		b, isBool := v.(bool)
		return b, isBool
	}
	if _, ok := typed["nullValue"]; ok {
		return nil, true
	}
	if v, ok := typed["timestampValue"]; ok {
		s, isString := v.(string)
		return s, isString
	}
	if v, ok := typed["arrayValue"]; ok {
		arr, _ := v.(map[string]any)
		rawValues, _ := arr["values"].([]any)
		values := make([]any, 0, len(rawValues))
		for _, raw := range rawValues {
			element, _ := raw.(map[string]any)
			if decoded, ok := decodeValue(element); ok {
				values = append(values, decoded)
			}
		}
		return values, true
	}
	if v, ok := typed["mapValue"]; ok {
		m, _ := v.(map[string]any)
		inner, _ := m["fields"].(map[string]any)
		return map[string]any(DecodeFields(inner)), true
	}
	return nil, false
}

func decodeDouble(v any) (any, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		switch n {
		case "NaN":
			return math.NaN(), true
		case "Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return nil, false
}
