package evaluator

import (
	"encoding/json"
)

// ValueToJSON marshals a Value to JSON bytes.
// Ints and bools map to JSON numbers and booleans, Empty to null, and
// functions to an object naming the function and its parameters.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

type functionJSON struct {
	Function string   `json:"function"`
	Params   []string `json:"params"`
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case Int:
		return val.Value
	case Bool:
		return val.Value
	case *Function:
		name := val.Name
		if name == "" {
			name = "lambda"
		}
		params := val.Params
		if params == nil {
			params = []string{}
		}
		return functionJSON{Function: name, Params: params}
	case ReturnSignal:
		return valueToRaw(val.Value)
	}
	return nil
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
