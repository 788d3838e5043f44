package components

import (
	"fmt"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// toFloat converts the numeric values produced by YAML decoding and by other nodes.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	default:
		return 0, zerr.With(domain.ErrUnexpectedValue, "type", fmt.Sprintf("%T", v))
	}
}

// number evaluates inport as a float, treating an absent value as fallback.
func number(nc domain.NodeContext, inport string, fallback float64) (float64, error) {
	v, ok, err := nc.Evaluate(inport)
	if err != nil {
		return 0, err
	}
	if !ok || v == nil {
		return fallback, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, zerr.With(err, "inport", inport)
	}
	return f, nil
}
