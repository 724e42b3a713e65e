package tools

import (
	"fmt"
	"math"
	"strings"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// args reads typed values out of a tool call's argument object.
type args map[string]any

func (a args) text(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", shared.ErrInvalidArgument, key)
	}
	return strings.TrimSpace(s), nil
}

func (a args) requireText(key string) (string, error) {
	s, err := a.text(key)
	if err != nil {
		return "", err
	}
	if s == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, key)
	}
	return s, nil
}

// optionalInt returns nil when key is absent. JSON numbers arrive as float64.
func (a args) optionalInt(key string) (*int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}

	var n int
	switch x := v.(type) {
	case float64:
		if x != math.Trunc(x) {
			return nil, fmt.Errorf("%w: %s must be a whole number", shared.ErrInvalidArgument, key)
		}
		n = int(x)
	case int:
		n = x
	case int64:
		n = int(x)
	default:
		return nil, fmt.Errorf("%w: %s must be a number", shared.ErrInvalidArgument, key)
	}
	return &n, nil
}

func (a args) intOr(key string, def int) (int, error) {
	n, err := a.optionalInt(key)
	if err != nil || n == nil {
		return def, err
	}
	return *n, nil
}

func (a args) requireInt(key string) (int, error) {
	n, err := a.optionalInt(key)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, key)
	}
	return *n, nil
}

func (a args) optionalBool(key string) (*bool, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a boolean", shared.ErrInvalidArgument, key)
	}
	return &b, nil
}

func (a args) boolean(key string) (bool, error) {
	b, err := a.optionalBool(key)
	if err != nil || b == nil {
		return false, err
	}
	return *b, nil
}

// list accepts a JSON array of strings or a single comma separated string.
func (a args) list(key string) ([]string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return nil, nil
	}

	var raw []string
	switch x := v.(type) {
	case string:
		raw = strings.Split(x, ",")
	case []string:
		raw = x
	case []any:
		for _, item := range x {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must contain only strings", shared.ErrInvalidArgument, key)
			}
			raw = append(raw, s)
		}
	default:
		return nil, fmt.Errorf("%w: %s must be an array of strings", shared.ErrInvalidArgument, key)
	}

	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

func (a args) requireList(key string) ([]string, error) {
	out, err := a.list(key)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", shared.ErrMissingArgument, key)
	}
	return out, nil
}
