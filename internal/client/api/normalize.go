package api

import (
	"bytes"
	"encoding/json"
)

// Shape names the envelope a payload was extracted from.
type Shape string

const (
	ShapeEnvelope   Shape = "envelope"
	ShapeDirectAuth Shape = "direct-auth"
	ShapeData       Shape = "data"
	ShapeBody       Shape = "body"
	ShapeDirectUser Shape = "direct-user"
)

type shapeMatcher struct {
	shape Shape
	match func(body Payload) (Payload, bool)
}

// shapes is evaluated in order; the first match wins.
var shapes = []shapeMatcher{
	{ShapeEnvelope, nested("responseData")},
	{ShapeDirectAuth, self("jwtToken", "token", "accessToken", "sessionId")},
	{ShapeData, nested("data")},
	{ShapeBody, nested("body")},
	{ShapeDirectUser, self("username", "email")},
}

func nested(key string) func(Payload) (Payload, bool) {
	return func(body Payload) (Payload, bool) {
		return body.Object(key)
	}
}

func self(keys ...string) func(Payload) (Payload, bool) {
	return func(body Payload) (Payload, bool) {
		for _, k := range keys {
			if truthy(body[k]) {
				return body, true
			}
		}
		return nil, false
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	default:
		return true
	}
}

// Normalize extracts the canonical payload from a response body.
// It returns ErrMalformedResponse when the body is not a JSON object or
// matches none of the known shapes.
func Normalize(body []byte) (Payload, Shape, error) {
	obj, err := decodeObject(body)
	if err != nil {
		return nil, "", err
	}
	return normalizeObject(obj)
}

func normalizeObject(obj Payload) (Payload, Shape, error) {
	for _, m := range shapes {
		if p, ok := m.match(obj); ok {
			return p, m.shape, nil
		}
	}
	return nil, "", ErrMalformedResponse
}

func decodeObject(body []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, ErrMalformedResponse
	}
	return Payload(obj), nil
}
