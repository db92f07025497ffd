package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// TypedResponse wraps a response with a decoded body of type T.
type TypedResponse[T any] struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Data is the decoded response body.
	Data T
}

// Decode unmarshals a JSON response body into T. An empty body yields the
// zero value.
func Decode[T any](resp *Response) (T, error) {
	var data T
	if resp == nil || len(resp.Body) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return data, fmt.Errorf("httpclient: decode response: %w", err)
	}
	return data, nil
}

// Get performs a GET request and decodes the JSON response into type T.
func Get[T any](a *Adapter, ctx context.Context, path string) (*TypedResponse[T], error) {
	return send[T](a, ctx, Request{Method: http.MethodGet, Path: path})
}

func send[T any](a *Adapter, ctx context.Context, req Request) (*TypedResponse[T], error) {
	resp, err := a.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	data, err := Decode[T](resp)
	if err != nil {
		return nil, err
	}
	return &TypedResponse[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Data:       data,
	}, nil
}
