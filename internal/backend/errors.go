package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
)

var (
	// ErrRouteNotFound indicates the API route itself is missing, usually a
	// misconfigured base URL or gateway.
	ErrRouteNotFound = errors.New("backend: api route not found")
	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = errors.New("backend: record not found")
	// ErrUnauthorized indicates the token was rejected.
	ErrUnauthorized = errors.New("backend: unauthorized")
)

// globalKeys are payload keys that never map onto a form field.
var globalKeys = map[string]bool{
	"detail":           true,
	"message":          true,
	"code":             true,
	"messages":         true,
	"non_field_errors": true,
}

// TransportError reports a request that produced no response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Payload holds the decoded JSON object when
// the body was one.
type APIError struct {
	Op      string
	Status  int
	Payload map[string]json.RawMessage
	Body    []byte
}

func newAPIError(op string, status int, body []byte) *APIError {
	apiErr := &APIError{Op: op, Status: status, Body: body}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &payload); err == nil {
			apiErr.Payload = payload
		}
	}
	return apiErr
}

func (e *APIError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("backend: %s: status %d: %s", e.Op, e.Status, detail)
	}
	return fmt.Sprintf("backend: %s: status %d", e.Op, e.Status)
}

// Is maps statuses onto the package sentinels. A 404 carrying a "detail"
// message is a missing record; any other 404 is a missing route.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRouteNotFound:
		return e.Status == http.StatusNotFound && !e.has("detail")
	case ErrNotFound:
		return e.Status == http.StatusNotFound && e.has("detail")
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

func (e *APIError) has(key string) bool {
	if e.Payload == nil {
		return false
	}
	_, ok := e.Payload[key]
	return ok
}

// Detail returns the "detail" string, if any.
func (e *APIError) Detail() string {
	return e.stringAt("detail")
}

func (e *APIError) stringAt(key string) string {
	if e.Payload == nil {
		return ""
	}
	raw, ok := e.Payload[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// genericMessage stands in for a global entry whose shape is not readable.
const genericMessage = "An error occurred"

// GlobalMessages returns messages that belong to no field: detail, message,
// code, messages and non_field_errors, in that order. A present entry that
// holds no readable text yields genericMessage once.
func (e *APIError) GlobalMessages() []string {
	if e.Payload == nil {
		return nil
	}
	var (
		out     []string
		generic bool
	)
	for _, key := range []string{"detail", "message", "code", "messages", "non_field_errors"} {
		raw, ok := e.Payload[key]
		if !ok {
			continue
		}
		msgs := readMessages(raw)
		if len(msgs) == 0 {
			generic = generic || !isBlank(raw)
			continue
		}
		out = append(out, msgs...)
	}
	if generic {
		out = append(out, genericMessage)
	}
	return out
}

// readMessages accepts a string, a number or a list of strings.
func readMessages(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return []string{s}
		}
	case '[':
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil
		}
		var out []string
		for _, elem := range list {
			var s string
			if err := json.Unmarshal(elem, &s); err == nil && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return []string{n.String()}
		}
	}
	return nil
}

func isBlank(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`, "[]":
		return true
	}
	return false
}

// FieldErrors flattens per-field messages into "field" or
// "field.index.subfield" keys holding the first message of each field.
func (e *APIError) FieldErrors() map[string]string {
	out := make(map[string]string)
	if e.Payload == nil {
		return out
	}
	for key, raw := range e.Payload {
		if globalKeys[key] {
			continue
		}
		flattenInto(out, key, raw)
	}
	return out
}

// SortedFields returns FieldErrors keys in a stable order.
func SortedFields(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flattenInto(out map[string]string, prefix string, raw json.RawMessage) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			out[prefix] = s
		}
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return
		}
		for idx, elem := range elems {
			elem = bytes.TrimSpace(elem)
			if len(elem) == 0 {
				continue
			}
			switch elem[0] {
			case '"':
				var s string
				if err := json.Unmarshal(elem, &s); err == nil && s != "" {
					if _, set := out[prefix]; !set {
						out[prefix] = s
					}
				}
			case '{':
				flattenObject(out, prefix+"."+strconv.Itoa(idx), elem)
			}
		}
	case '{':
		flattenObject(out, prefix, raw)
	}
}

func flattenObject(out map[string]string, prefix string, raw json.RawMessage) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return
	}
	for key, value := range obj {
		flattenInto(out, prefix+"."+key, value)
	}
}
