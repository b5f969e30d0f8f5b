package journal

import (
	"errors"
	"strconv"
	"strings"

	"github.com/odyssey-erp/odyssey-desk/internal/backend"
)

const (
	noticeGeneric   = "Something went wrong"
	noticeTransport = "Could not reach the accounting service. Your entry was kept, please try again."
	noticeRoute     = "Accounting API endpoint not found. Check the backend base URL."
)

// Feedback is what the form shows after a failed submit: messages next to
// controls, and global notices for everything without a control.
type Feedback struct {
	Fields  map[string]string `json:"fields,omitempty"`
	Notices []string          `json:"notices,omitempty"`
}

// Empty reports whether there is nothing to show.
func (f Feedback) Empty() bool {
	return len(f.Fields) == 0 && len(f.Notices) == 0
}

// FeedbackFor maps an error onto form feedback. Server field errors land on
// the matching control when hasField knows it, otherwise they become a notice
// prefixed with the field name.
func FeedbackFor(err error, hasField func(string) bool) Feedback {
	if err == nil {
		return Feedback{}
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return Feedback{Fields: copyFields(verr.Fields)}
	}
	if errors.Is(err, backend.ErrRouteNotFound) {
		return Feedback{Notices: []string{noticeRoute}}
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		fb := Feedback{Fields: map[string]string{}, Notices: apiErr.GlobalMessages()}
		fields := apiErr.FieldErrors()
		for _, key := range backend.SortedFields(fields) {
			if hasField != nil && hasField(key) {
				fb.Fields[key] = fields[key]
				continue
			}
			fb.Notices = append(fb.Notices, key+": "+fields[key])
		}
		if fb.Empty() {
			fb.Notices = []string{noticeGeneric}
		}
		return fb
	}
	var transport *backend.TransportError
	if errors.As(err, &transport) {
		return Feedback{Notices: []string{noticeTransport}}
	}
	return Feedback{Notices: []string{noticeGeneric}}
}

func copyFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var headerFields = map[string]bool{
	"date":         true,
	"reference":    true,
	"description":  true,
	"voucher_type": true,
	"wing_uuid":    true,
	fieldItems:     true,
}

var lineFields = map[string]bool{
	"account":     true,
	"debit":       true,
	"credit":      true,
	"description": true,
}

// hasField reports whether key names a control of entry.
func (e Entry) hasField(key string) bool {
	if headerFields[key] {
		return true
	}
	parts := strings.Split(key, ".")
	if len(parts) != 3 || parts[0] != fieldItems || !lineFields[parts[2]] {
		return false
	}
	idx, err := strconv.Atoi(parts[1])
	return err == nil && idx >= 0 && idx < len(e.Items)
}
