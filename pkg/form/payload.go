package form

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formstate/pkg/message"
)

// ApplyErrorPayload routes a server error payload onto the form's fields.
// Keys may be plain names, dotted paths, JSON pointers (`/body/email`,
// `#/properties/email`) or indexed paths (`tags[0]`). Messages whose key
// matches no field are returned as form-level messages so nothing is lost.
//
// Payload text is untrusted: markup is stripped before it reaches a field.
// Messages are added at error severity and live until the next refresh,
// which clears everything at warning and above.
func (f *Form) ApplyErrorPayload(payload map[string][]string) []string {
	if len(payload) == 0 {
		return nil
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var formLevel []string
	for _, key := range keys {
		messages := normalizeMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		name, ok := f.matchErrorPath(key)
		if !ok {
			formLevel = append(formLevel, messages...)
			continue
		}
		id := f.entries[f.byName[name]].spec.ID
		for _, text := range messages {
			f.AddFieldMessageByFieldID(id, message.SeverityError, text)
		}
	}
	return normalizeMessages(formLevel)
}

func (f *Form) matchErrorPath(raw string) (string, bool) {
	if isFormLevelKey(raw) {
		return "", false
	}
	segments := parsePathSegments(raw)
	if len(segments) == 0 {
		return "", false
	}

	best := ""
	for _, variant := range segmentVariants(segments) {
		for end := len(variant); end > 0; end-- {
			candidate := strings.Join(variant[:end], ".")
			if _, ok := f.byName[candidate]; ok {
				if len(candidate) > len(best) {
					best = candidate
				}
				break
			}
		}
	}
	return best, best != ""
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		trimmed := message.Sanitize(msg)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	clean = strings.TrimLeft(clean, "#/$.")
	clean = strings.NewReplacer("[", ".", "]", "").Replace(clean)
	clean = strings.Trim(clean, "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

// segmentVariants yields the raw segments plus versions without request
// wrappers, schema keywords and array indices.
func segmentVariants(segments []string) [][]string {
	var variants [][]string
	seen := make(map[string]struct{})
	add := func(candidate []string) {
		if len(candidate) == 0 {
			return
		}
		key := strings.Join(candidate, "\x00")
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		variants = append(variants, candidate)
	}

	add(segments)
	unwrapped := dropWrapperSegments(segments)
	add(unwrapped)
	bare := dropSegments(unwrapped, func(s string) bool {
		if s == "properties" || s == "items" {
			return true
		}
		_, err := strconv.Atoi(s)
		return err == nil
	})
	add(bare)
	return variants
}

func dropWrapperSegments(segments []string) []string {
	wrappers := map[string]struct{}{
		"body":       {},
		"request":    {},
		"payload":    {},
		"data":       {},
		"attributes": {},
	}
	out := segments
	for len(out) > 0 {
		if _, ok := wrappers[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func dropSegments(segments []string, drop func(string) bool) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if !drop(segment) {
			out = append(out, segment)
		}
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
