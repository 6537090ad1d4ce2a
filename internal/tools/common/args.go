package common

import (
	"fmt"
	"strings"
)

// StringArg returns the named string argument, trimmed. Missing or
// non-string values yield "".
func StringArg(args map[string]interface{}, name string) string {
	if v, ok := args[name].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RequiredStringArg is StringArg failing on empty values.
func RequiredStringArg(args map[string]interface{}, name string) (string, error) {
	v := StringArg(args, name)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// SplitAttendees parses a comma separated list of email addresses, dropping
// empty entries.
func SplitAttendees(s string) []string {
	attendees := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			attendees = append(attendees, part)
		}
	}
	return attendees
}

// StringListArg accepts either a comma separated string or an array of
// strings. A missing argument yields an empty, non-nil list.
func StringListArg(args map[string]interface{}, name string) ([]string, error) {
	switch v := args[name].(type) {
	case nil:
		return []string{}, nil
	case string:
		return SplitAttendees(v), nil
	case []string:
		return SplitAttendees(strings.Join(v, ",")), nil
	case []interface{}:
		result := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", name, i)
			}
			if str = strings.TrimSpace(str); str != "" {
				result = append(result, str)
			}
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", name)
	}
}
