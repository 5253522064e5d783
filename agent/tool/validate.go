package tool

import (
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

const (
	FormatEmail   = "email"
	FormatPhone   = "phone"
	FormatOrderID = "order_id"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigit     = regexp.MustCompile(`\D`)
)

// ValidateInput checks input against one of the known formats. Invalid input and unknown
// formats are reported as invalid_input results.
func ValidateInput(input, format string) contractx.ToolResult {
	const name = ToolValidateUserInput

	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatEmail:
		if emailPattern.MatchString(input) {
			return contractx.OK(name, "Valid email format")
		}
		return contractx.Fail(name, contractx.ErrorKindInvalidInput, "Invalid email format")
	case FormatPhone:
		if len(nonDigit.ReplaceAllString(input, "")) >= 10 {
			return contractx.OK(name, "Valid phone format")
		}
		return contractx.Fail(name, contractx.ErrorKindInvalidInput, "Invalid phone format")
	case FormatOrderID:
		if strings.HasPrefix(input, "ORD") && len(input) >= 6 {
			return contractx.OK(name, "Valid order ID format")
		}
		return contractx.Fail(name, contractx.ErrorKindInvalidInput, "Invalid order ID format (should start with 'ORD')")
	default:
		return contractx.Fail(name, contractx.ErrorKindInvalidInput, "Unknown validation format")
	}
}
