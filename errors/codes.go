package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Tree decoding errors
//   - E2xxx: Compile errors
//   - E3xxx: Runtime errors
type ErrorCode string

const (
	// Decode errors (E1xxx)
	E1001 ErrorCode = "E1001" // Malformed tree
	E1002 ErrorCode = "E1002" // Unknown node kind
	E1003 ErrorCode = "E1003" // Unknown callable
	E1004 ErrorCode = "E1004" // Unknown type
	E1005 ErrorCode = "E1005" // Undeclared variable
	E1006 ErrorCode = "E1006" // Unknown label

	// Compile errors (E2xxx)
	E2001 ErrorCode = "E2001" // Type mismatch
	E2002 ErrorCode = "E2002" // Invalid assignment target
	E2003 ErrorCode = "E2003" // Undefined label
	E2004 ErrorCode = "E2004" // Invalid try block
	E2005 ErrorCode = "E2005" // Invalid return
	E2006 ErrorCode = "E2006" // Rethrow outside catch
	E2007 ErrorCode = "E2007" // Too many local variables
	E2008 ErrorCode = "E2008" // Too many constants
	E2009 ErrorCode = "E2009" // Argument count mismatch
	E2010 ErrorCode = "E2010" // Invalid switch
	E2011 ErrorCode = "E2011" // Unsupported construct
	E2012 ErrorCode = "E2012" // Invalid jump
	E2013 ErrorCode = "E2013" // Duplicate label

	// Runtime errors (E3xxx)
	E3001 ErrorCode = "E3001" // Type error
	E3002 ErrorCode = "E3002" // Division by zero
	E3003 ErrorCode = "E3003" // Index out of range
	E3004 ErrorCode = "E3004" // Arithmetic overflow
	E3005 ErrorCode = "E3005" // Null reference
	E3006 ErrorCode = "E3006" // Stack overflow
	E3007 ErrorCode = "E3007" // Invalid cast
	E3008 ErrorCode = "E3008" // Unhandled exception
	E3009 ErrorCode = "E3009" // Invalid argument
	E3010 ErrorCode = "E3010" // Requires full compile
	E3011 ErrorCode = "E3011" // Execution cancelled
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "malformed tree",
	E1002: "unknown node kind",
	E1003: "unknown callable",
	E1004: "unknown type",
	E1005: "undeclared variable",
	E1006: "unknown label",

	E2001: "type mismatch",
	E2002: "invalid assignment target",
	E2003: "undefined label",
	E2004: "invalid try block",
	E2005: "invalid return",
	E2006: "rethrow outside catch",
	E2007: "too many local variables",
	E2008: "too many constants",
	E2009: "argument count mismatch",
	E2010: "invalid switch",
	E2011: "unsupported construct",
	E2012: "invalid jump",
	E2013: "duplicate label",

	E3001: "type error",
	E3002: "division by zero",
	E3003: "index out of range",
	E3004: "arithmetic overflow",
	E3005: "null reference",
	E3006: "stack overflow",
	E3007: "invalid cast",
	E3008: "unhandled exception",
	E3009: "invalid argument",
	E3010: "requires full compile",
	E3011: "execution cancelled",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return "unknown error"
}

// String returns the error code as a string.
func (c ErrorCode) String() string {
	return string(c)
}

// Category returns the error category based on the code prefix.
func (c ErrorCode) Category() string {
	if len(c) < 2 {
		return "unknown"
	}
	switch c[1] {
	case '1':
		return "decode"
	case '2':
		return "compile"
	case '3':
		return "runtime"
	default:
		return "unknown"
	}
}
