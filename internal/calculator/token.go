package calculator

// Keypad tokens. The spellings are the contract between the engine and
// whatever captures the key presses.
const (
	TokenClear      = "C"
	TokenSignToggle = "+/-"
	TokenPercent    = "%"
	TokenDecimal    = "."
	TokenAdd        = "+"
	TokenSubtract   = "-"
	TokenMultiply   = "×"
	TokenDivide     = "÷"
	TokenEquals     = "="
)

// Class groups tokens by the handler they dispatch to.
type Class string

const (
	ClassClear    Class = "clear"
	ClassSign     Class = "sign"
	ClassPercent  Class = "percent"
	ClassDecimal  Class = "decimal"
	ClassOperator Class = "operator"
	ClassEquals   Class = "equals"
	ClassDigit    Class = "digit"
	ClassUnknown  Class = "unknown"
)

// Classify reports which class token belongs to, checked in dispatch
// precedence order.
func Classify(token string) Class {
	switch token {
	case TokenClear:
		return ClassClear
	case TokenSignToggle:
		return ClassSign
	case TokenPercent:
		return ClassPercent
	case TokenDecimal:
		return ClassDecimal
	case TokenAdd, TokenSubtract, TokenMultiply, TokenDivide:
		return ClassOperator
	case TokenEquals:
		return ClassEquals
	}
	if len(token) == 1 && token[0] >= '0' && token[0] <= '9' {
		return ClassDigit
	}
	return ClassUnknown
}

// Operator is a pending binary operation. The zero value means none.
type Operator int

const (
	OpNone Operator = iota
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
)

func operatorFor(token string) Operator {
	switch token {
	case TokenAdd:
		return OpAdd
	case TokenSubtract:
		return OpSubtract
	case TokenMultiply:
		return OpMultiply
	case TokenDivide:
		return OpDivide
	}
	return OpNone
}

// Symbol is the keypad spelling used in the operation trace.
func (o Operator) Symbol() string {
	switch o {
	case OpAdd:
		return TokenAdd
	case OpSubtract:
		return TokenSubtract
	case OpMultiply:
		return TokenMultiply
	case OpDivide:
		return TokenDivide
	}
	return ""
}

// String returns the operator name, e.g. "multiply".
func (o Operator) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpSubtract:
		return "subtract"
	case OpMultiply:
		return "multiply"
	case OpDivide:
		return "divide"
	}
	return "none"
}
