// Package calculator implements the keypad state machine of a four-function
// calculator: a stream of button tokens in, a value display and an
// operation trace out.
package calculator

import "strings"

// ErrorText replaces the display after a division by zero or an overflow.
const ErrorText = "Error"

// State is the complete calculator state. The zero value is the initial
// state (display "0", nothing pending). States are values; Apply returns a
// new one and never mutates its argument.
type State struct {
	display string
	trace   string

	first    float64
	hasFirst bool

	second    float64
	hasSecond bool

	op Operator

	// fresh means the next digit replaces the display instead of extending it.
	fresh bool
	// repeat is set right after a successful "=" so that another "=" reuses
	// the previous second operand.
	repeat bool
}

// Apply returns the state that results from pressing token in s.
// Unrecognised tokens return s unchanged.
func Apply(s State, token string) State {
	s.handle(token)
	return s
}

// Replay folds tokens over the initial state.
func Replay(tokens ...string) State {
	var s State
	for _, t := range tokens {
		s.handle(t)
	}
	return s
}

// Display is the current value line.
func (s State) Display() string {
	if s.display == "" {
		return "0"
	}
	return s.display
}

// OperationTrace is the expression line, empty when nothing is pending.
func (s State) OperationTrace() string { return s.trace }

// Pending returns the operator awaiting evaluation, or OpNone.
func (s State) Pending() Operator { return s.op }

// FirstOperand returns the captured left-hand operand, if any.
func (s State) FirstOperand() (float64, bool) { return s.first, s.hasFirst }

// AwaitingFreshEntry reports whether the next digit starts a new number.
func (s State) AwaitingFreshEntry() bool { return s.fresh }

// Failed reports whether the display shows the error literal.
func (s State) Failed() bool { return s.display == ErrorText }

func (s *State) handle(token string) {
	if s.display == "" {
		s.display = "0"
	}

	class := Classify(token)
	if class == ClassUnknown {
		return
	}

	repeat := s.repeat
	s.repeat = false

	switch class {
	case ClassClear:
		s.reset()
	case ClassSign:
		s.toggleSign()
	case ClassPercent:
		s.applyPercent()
	case ClassDecimal:
		s.appendDecimalPoint()
	case ClassOperator:
		s.setOperator(operatorFor(token))
	case ClassEquals:
		s.evaluate(repeat)
	case ClassDigit:
		s.inputDigit(token)
	}
}

func (s *State) reset() {
	*s = State{display: "0"}
}

func (s *State) toggleSign() {
	if s.display == "0" || s.Failed() {
		return
	}
	if strings.HasPrefix(s.display, "-") {
		s.display = s.display[1:]
		return
	}
	s.display = "-" + s.display
}

func (s *State) applyPercent() {
	s.display = FormatNumber(displayValue(s.display) / 100)
	s.fresh = true
}

func (s *State) appendDecimalPoint() {
	if s.fresh {
		// The display holds a stale result, operand or the error literal;
		// replace it rather than extend it.
		s.display = "0."
		s.fresh = false
		return
	}
	if strings.Contains(s.display, ".") {
		return
	}
	s.display += "."
}

func (s *State) setOperator(op Operator) {
	if s.op != OpNone && !s.fresh {
		s.evaluate(false)
		if s.Failed() {
			return
		}
	}

	s.first = displayValue(s.display)
	s.hasFirst = true
	s.op = op
	s.trace = FormatNumber(s.first) + " " + op.Symbol()
	s.fresh = true
	s.repeat = false
}

func (s *State) inputDigit(d string) {
	if s.fresh || s.display == "0" {
		s.display = d
		s.fresh = false
		return
	}
	// Digits past the float64 range are dropped so the display stays finite.
	next := s.display + d
	if _, ok := parseDisplay(next); !ok {
		return
	}
	s.display = next
}

func (s *State) evaluate(repeat bool) {
	if !s.hasFirst || s.op == OpNone {
		return
	}

	second := s.second
	if !repeat || !s.hasSecond {
		v, ok := parseDisplay(s.display)
		if !ok {
			return
		}
		second = v
	}
	s.second, s.hasSecond = second, true

	var result float64
	switch s.op {
	case OpAdd:
		result = s.first + second
	case OpSubtract:
		result = s.first - second
	case OpMultiply:
		result = s.first * second
	case OpDivide:
		if second == 0 {
			s.fail()
			return
		}
		result = s.first / second
	}

	if _, ok := parseDisplay(FormatNumber(result)); !ok {
		s.fail()
		return
	}

	s.display = FormatNumber(result)
	s.trace = FormatNumber(s.first) + " " + s.op.Symbol() + " " + FormatNumber(second) + " ="
	s.first = result
	s.fresh = true
	s.repeat = true
}

// fail enters the terminal error state: operands and operator are dropped
// and the next digit starts a new number.
func (s *State) fail() {
	s.display = ErrorText
	s.trace = ""
	s.first, s.hasFirst = 0, false
	s.second, s.hasSecond = 0, false
	s.op = OpNone
	s.fresh = true
}

// Engine owns a single calculator State. It is not safe for concurrent use;
// callers serialise HandleInput and read the projections afterwards.
type Engine struct {
	state State
}

// New returns an engine in the initial state.
func New() *Engine {
	return &Engine{state: State{display: "0"}}
}

// HandleInput applies one keypad token. Unrecognised tokens are ignored.
func (e *Engine) HandleInput(token string) {
	e.state.handle(token)
}

// Display is the current value line.
func (e *Engine) Display() string { return e.state.Display() }

// OperationTrace is the pending-expression line.
func (e *Engine) OperationTrace() string { return e.state.OperationTrace() }

// State returns a copy of the engine state.
func (e *Engine) State() State { return e.state }
