package keypad

import "keypad-calculator/internal/calculator"

// Snapshot is the JSON view of a calculator's two display lines.
type Snapshot struct {
	SessionID       string `json:"session_id,omitempty"`
	Display         string `json:"display"`
	OperationTrace  string `json:"operation_trace"`
	PendingOperator string `json:"pending_operator,omitempty"` // "add", "subtract", "multiply", "divide"
	Error           bool   `json:"error"`
}

func snapshotOf(id string, st calculator.State) Snapshot {
	s := Snapshot{
		SessionID:      id,
		Display:        st.Display(),
		OperationTrace: st.OperationTrace(),
		Error:          st.Failed(),
	}
	if op := st.Pending(); op != calculator.OpNone {
		s.PendingOperator = op.String()
	}
	return s
}

// InputRequest is the JSON body for POST /calculator/sessions/{id}/input.
// Token and Tokens may be combined; Token is pressed first.
type InputRequest struct {
	Token  string   `json:"token"`
	Tokens []string `json:"tokens"`
}

func (r InputRequest) all() []string {
	if r.Token == "" {
		return r.Tokens
	}
	return append([]string{r.Token}, r.Tokens...)
}

// InputResponse is the session snapshot after the tokens were applied.
type InputResponse struct {
	Snapshot
	Ignored int `json:"ignored"` // unrecognised tokens in the request
}

// ReplayRequest is the JSON body for POST /calculator/replay.
type ReplayRequest struct {
	Tokens []string `json:"tokens"`
}

// ReplayStep records the displays after one token.
type ReplayStep struct {
	Token          string `json:"token"`
	Display        string `json:"display"`
	OperationTrace string `json:"operation_trace"`
	Ignored        bool   `json:"ignored,omitempty"`
}

// ReplayResponse is the JSON response for POST /calculator/replay.
type ReplayResponse struct {
	Steps          []ReplayStep `json:"steps"`
	Display        string       `json:"display"`
	OperationTrace string       `json:"operation_trace"`
	Error          bool         `json:"error"`
	Ignored        int          `json:"ignored"`
}
