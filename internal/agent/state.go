package agent

// Node names a step of the orchestration state machine.
type Node string

const (
	NodeAnalyze         Node = "analyze"
	NodeAskCity         Node = "ask_city"
	NodeGatherInfo      Node = "gather_info"
	NodeInvokeTools     Node = "invoke_tools"
	NodeClassifyResults Node = "classify_results"
	NodeCompose         Node = "compose"

	// nodeEnd terminates the run loop.
	nodeEnd Node = ""
)

const (
	// DefaultMaxRetries bounds the repair loop for retryable tool failures.
	DefaultMaxRetries = 2
	// DefaultStepBudget is a hard cap on total node executions per turn.
	// Guards termination even under adversarial model output.
	DefaultStepBudget = 25
)

// FunctionCall records one requested tool invocation.
type FunctionCall struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
}

// toolOutput is a raw tool result from the current invocation cycle,
// held until ClassifyResults turns it into a ToolOutcome.
type toolOutput struct {
	toolName string
	raw      string
}

// TurnState is the mutable state of exactly one orchestration run.
// It is created fresh per turn, threaded through every node, and discarded
// after the terminal node produces the response. Never shared across runs.
type TurnState struct {
	Messages         []ChatMessage // Conversation order, append-only during a run
	OriginalQuestion string        // The triggering user utterance, immutable once set

	TargetCity        string // Empty until resolved
	CityConfirmed     bool   // True iff analysis was certain enough to proceed
	NeedsExternalInfo bool   // True iff the question requires tool-sourced data
	ToolsExecuted     bool   // Latch: once true, no further tool cycle is entered
	RetryCount        int    // Bounded by the retry cap

	FunctionCalls []FunctionCall // What was requested, deduped by (name, arguments)
	ToolResults   []ToolOutcome  // What came back, in execution order

	Thinking string // Raw analysis text from the analyze node
	Response string // Final answer, set by a terminal node
	Steps    int    // Total node executions this run

	lastRetryableError string       // Most recent retryable failure text, steers reformatting
	cycleCalls         []ToolCall   // Calls issued in the current gather cycle
	cycleOutputs       []toolOutput // Raw outputs of the current cycle
	seenCalls          map[string]bool
}

// NewTurnState builds the initial state for one turn from the user message
// and the caller-truncated recent history.
func NewTurnState(message string, history []ChatMessage) *TurnState {
	st := &TurnState{
		OriginalQuestion: message,
		Messages:         make([]ChatMessage, 0, len(history)+1),
		seenCalls:        make(map[string]bool),
	}
	st.Messages = append(st.Messages, history...)
	st.Append(ChatMessage{Role: RoleUser, Content: message})
	return st
}

// Append adds a message to the turn's conversation log.
func (s *TurnState) Append(msg ChatMessage) { s.Messages = append(s.Messages, msg) }

// recordCall appends a requested call to FunctionCalls unless the same
// (name, arguments) pair was already requested this run. Returns true if the
// call is new.
func (s *TurnState) recordCall(c ToolCall) bool {
	if s.seenCalls == nil {
		s.seenCalls = make(map[string]bool)
	}
	key := c.Key()
	if s.seenCalls[key] {
		return false
	}
	s.seenCalls[key] = true
	s.FunctionCalls = append(s.FunctionCalls, FunctionCall{Tool: c.Name, Parameters: c.Args})
	return true
}

// SuccessfulResults returns the tool outcomes that carried data.
func (s *TurnState) SuccessfulResults() []ToolOutcome {
	var out []ToolOutcome
	for _, r := range s.ToolResults {
		if r.Success {
			out = append(out, r)
		}
	}
	return out
}
