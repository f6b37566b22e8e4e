package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// askCityResponse is both the AskCity answer and the defensive compose
// fallback when information is needed but no city was ever resolved.
const askCityResponse = "I can look up the weather, local time, and facts for a city. Which city are you asking about?"

// analyze extracts the target city and intent signals from the user's
// question and routes the turn.
func (m *machine) analyze(ctx context.Context, st *TurnState) (Node, error) {
	cctx, cancel := m.callContext(ctx)
	defer cancel()

	raw, err := m.gateway.Analyze(cctx, m.cfg.Prompts.Analyze, st.OriginalQuestion)
	if err != nil {
		return nodeEnd, WrapModelError(err)
	}

	a := ParseAnalysis(raw)
	st.Thinking = raw
	st.TargetCity = a.City
	st.CityConfirmed = a.Confirmed
	st.NeedsExternalInfo = a.NeedsInfo

	switch {
	case st.NeedsExternalInfo && !st.CityConfirmed:
		return NodeAskCity, nil
	case st.NeedsExternalInfo:
		return NodeGatherInfo, nil
	default:
		return NodeCompose, nil
	}
}

// askCity ends the run with a clarification question. The next user message
// starts a fresh run that re-resolves the city from scratch.
func (m *machine) askCity(_ context.Context, st *TurnState) (Node, error) {
	st.Response = askCityResponse
	st.Append(ChatMessage{Role: RoleAssistant, Content: st.Response})
	return nodeEnd, nil
}

// gatherInfo asks the model which tools to call for the resolved city.
// The ToolsExecuted latch makes this a hard stop after one completed cycle,
// so a misbehaving model cannot loop the machine through tools forever.
func (m *machine) gatherInfo(ctx context.Context, st *TurnState) (Node, error) {
	if st.ToolsExecuted {
		return NodeCompose, nil
	}

	prompt := buildGatherPrompt(m.cfg.Prompts.Gather, st.TargetCity, st.lastRetryableError)

	cctx, cancel := m.callContext(ctx)
	defer cancel()
	reply, err := m.gateway.InvokeWithTools(cctx, prompt, st.Messages, m.tools.Schemas())
	if err != nil {
		return nodeEnd, WrapModelError(err)
	}

	if reply.Text != "" {
		st.Append(ChatMessage{Role: RoleAssistant, Content: reply.Text})
	}

	var cycle []ToolCall
	for _, call := range reply.ToolCalls {
		if st.recordCall(call) {
			cycle = append(cycle, call)
		}
	}
	st.cycleCalls = cycle

	if len(cycle) == 0 {
		return NodeCompose, nil
	}
	return NodeInvokeTools, nil
}

// invokeTools executes the cycle's requested calls sequentially, in request
// order, appending each raw result to the conversation for downstream context.
func (m *machine) invokeTools(ctx context.Context, st *TurnState) (Node, error) {
	st.cycleOutputs = nil
	for _, call := range st.cycleCalls {
		m.hooks.OnToolCall(ctx, st, call)

		raw, err := m.invokeOne(ctx, call)
		if err != nil {
			// Unrecoverable programming fault in a tool: abort this cycle,
			// still compose a best-effort answer.
			m.hooks.OnToolResult(ctx, st, call, "", err)
			st.ToolsExecuted = true
			return NodeCompose, nil
		}

		st.cycleOutputs = append(st.cycleOutputs, toolOutput{toolName: call.Name, raw: raw})
		st.Append(ChatMessage{Role: RoleTool, Name: call.Name, Content: raw})
		m.hooks.OnToolResult(ctx, st, call, raw, nil)
	}
	return NodeClassifyResults, nil
}

// invokeOne runs a single tool call. Ordinary failures (unknown tool, bad
// arguments, timeout) come back as error text for the classifier; only a
// genuine tool fault is returned as an error.
func (m *machine) invokeOne(ctx context.Context, call ToolCall) (string, error) {
	tool, ok := m.tools[call.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q requested (available: %s)",
			call.Name, strings.Join(m.tools.Names(), ", ")), nil
	}

	if err := tool.ValidateArgs(call.Args); err != nil {
		return fmt.Sprintf("error: %v", err), nil
	}

	cctx, cancel := m.callContext(ctx)
	defer cancel()
	raw, err := tool.Fn(cctx, call.Args)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Sprintf("error: tool %s timed out", call.Name), nil
		}
		return "", err
	}
	return raw, nil
}

// classifyResults grades this cycle's raw outputs and decides between the
// repair loop and composing. All non-retry branches set the ToolsExecuted
// latch and go straight to Compose.
func (m *machine) classifyResults(ctx context.Context, st *TurnState) (Node, error) {
	recent := make([]ToolOutcome, 0, len(st.cycleOutputs))
	for _, out := range st.cycleOutputs {
		outcome := m.classifier.Classify(out.toolName, out.raw)
		st.ToolResults = append(st.ToolResults, outcome)
		recent = append(recent, outcome)
	}
	st.cycleOutputs = nil

	var firstRetryable *ToolOutcome
	allSucceeded := true
	for i := range recent {
		if recent[i].Success {
			continue
		}
		allSucceeded = false
		if firstRetryable == nil && recent[i].ErrorKind == ErrorKindRetryable {
			firstRetryable = &recent[i]
		}
	}

	// Once the retry budget is spent, any failure is treated as
	// best-effort success rather than forcing another repair cycle.
	if st.RetryCount >= m.cfg.MaxRetries || allSucceeded || firstRetryable == nil {
		st.ToolsExecuted = true
		return NodeCompose, nil
	}

	st.RetryCount++
	st.lastRetryableError = firstRetryable.ErrorMessage
	m.hooks.OnRetry(ctx, st, st.RetryCount, firstRetryable.ErrorMessage)
	return NodeGatherInfo, nil
}

// compose builds the final answer and ends the run.
func (m *machine) compose(ctx context.Context, st *TurnState) (Node, error) {
	successes := st.SuccessfulResults()

	var response string
	switch {
	case len(successes) > 0:
		msgs := append(append([]ChatMessage(nil), st.Messages...),
			ChatMessage{Role: RoleUser, Content: composeDataMessage(successes)})
		cctx, cancel := m.callContext(ctx)
		defer cancel()
		text, err := m.gateway.Compose(cctx, m.cfg.Prompts.Compose, msgs)
		if err != nil {
			return nodeEnd, WrapModelError(err)
		}
		response = text

	case st.NeedsExternalInfo && st.TargetCity == "":
		// Analyze should have routed to AskCity; keep a safe fallback.
		response = askCityResponse

	default:
		cctx, cancel := m.callContext(ctx)
		defer cancel()
		text, err := m.gateway.Compose(cctx, m.cfg.Prompts.Compose, st.Messages)
		if err != nil {
			return nodeEnd, WrapModelError(err)
		}
		response = text
	}

	st.Response = response
	st.Append(ChatMessage{Role: RoleAssistant, Content: response})
	return nodeEnd, nil
}

// buildGatherPrompt frames the tool-enabling prompt around the target city,
// embedding the most recent retryable failure so the model can reformat its
// arguments (English name, single word, IANA timezone, country code).
func buildGatherPrompt(base, city, failureHint string) string {
	var b strings.Builder
	b.WriteString(base)
	if city != "" {
		fmt.Fprintf(&b, "\n\nThe user is asking about %s.", city)
	}
	if failureHint != "" {
		fmt.Fprintf(&b, "\n\nA previous tool call failed with:\n%s\n", failureHint)
		b.WriteString("Reformat the arguments before calling again, for example use the " +
			"English city name as a single word, append a country code (\"Tokyo,JP\"), " +
			"or an IANA timezone such as Asia/Tokyo.")
	}
	return b.String()
}

// composeDataMessage concatenates the successful outcomes into labeled blocks.
func composeDataMessage(successes []ToolOutcome) string {
	var b strings.Builder
	b.WriteString("Data gathered for this question:\n")
	for _, r := range successes {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", r.ToolName, r.Data)
	}
	b.WriteString("\nAnswer the user's question in natural language using this data. " +
		"State any unit or locale conversions (for example temperatures) explicitly.")
	return b.String()
}
