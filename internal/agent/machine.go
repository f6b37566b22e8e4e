package agent

import (
	"context"
	"fmt"
)

// nodeFunc executes one node and names the next. Returning nodeEnd
// terminates the run.
type nodeFunc func(ctx context.Context, st *TurnState) (Node, error)

// machine is the orchestration state machine: a mapping from node name to
// handler, driven by a plain loop with a step counter. Handlers own all
// routing decisions; the loop owns termination.
type machine struct {
	gateway    ModelGateway
	tools      ToolRegistry
	classifier *Classifier
	cfg        Config
	hooks      Hooks
	handlers   map[Node]nodeFunc
}

func newMachine(gateway ModelGateway, tools ToolRegistry, classifier *Classifier, cfg Config, hooks Hooks) *machine {
	m := &machine{
		gateway:    gateway,
		tools:      tools,
		classifier: classifier,
		cfg:        cfg,
		hooks:      hooks,
	}
	m.handlers = map[Node]nodeFunc{
		NodeAnalyze:         m.analyze,
		NodeAskCity:         m.askCity,
		NodeGatherInfo:      m.gatherInfo,
		NodeInvokeTools:     m.invokeTools,
		NodeClassifyResults: m.classifyResults,
		NodeCompose:         m.compose,
	}
	return m
}

// run drives the state machine from Analyze to a terminal node.
// The step budget guarantees termination even under adversarial model output.
func (m *machine) run(ctx context.Context, st *TurnState) error {
	node := NodeAnalyze
	for node != nodeEnd {
		select {
		case <-ctx.Done():
			return fmt.Errorf("turn cancelled: %w", ctx.Err())
		default:
		}

		if st.Steps >= m.cfg.StepBudget {
			return &StepBudgetError{Steps: st.Steps, Node: node}
		}
		st.Steps++

		handler, ok := m.handlers[node]
		if !ok {
			return fmt.Errorf("no handler for node %q", node)
		}

		m.hooks.OnNodeStart(ctx, st, node)
		next, err := handler(ctx, st)
		if err != nil {
			return err
		}
		m.hooks.OnNodeDone(ctx, st, node, next)
		node = next
	}
	m.hooks.OnDone(ctx, st)
	return nil
}

// callContext bounds one outbound gateway or tool call.
func (m *machine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.cfg.CallTimeout)
}
