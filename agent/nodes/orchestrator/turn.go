// Package orchestratornode holds the node functions of the turn graph.
// Every node takes and returns *GraphState; a node that settles the reply
// calls finish and the graph jumps straight to finalize_reply.
package orchestratornode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

var ErrInvalidMessage = errors.New("message is empty")

// IntentClassifier maps an utterance to a routing verdict. Bad model text
// must degrade to out_of_scope; only a hard model failure returns an error.
type IntentClassifier interface {
	Classify(ctx context.Context, utterance string) (statex.IntentClassification, error)
}

// AnswerComposer turns raw tool output into the user-facing reply.
type AnswerComposer interface {
	Compose(ctx context.Context, userRequest, toolResults string) (string, error)
}

type GraphInput struct {
	Text  string
	State *statex.ConversationState
	Meta  contractx.TurnMeta
}

type GraphOutput struct {
	Reply string
	State *statex.ConversationState
}

// ExecutedCall pairs a planned call with the arguments actually sent and the
// backend response.
type ExecutedCall struct {
	Call     contractx.ToolCallPlan
	Response mcpx.CallToolResponse
}

type GraphState struct {
	Text string
	Meta contractx.TurnMeta
	Now  time.Time

	State  *statex.ConversationState
	Intent statex.IntentClassification
	Plan   *contractx.ToolPlan
	Calls  []ExecutedCall

	// AnswerSubject is the request the final answer addresses. It differs
	// from Text when a stashed order request resumes after verification.
	AnswerSubject string

	Reply    string
	Finished bool
}

func (s *GraphState) finish(reply string) *GraphState {
	s.Reply = reply
	s.Finished = true
	return s
}

func checkState(in *GraphState) error {
	if in == nil || in.State == nil {
		return fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	return nil
}

// PrepareTurn rejects an empty utterance and works on a private copy of the
// caller's state.
func PrepareTurn(in GraphInput, now time.Time) (*GraphState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	st := in.State.Clone()
	if st == nil {
		st = statex.NewConversationState(now)
	}
	st.AppendMessage(statex.RoleUser, text)

	return &GraphState{
		Text:          text,
		Meta:          in.Meta,
		Now:           now.UTC(),
		State:         st,
		AnswerSubject: text,
	}, nil
}

// FinalizeReply records the assistant turn and hands back the new state.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if err := checkState(in); err != nil {
		return GraphOutput{}, err
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: reply is empty", contractx.ErrModelInvoke)
	}

	in.State.AppendMessage(statex.RoleAssistant, reply)
	in.State.Touch(in.Now)
	return GraphOutput{Reply: reply, State: in.State}, nil
}
