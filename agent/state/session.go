package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
)

// ConversationState is everything a session carries from one turn to the next.
// JSON keys are camelCase so a client can hand the value back verbatim.
type ConversationState struct {
	ID       string    `json:"id"`
	Messages []Message `json:"messages"`

	LastIntent *IntentClassification `json:"lastIntent,omitempty"`

	// Captured after a successful verify_customer_pin.
	CustomerEmail string `json:"customerEmail,omitempty"`
	CustomerPin   string `json:"customerPin,omitempty"`
	CustomerID    string `json:"customerId,omitempty"`

	// Order draft held until the customer is verified.
	PendingCreateOrder *mcpx.CreateOrderArgs `json:"pendingCreateOrder,omitempty"`

	// Original order request stashed while the turn detours into verification.
	PendingOrderRequestMessage string        `json:"pendingOrderRequestMessage,omitempty"`
	PendingOrderToolHint       mcpx.ToolName `json:"pendingOrderToolHint,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// AgentKind is the routing target chosen by intent classification.
type AgentKind string

const (
	AgentProduct    AgentKind = "product"
	AgentOrder      AgentKind = "order"
	AgentOutOfScope AgentKind = "out_of_scope"
)

func (k AgentKind) Valid() bool {
	switch k {
	case AgentProduct, AgentOrder, AgentOutOfScope:
		return true
	default:
		return false
	}
}

// IntentClassification is the classifier verdict for one utterance.
// Empty ToolHint and MissingInformation mean "none".
type IntentClassification struct {
	TargetAgent        AgentKind     `json:"targetAgent"`
	ToolHint           mcpx.ToolName `json:"toolHint,omitempty"`
	MissingInformation string        `json:"missingInformation,omitempty"`
	Reason             string        `json:"reason,omitempty"`
}

var (
	ErrNilConversationState = errors.New("conversation state is nil")
	ErrInvalidSession       = errors.New("session id is empty")
)

// NewConversationState starts a session with a fresh random id.
func NewConversationState(now time.Time) *ConversationState {
	return &ConversationState{
		ID:        uuid.NewString(),
		Messages:  make([]Message, 0, 8),
		UpdatedAt: now.UTC(),
	}
}

func (s *ConversationState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *ConversationState) AppendMessage(role Role, content string) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
}

// Clone returns a deep copy so a turn never writes through to the caller's value.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	if s.Messages != nil {
		out.Messages = make([]Message, len(s.Messages), len(s.Messages)+2)
		copy(out.Messages, s.Messages)
	}
	if s.LastIntent != nil {
		intent := *s.LastIntent
		out.LastIntent = &intent
	}
	out.PendingCreateOrder = s.PendingCreateOrder.Clone()
	return &out
}

// ClearPendingOrderRequest drops the stashed order request and its hint.
func (s *ConversationState) ClearPendingOrderRequest() {
	s.PendingOrderRequestMessage = ""
	s.PendingOrderToolHint = ""
}

func (s *ConversationState) Validate() error {
	if s == nil {
		return ErrNilConversationState
	}
	if s.ID == "" {
		return ErrInvalidSession
	}
	if s.PendingCreateOrder != nil {
		for i, item := range s.PendingCreateOrder.Items {
			if item.SKU == "" || item.Quantity <= 0 || item.UnitPrice == "" {
				return fmt.Errorf("pending order item %d is invalid", i)
			}
		}
	}
	return nil
}
