package conversation

import (
	"time"

	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/message"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/domain/entities/pausesetting"
)

type DecisionKind int

const (
	DecisionNoChange DecisionKind = iota
	DecisionStartAutoPause
)

// Decision is the outcome of evaluating an outbound message against the
// conversation's pause state. Until is only meaningful for
// DecisionStartAutoPause.
type Decision struct {
	Kind  DecisionKind
	Until time.Time
}

func NoChange() Decision {
	return Decision{Kind: DecisionNoChange}
}

func StartAutoPause(until time.Time) Decision {
	return Decision{Kind: DecisionStartAutoPause, Until: until}
}

// DecidePause evaluates whether sending a message should put the AI agent on
// an automatic pause. It is a pure function of its inputs:
//
//   - a manually paused conversation is never touched, the pause belongs to
//     a human and only a human lifts it;
//   - an already inactive agent is left alone, the existing pause window is
//     never extended or shortened;
//   - a professional sending from any device starts an automatic pause for
//     the clinic's configured window;
//   - everything else (patient, agent, system senders) changes nothing.
//
// A non-positive configured window still produces a pause, with until == now,
// which the next reactivation sweep clears immediately.
func DecidePause(conv Conversation, sender message.SenderType, setting pausesetting.Setting, now time.Time) Decision {
	if conv.Pause().IsManual() {
		return NoChange()
	}
	if !conv.AgentActive() {
		return NoChange()
	}
	if sender != message.SenderProfessional {
		return NoChange()
	}
	return StartAutoPause(now.Add(setting.Window()))
}
