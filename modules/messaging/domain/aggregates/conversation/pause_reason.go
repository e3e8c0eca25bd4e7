package conversation

import "time"

type PauseKind uint8

const (
	PauseKindNone PauseKind = iota
	PauseKindManual
	PauseKindAuto
)

func (k PauseKind) String() string {
	switch k {
	case PauseKindManual:
		return "manual"
	case PauseKindAuto:
		return "auto"
	default:
		return "none"
	}
}

// PauseReason is the tagged pause state of a conversation. A manual pause
// never carries an expiry; an automatic pause always does. The zero value
// means the agent is not paused.
type PauseReason struct {
	kind  PauseKind
	until time.Time
}

func NoPause() PauseReason {
	return PauseReason{kind: PauseKindNone}
}

func ManualPause() PauseReason {
	return PauseReason{kind: PauseKindManual}
}

func AutoPauseUntil(until time.Time) PauseReason {
	return PauseReason{kind: PauseKindAuto, until: until}
}

func (r PauseReason) Kind() PauseKind { return r.kind }
func (r PauseReason) IsNone() bool    { return r.kind == PauseKindNone }
func (r PauseReason) IsManual() bool  { return r.kind == PauseKindManual }
func (r PauseReason) IsAuto() bool    { return r.kind == PauseKindAuto }

// Until returns the expiry of an automatic pause. The second return value
// is false for every other kind.
func (r PauseReason) Until() (time.Time, bool) {
	if r.kind != PauseKindAuto {
		return time.Time{}, false
	}
	return r.until, true
}

func (r PauseReason) Expired(now time.Time) bool {
	until, ok := r.Until()
	if !ok {
		return false
	}
	return !until.After(now)
}
