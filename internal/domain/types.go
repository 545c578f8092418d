package domain

// Action identifies one fleet-wide operation. The string values appear in
// log entries and must stay stable.
type Action string

const (
	ActionLoad     Action = "LOAD"
	ActionLogin    Action = "LOGIN"
	ActionLogout   Action = "LOGOUT"
	ActionFollow   Action = "FOLLOW"
	ActionUnfollow Action = "UNFOLLOW"
	ActionLike     Action = "LIKE"
	ActionUnlike   Action = "UNLIKE"
	ActionComment  Action = "COMMENT"
	ActionSave     Action = "SAVE"
	ActionUnsave   Action = "UNSAVE"
	ActionResolve  Action = "RESOLVE"
	ActionVerify   Action = "VERIFY"
)

// TargetsUser reports whether the action references a user by username
// rather than a piece of content by URL.
func (a Action) TargetsUser() bool {
	return a == ActionFollow || a == ActionUnfollow
}

// Toggle reports whether the action flips an idempotent per-account state
// that can meaningfully be pre-checked before the mutating call.
func (a Action) Toggle() bool {
	switch a {
	case ActionFollow, ActionUnfollow, ActionLike, ActionUnlike, ActionSave, ActionUnsave:
		return true
	}
	return false
}

type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
	SeveritySuccess Severity = "SUCCESS"
)

// Account is one managed account as configured at startup. Immutable for
// the process lifetime.
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginOutcome is the per-account result of a fleet login sequence.
type LoginOutcome struct {
	Username string `json:"username"`
	Status   string `json:"status"` // "success" or "error"
	Message  string `json:"message"`
}

// AccountStatus is one row of the read-only fleet status view.
type AccountStatus struct {
	Username string `json:"username"`
	Live     bool   `json:"live"`
}

// Verification is the advisory outcome of a post-condition check. It is
// logged but never changes an action's success or failure.
type Verification string

const (
	VerificationConfirmed   Verification = "confirmed"
	VerificationUnconfirmed Verification = "unconfirmed"
	VerificationUnavailable Verification = "unavailable"
)
