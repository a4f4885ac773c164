// Package classify maps structured provider send errors onto the fixed set
// of delivery outcome kinds. The provider is inconsistent about whether a
// dead recipient surfaces as a status code or as description text, so the
// rule table honors both signals.
package classify

import (
	"errors"
	"strings"

	"blastbot/internal/transport"
)

type Kind int

const (
	Blocked Kind = iota
	Invalid
	Transient
)

func (k Kind) String() string {
	switch k {
	case Blocked:
		return "blocked"
	case Invalid:
		return "invalid"
	default:
		return "transient"
	}
}

// rule matches when codes is empty or contains the status code, AND the
// lowercase description contains the substring (empty substring matches any).
type rule struct {
	codes  []int
	substr string
	kind   Kind
}

// Checked in order; first match wins. Transient is the fallthrough and
// needs no rule.
var rules = []rule{
	// Recipient blocked the sending bot.
	{codes: []int{403}, substr: "blocked by the user", kind: Blocked},
	{codes: []int{403}, substr: "bot was blocked", kind: Blocked},

	// Recipient no longer resolves. Code-based and text-based signals are
	// both honored.
	{codes: []int{404}, kind: Invalid},
	{substr: "chat not found", kind: Invalid},
	{substr: "user not found", kind: Invalid},
	{substr: "user is deactivated", kind: Invalid},
	{substr: "peer_id_invalid", kind: Invalid},
}

// Classify is pure and total: every (code, description) pair maps to
// exactly one kind.
func Classify(code int, description string) Kind {
	desc := strings.ToLower(description)
	for _, r := range rules {
		if len(r.codes) > 0 && !containsCode(r.codes, code) {
			continue
		}
		if r.substr != "" && !strings.Contains(desc, r.substr) {
			continue
		}
		return r.kind
	}
	return Transient
}

// ClassifyError unwraps a transport.SendError if present; anything else
// (context errors, reader faults) is transient by definition.
func ClassifyError(err error) Kind {
	var se *transport.SendError
	if errors.As(err, &se) {
		return Classify(se.Code, se.Description)
	}
	return Transient
}

func containsCode(codes []int, code int) bool {
	for _, c := range codes {
		if c == code {
			return true
		}
	}
	return false
}
