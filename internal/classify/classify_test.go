package classify

import (
	"errors"
	"testing"

	"blastbot/internal/transport"
)

func TestClassifyMatrix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		code int
		desc string
		want Kind
	}{
		{name: "blocked by user", code: 403, desc: "Forbidden: bot was blocked by the user", want: Blocked},
		{name: "blocked alt wording", code: 403, desc: "Forbidden: bot was blocked", want: Blocked},
		{name: "forbidden without blocked text", code: 403, desc: "Forbidden: bot can't initiate conversation", want: Transient},
		{name: "not found code", code: 404, desc: "Not Found", want: Invalid},
		{name: "chat not found with 400", code: 400, desc: "Bad Request: chat not found", want: Invalid},
		{name: "user not found text only", code: 0, desc: "user not found", want: Invalid},
		{name: "deactivated account", code: 403, desc: "Forbidden: user is deactivated", want: Invalid},
		{name: "peer id invalid", code: 400, desc: "Bad Request: PEER_ID_INVALID", want: Invalid},
		{name: "rate limited", code: 429, desc: "Too Many Requests: retry after 5", want: Transient},
		{name: "malformed request", code: 400, desc: "Bad Request: wrong file identifier/HTTP URL specified", want: Transient},
		{name: "transport fault", code: 0, desc: "connection reset by peer", want: Transient},
		{name: "empty description", code: 500, desc: "", want: Transient},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.code, tt.desc); got != tt.want {
				t.Fatalf("Classify(%d, %q) = %v, want %v", tt.code, tt.desc, got, tt.want)
			}
			// Deterministic: same input, same kind.
			if again := Classify(tt.code, tt.desc); again != tt.want {
				t.Fatalf("Classify not deterministic for %q", tt.desc)
			}
		})
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	se := &transport.SendError{Code: 403, Description: "Forbidden: bot was blocked by the user"}
	if got := ClassifyError(se); got != Blocked {
		t.Fatalf("ClassifyError(send error) = %v, want Blocked", got)
	}
	if got := ClassifyError(errors.New("dial tcp: i/o timeout")); got != Transient {
		t.Fatalf("ClassifyError(plain error) = %v, want Transient", got)
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()
	if Blocked.String() != "blocked" || Invalid.String() != "invalid" || Transient.String() != "transient" {
		t.Fatalf("unexpected kind strings: %s %s %s", Blocked, Invalid, Transient)
	}
}
