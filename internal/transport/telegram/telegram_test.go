package telegram

import (
	"errors"
	"testing"

	tele "gopkg.in/telebot.v4"

	"blastbot/internal/transport"
)

func TestWrapTeleError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		in       error
		wantCode int
		wantDesc string
	}{
		{
			name:     "api error",
			in:       &tele.Error{Code: 403, Description: "Forbidden: bot was blocked by the user"},
			wantCode: 403,
			wantDesc: "Forbidden: bot was blocked by the user",
		},
		{
			name:     "flood error",
			in:       tele.FloodError{RetryAfter: 5},
			wantCode: 429,
			wantDesc: "Too Many Requests: retry after 5",
		},
		{
			name:     "opaque transport fault",
			in:       errors.New("dial tcp: i/o timeout"),
			wantCode: 0,
			wantDesc: "dial tcp: i/o timeout",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := wrapTeleError(tt.in)
			var se *transport.SendError
			if !errors.As(err, &se) {
				t.Fatalf("wrapTeleError(%v) = %T, want *transport.SendError", tt.in, err)
			}
			if se.Code != tt.wantCode || se.Description != tt.wantDesc {
				t.Fatalf("got (%d, %q), want (%d, %q)", se.Code, se.Description, tt.wantCode, tt.wantDesc)
			}
		})
	}
}
