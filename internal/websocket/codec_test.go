package websocket

import (
	"errors"
	"testing"

	apperrors "github.com/pdtechteam/quiz-generator/internal/pkg/errors"
	"github.com/pdtechteam/quiz-generator/internal/session"
)

type nopClient struct{}

func (nopClient) Send(session.Event) {}
func (nopClient) RemoteClose()       {}

func TestDecodeCommand_Valid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"join", `{"type":"join","player_name":"alice"}`, session.CmdJoin},
		{"become_host", `{"type":"become_host"}`, session.CmdBecomeHost},
		{"start_game", `{"type":"start_game"}`, session.CmdStartGame},
		{"answer", `{"type":"answer","question_uuid":"abc","choice_id":3,"time_taken":1.5}`, session.CmdAnswer},
		{"reaction", `{"type":"reaction","emoji":"🔥"}`, session.CmdReaction},
		{"ping", `{"type":"ping"}`, session.CmdPing},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := decodeCommand([]byte(tc.raw), nopClient{})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Type != tc.want {
				t.Fatalf("got type %q, want %q", cmd.Type, tc.want)
			}
		})
	}
}

func TestDecodeCommand_BadFrame(t *testing.T) {
	_, err := decodeCommand([]byte(`not json`), nopClient{})
	if !errors.Is(err, apperrors.ErrBadFrame) {
		t.Fatalf("expected ErrBadFrame, got %v", err)
	}
}

func TestDecodeCommand_MissingType(t *testing.T) {
	_, err := decodeCommand([]byte(`{"player_name":"alice"}`), nopClient{})
	if !errors.Is(err, apperrors.ErrBadFrame) {
		t.Fatalf("expected ErrBadFrame, got %v", err)
	}
}

func TestDecodeCommand_UnknownType(t *testing.T) {
	_, err := decodeCommand([]byte(`{"type":"teleport"}`), nopClient{})
	if !errors.Is(err, apperrors.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestDecodeCommand_JoinMissingPlayerName(t *testing.T) {
	_, err := decodeCommand([]byte(`{"type":"join"}`), nopClient{})
	if !errors.Is(err, apperrors.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestDecodeCommand_AnswerMissingFields(t *testing.T) {
	_, err := decodeCommand([]byte(`{"type":"answer","question_uuid":"abc"}`), nopClient{})
	if !errors.Is(err, apperrors.ErrMissingField) {
		t.Fatalf("expected ErrMissingField for missing choice_id, got %v", err)
	}

	_, err = decodeCommand([]byte(`{"type":"answer","choice_id":2}`), nopClient{})
	if !errors.Is(err, apperrors.ErrMissingField) {
		t.Fatalf("expected ErrMissingField for missing question_uuid, got %v", err)
	}
}

func TestDecodeCommand_ReactionMissingEmoji(t *testing.T) {
	_, err := decodeCommand([]byte(`{"type":"reaction"}`), nopClient{})
	if !errors.Is(err, apperrors.ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}
