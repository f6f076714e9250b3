// Package websocket is Component H: the live channel. It decodes inbound
// frames into session.Command values, dispatches them to the hub, and
// relays outbound session.Event values back down the wire.
package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/pdtechteam/quiz-generator/internal/pkg/errors"
	"github.com/pdtechteam/quiz-generator/internal/session"
)

// rawFrame is the wire shape of every inbound message (spec.md §6): a
// type tag plus whichever fields that type requires.
type rawFrame struct {
	Type         string  `json:"type"`
	PlayerName   string  `json:"player_name"`
	QuestionUUID string  `json:"question_uuid"`
	ChoiceID     uint    `json:"choice_id"`
	TimeTaken    float64 `json:"time_taken"`
	Emoji        string  `json:"emoji"`
}

var knownTypes = map[string]bool{
	session.CmdJoin:         true,
	session.CmdBecomeHost:   true,
	session.CmdStartGame:    true,
	session.CmdPauseGame:    true,
	session.CmdResumeGame:   true,
	session.CmdSkipQuestion: true,
	session.CmdEndGame:      true,
	session.CmdNextQuestion: true,
	session.CmdAnswer:       true,
	session.CmdPing:         true,
	session.CmdReaction:     true,
}

// decodeCommand parses one inbound frame into a session.Command bound to
// client. Returns errors.ErrBadFrame, errors.ErrUnknownType or
// errors.ErrMissingField on malformed input; the caller replies on the
// sender's channel and otherwise ignores the frame.
func decodeCommand(raw []byte, client session.ClientHandle) (session.Command, error) {
	var frame rawFrame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Type == "" {
		return session.Command{}, fmt.Errorf("%w: %v", errors.ErrBadFrame, err)
	}
	if !knownTypes[frame.Type] {
		return session.Command{}, errors.ErrUnknownType
	}

	cmd := session.Command{
		Type:         frame.Type,
		Client:       client,
		PlayerName:   frame.PlayerName,
		QuestionUUID: frame.QuestionUUID,
		ChoiceID:     frame.ChoiceID,
		TimeTaken:    frame.TimeTaken,
		Emoji:        frame.Emoji,
	}

	switch frame.Type {
	case session.CmdJoin:
		if frame.PlayerName == "" {
			return session.Command{}, errors.ErrMissingField
		}
	case session.CmdAnswer:
		if frame.QuestionUUID == "" || frame.ChoiceID == 0 {
			return session.Command{}, errors.ErrMissingField
		}
	case session.CmdReaction:
		if frame.Emoji == "" {
			return session.Command{}, errors.ErrMissingField
		}
	}

	return cmd, nil
}
