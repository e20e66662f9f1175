package engine

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrInvalidCommand = errors.New("invalid command")

// Command names accepted by Apply.
const (
	CmdSetTool        = "setTool"
	CmdSetColor       = "setColor"
	CmdSetStrokeWidth = "setStrokeWidth"
	CmdSetFillShape   = "setFillShape"
	CmdSetFontSize    = "setFontSize"
	CmdUndo           = "undo"
	CmdRedo           = "redo"
	CmdClear          = "clear"
	CmdCommitText     = "commitText"
	CmdCancelText     = "cancelText"
	CmdCommitSticky   = "commitSticky"
	CmdCancelSticky   = "cancelSticky"
	CmdSetView        = "setView"
)

// Command is the wire form of an engine command. Only the field matching
// Name is read.
type Command struct {
	Name string `json:"name"`

	Tool        Tool           `json:"tool,omitempty"`
	Color       string         `json:"color,omitempty"`
	StrokeWidth float64        `json:"strokeWidth,omitempty"`
	FillShape   *bool          `json:"fillShape,omitempty"`
	FontSize    float64        `json:"fontSize,omitempty"`
	Text        string         `json:"text,omitempty"`
	View        *ViewTransform `json:"view,omitempty"`
}

// CommandResult reports what a command did. Changed is false for commands
// that were no-ops, such as undo at the start of history.
type CommandResult struct {
	Changed bool   `json:"changed"`
	Status  Status `json:"status"`
}

// ParseCommand decodes a command from JSON.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	return cmd, nil
}

// Apply executes one command and returns the resulting status.
func (e *Engine) Apply(cmd Command) (CommandResult, error) {
	changed := true

	switch cmd.Name {
	case CmdSetTool:
		if _, err := ParseTool(string(cmd.Tool)); err != nil {
			return CommandResult{}, fmt.Errorf("%w: %w", ErrInvalidCommand, err)
		}
		e.SetTool(cmd.Tool)
	case CmdSetColor:
		if cmd.Color == "" {
			return CommandResult{}, fmt.Errorf("%w: color is required", ErrInvalidCommand)
		}
		e.SetColor(cmd.Color)
	case CmdSetStrokeWidth:
		if cmd.StrokeWidth <= 0 {
			return CommandResult{}, fmt.Errorf("%w: strokeWidth must be positive", ErrInvalidCommand)
		}
		e.SetStrokeWidth(cmd.StrokeWidth)
	case CmdSetFillShape:
		if cmd.FillShape == nil {
			return CommandResult{}, fmt.Errorf("%w: fillShape is required", ErrInvalidCommand)
		}
		e.SetFillShape(*cmd.FillShape)
	case CmdSetFontSize:
		if cmd.FontSize <= 0 {
			return CommandResult{}, fmt.Errorf("%w: fontSize must be positive", ErrInvalidCommand)
		}
		e.SetFontSize(cmd.FontSize)
	case CmdUndo:
		changed = e.Undo()
	case CmdRedo:
		changed = e.Redo()
	case CmdClear:
		e.Clear()
	case CmdCommitText:
		changed = e.CommitText(cmd.Text)
	case CmdCancelText:
		e.CancelText()
	case CmdCommitSticky:
		changed = e.CommitSticky(cmd.Text)
	case CmdCancelSticky:
		e.CancelSticky()
	case CmdSetView:
		if cmd.View == nil {
			return CommandResult{}, fmt.Errorf("%w: view is required", ErrInvalidCommand)
		}
		e.SetView(*cmd.View)
	default:
		return CommandResult{}, fmt.Errorf("%w: unknown command %q", ErrInvalidCommand, cmd.Name)
	}

	return CommandResult{Changed: changed, Status: e.Status()}, nil
}
