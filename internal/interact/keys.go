package interact

// Action is a chart or scenario command derived from input.
type Action int

const (
	ActionNone Action = iota
	ActionZoomIn
	ActionZoomOut
	ActionReset
	ActionPanLeft
	ActionPanRight
)

func (a Action) String() string {
	switch a {
	case ActionZoomIn:
		return "zoom in"
	case ActionZoomOut:
		return "zoom out"
	case ActionReset:
		return "reset"
	case ActionPanLeft:
		return "pan left"
	case ActionPanRight:
		return "pan right"
	}
	return "none"
}

// ActionForKey maps a key name to its action. Both terminal key names
// ("left") and browser-style names ("ArrowLeft") are accepted.
func ActionForKey(key string) Action {
	switch key {
	case "+", "=":
		return ActionZoomIn
	case "-":
		return ActionZoomOut
	case "0":
		return ActionReset
	case "left", "ArrowLeft":
		return ActionPanLeft
	case "right", "ArrowRight":
		return ActionPanRight
	}
	return ActionNone
}
