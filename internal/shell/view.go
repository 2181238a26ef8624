// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

// =============================================================================
// VIEW ENUMERATION
// =============================================================================

// View identifies the major view the shell shows.
type View int

const (
	// ViewChat is the conversation view. It is the initial view.
	ViewChat View = iota
	// ViewAdmin is the admin login/dashboard view.
	ViewAdmin
)

// String returns the display name of the view.
func (v View) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// Valid reports whether v is a registered view.
func (v View) Valid() bool {
	_, ok := controlFor(v)
	return ok
}

// =============================================================================
// NAVIGATION REGISTRY
// =============================================================================

// NavControl describes one navigation control in the header.
type NavControl struct {
	View  View
	Label string
	Hint  string   // shortcut shown on the tab
	Keys  []string // key strings that activate the control
}

// Registry lists the navigation controls in display order. Adding a view
// means adding a View constant and a control here.
var Registry = []NavControl{
	{View: ViewChat, Label: "Chat", Hint: "F1", Keys: []string{"f1", "alt+1"}},
	{View: ViewAdmin, Label: "Admin", Hint: "F2", Keys: []string{"f2", "alt+2"}},
}

func controlFor(v View) (NavControl, bool) {
	for _, c := range Registry {
		if c.View == v {
			return c, true
		}
	}
	return NavControl{}, false
}

// indexOf returns the registry position of v, or -1.
func indexOf(v View) int {
	for i, c := range Registry {
		if c.View == v {
			return i
		}
	}
	return -1
}

// ViewForKey returns the view whose control is bound to key.
func ViewForKey(key string) (View, bool) {
	for _, c := range Registry {
		for _, k := range c.Keys {
			if k == key {
				return c.View, true
			}
		}
	}
	return 0, false
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Transition returns the view after activating target from current, and
// whether the active view changed. Any registered view is reachable from any
// other; unknown targets and re-selecting current leave it unchanged.
func Transition(current, target View) (View, bool) {
	if !target.Valid() || target == current {
		return current, false
	}
	return target, true
}

// Next returns the view after v in registry order, wrapping around.
func Next(v View) View {
	i := indexOf(v)
	if i < 0 {
		return Registry[0].View
	}
	return Registry[(i+1)%len(Registry)].View
}
