// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import "testing"

func TestViewString(t *testing.T) {
	tests := []struct {
		view View
		want string
	}{
		{ViewChat, "chat"},
		{ViewAdmin, "admin"},
		{View(7), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.view.String(); got != tc.want {
			t.Errorf("View(%d).String() = %q, want %q", tc.view, got, tc.want)
		}
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		name        string
		from, to    View
		want        View
		wantChanged bool
	}{
		{"chat to admin", ViewChat, ViewAdmin, ViewAdmin, true},
		{"admin to chat", ViewAdmin, ViewChat, ViewChat, true},
		{"chat to chat", ViewChat, ViewChat, ViewChat, false},
		{"admin to admin", ViewAdmin, ViewAdmin, ViewAdmin, false},
		{"unknown from chat", ViewChat, View(-1), ViewChat, false},
		{"unknown from admin", ViewAdmin, View(5), ViewAdmin, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, changed := Transition(tc.from, tc.to)
			if got != tc.want || changed != tc.wantChanged {
				t.Errorf("Transition(%v, %v) = %v, %v; want %v, %v",
					tc.from, tc.to, got, changed, tc.want, tc.wantChanged)
			}
		})
	}
}

func TestNext(t *testing.T) {
	if got := Next(ViewChat); got != ViewAdmin {
		t.Errorf("Next(chat) = %v, want admin", got)
	}
	if got := Next(ViewAdmin); got != ViewChat {
		t.Errorf("Next(admin) = %v, want chat", got)
	}
	if got := Next(View(9)); got != Registry[0].View {
		t.Errorf("Next(unknown) = %v, want first registered view", got)
	}
}

func TestViewForKey(t *testing.T) {
	tests := []struct {
		key    string
		want   View
		wantOK bool
	}{
		{"f1", ViewChat, true},
		{"alt+1", ViewChat, true},
		{"f2", ViewAdmin, true},
		{"alt+2", ViewAdmin, true},
		{"f3", 0, false},
	}
	for _, tc := range tests {
		got, ok := ViewForKey(tc.key)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("ViewForKey(%q) = %v, %v; want %v, %v", tc.key, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestRegistryCoversEveryView(t *testing.T) {
	for _, v := range []View{ViewChat, ViewAdmin} {
		if !v.Valid() {
			t.Errorf("%v has no navigation control", v)
		}
	}
	if NewState().ActiveView != ViewChat || NewState().AdminAuthenticated {
		t.Error("NewState() must start in chat, unauthenticated")
	}
}
