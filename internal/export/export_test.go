// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jeranaias/memchat-tui/internal/model"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation(10)
	conv.AddUserMessage("my name is Ada")
	conv.AddAssistantMessage("Nice to meet you, **Ada**.")
	conv.AddSystemMessage("Reply cancelled.")
	return conv
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
}

func TestMarkdownExporter(t *testing.T) {
	opts := &Options{AssistantName: "Mneme_Bot", Now: fixedNow}
	data, err := NewMarkdownExporter(opts).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"generator: memchat",
		`title: "my name is Ada"`,
		"messages: 3",
		"exported: 2025-03-04T05:06:07Z",
		"### You\n\nmy name is Ada",
		"### Mneme\\_Bot\n\nNice to meet you, **Ada**.",
		"> Reply cancelled.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<sub>") {
		t.Error("timestamps rendered although IncludeTimestamps is false")
	}
}

func TestMarkdownExporter_Timestamps(t *testing.T) {
	data, err := NewMarkdownExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(string(data), "### Assistant <sub>") {
		t.Errorf("default options should label the assistant and include times:\n%s", data)
	}
}

func TestJSONExporter(t *testing.T) {
	conv := sampleConversation()
	data, err := NewJSONExporter().Export(conv)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var decoded model.Conversation
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.ID != conv.ID || len(decoded.Messages) != 3 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestExport_EmptyConversation(t *testing.T) {
	for _, exp := range []Exporter{NewMarkdownExporter(nil), NewJSONExporter()} {
		if _, err := exp.Export(model.NewConversation(0)); !errors.Is(err, ErrEmpty) {
			t.Errorf("%T: error = %v, want ErrEmpty", exp, err)
		}
		if _, err := exp.Export(nil); !errors.Is(err, ErrEmpty) {
			t.Errorf("%T nil: error = %v, want ErrEmpty", exp, err)
		}
	}
}

func TestExport_NoticesOnlyIsEmpty(t *testing.T) {
	conv := model.NewConversation(0)
	conv.AddSystemMessage("Nothing to export yet.")
	for _, exp := range []Exporter{NewMarkdownExporter(nil), NewJSONExporter()} {
		if _, err := exp.Export(conv); !errors.Is(err, ErrEmpty) {
			t.Errorf("%T: error = %v, want ErrEmpty", exp, err)
		}
	}
}

func TestToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	opts := &Options{OutputDir: dir, Now: fixedNow}

	path, err := Markdown(sampleConversation(), opts)
	if err != nil {
		t.Fatalf("Markdown() error = %v", err)
	}
	if filepath.Base(path) != "memchat_20250304_050607.md" {
		t.Errorf("file name = %s", filepath.Base(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	jsonPath, err := JSON(sampleConversation(), opts)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	if filepath.Ext(jsonPath) != ".json" {
		t.Errorf("json path = %s", jsonPath)
	}
}
