// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a chat transcript to a file.
package export

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/jeranaias/memchat-tui/internal/model"
	"github.com/jeranaias/memchat-tui/internal/util"
)

// ErrEmpty is returned when there is nothing to export: no messages, or only
// system notices.
var ErrEmpty = errors.New("export: conversation has no messages")

// Exporter converts a conversation to one file format.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the file extension, including the dot.
	FileExtension() string
}

// Options configures export behavior.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeTimestamps adds per-message times.
	IncludeTimestamps bool

	// AssistantName labels assistant messages. Default: "Assistant".
	AssistantName string

	// Now stamps the export. Default: time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Options) assistantName() string {
	if o.AssistantName != "" {
		return o.AssistantName
	}
	return model.RoleAssistant.DisplayName()
}

// hasContent reports whether conv holds anything beyond system notices.
func hasContent(conv *model.Conversation) bool {
	return conv != nil && len(conv.History()) > 0
}

// ToFile exports conv with exporter and returns the written path.
// Transcripts may contain personal details, so files are written 0600.
func ToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("memchat_%s%s", opts.now().Format("20060102_150405"), exporter.FileExtension())
	path := filepath.Join(opts.OutputDir, filename)
	if err := util.AtomicWriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return path, nil
}

// Markdown exports conv to a Markdown file.
func Markdown(conv *model.Conversation, opts *Options) (string, error) {
	return ToFile(conv, NewMarkdownExporter(opts), opts)
}

// JSON exports conv to a JSON file.
func JSON(conv *model.Conversation, opts *Options) (string, error) {
	return ToFile(conv, NewJSONExporter(), opts)
}
