package report

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
)

// RenderTerminal renders Markdown for a terminal. An empty style picks one from
// the terminal background; width <= 0 means 80 columns.
func RenderTerminal(md []byte, style string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStylePath(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("init markdown renderer: %w", err)
	}
	return r.Render(string(md))
}

// ShowFile reads a report from disk and renders it.
func ShowFile(path, style string, width int) (string, error) {
	md, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return RenderTerminal(md, style, width)
}
