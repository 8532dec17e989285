package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// MessageType selects the colour and icon of a message box
type MessageType int

const (
	InfoMessage MessageType = iota
	SuccessMessage
	WarningMessage
	ErrorMessage
)

var (
	infoColor    = lipgloss.Color("86")
	successColor = lipgloss.Color("42")
	warningColor = lipgloss.Color("178")
	errorColor   = lipgloss.Color("196")
	mutedColor   = lipgloss.Color("245")
)

// Box is a builder for bordered message boxes used for run summaries and plans
type Box struct {
	messageType MessageType
	title       string
	lines       []boxLine
	keyWidth    int
	maxWidth    int
}

type boxLine struct {
	key  string
	text string
}

// NewBox creates a message box that fits the current terminal
func NewBox(messageType MessageType, title string) *Box {
	return &Box{
		messageType: messageType,
		title:       title,
		maxWidth:    TerminalWidth() - 4,
	}
}

// WithMaxWidth overrides the width derived from the terminal
func (b *Box) WithMaxWidth(width int) *Box {
	b.maxWidth = width
	return b
}

// AddLine adds a line of text
func (b *Box) AddLine(text string) *Box {
	for _, line := range strings.Split(text, "\n") {
		b.lines = append(b.lines, boxLine{text: line})
	}
	return b
}

// AddBullet adds a bulleted line
func (b *Box) AddBullet(text string) *Box {
	b.lines = append(b.lines, boxLine{text: "• " + text})
	return b
}

// AddKeyValue adds an aligned "key: value" line. Keys added before Render
// share one column width.
func (b *Box) AddKeyValue(key, value string) *Box {
	if w := lipgloss.Width(key); w > b.keyWidth {
		b.keyWidth = w
	}
	b.lines = append(b.lines, boxLine{key: key, text: value})
	return b
}

// Render returns the box as a string. Content wider than the box is
// wrapped; key/value lines wrap with a hanging indent under the value column.
func (b *Box) Render() string {
	color, icon := b.palette()

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(color)
	keyStyle := lipgloss.NewStyle().Foreground(mutedColor)

	// border and padding take two columns on each side
	contentWidth := 0
	if b.maxWidth > 4 {
		contentWidth = b.maxWidth - 4
	}
	valueWidth := contentWidth - (b.keyWidth + 2)

	rendered := []string{titleStyle.Render(icon + " " + b.title)}
	for _, line := range b.lines {
		if line.key == "" {
			rendered = append(rendered, line.text)
			continue
		}
		key := keyStyle.Render(fmt.Sprintf("%-*s", b.keyWidth+1, line.key+":")) + " "
		value := line.text
		if contentWidth > 0 && valueWidth > 0 && lipgloss.Width(value) > valueWidth {
			value = lipgloss.NewStyle().Width(valueWidth).Render(value)
		}
		rendered = append(rendered, lipgloss.JoinHorizontal(lipgloss.Top, key, value))
	}
	content := strings.Join(rendered, "\n")

	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1)
	if contentWidth > 0 && lipgloss.Width(content) > contentWidth {
		style = style.Width(contentWidth + 2)
	}

	return style.Render(content)
}

func (b *Box) palette() (lipgloss.Color, string) {
	switch b.messageType {
	case SuccessMessage:
		return successColor, "✓"
	case WarningMessage:
		return warningColor, "⚠"
	case ErrorMessage:
		return errorColor, "✗"
	default:
		return infoColor, "ℹ"
	}
}

// Info renders an informational box
func Info(title string, lines ...string) string {
	return render(InfoMessage, title, lines)
}

// Success renders a success box
func Success(title string, lines ...string) string {
	return render(SuccessMessage, title, lines)
}

// Warning renders a warning box
func Warning(title string, lines ...string) string {
	return render(WarningMessage, title, lines)
}

// Error renders an error box
func Error(title string, lines ...string) string {
	return render(ErrorMessage, title, lines)
}

func render(messageType MessageType, title string, lines []string) string {
	box := NewBox(messageType, title)
	for _, line := range lines {
		box.AddLine(line)
	}
	return box.Render()
}

// TerminalWidth returns the width of stdout, or 80 when it is not a terminal
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
