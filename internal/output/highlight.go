package output

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles applied to SQL token classes.
type Theme struct {
	Keyword  lipgloss.Style
	Type     lipgloss.Style
	Function lipgloss.Style
	String   lipgloss.Style
	Number   lipgloss.Style
	Comment  lipgloss.Style
	Operator lipgloss.Style
}

// DefaultTheme is a dark-terminal palette.
func DefaultTheme() *Theme {
	return &Theme{
		Keyword:  lipgloss.NewStyle().Foreground(lipgloss.Color("#569CD6")).Bold(true),
		Type:     lipgloss.NewStyle().Foreground(lipgloss.Color("#4EC9B0")),
		Function: lipgloss.NewStyle().Foreground(lipgloss.Color("#DCDCAA")),
		String:   lipgloss.NewStyle().Foreground(lipgloss.Color("#CE9178")),
		Number:   lipgloss.NewStyle().Foreground(lipgloss.Color("#B5CEA8")),
		Comment:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6A9955")).Italic(true),
		Operator: lipgloss.NewStyle().Foreground(lipgloss.Color("#D4D4D4")),
	}
}

// Highlighter colors view and routine definitions for terminal output.
type Highlighter struct {
	lexer chroma.Lexer
	theme *Theme
}

// NewHighlighter creates a Highlighter using the PostgreSQL lexer, falling
// back to generic SQL. A nil theme disables styling.
func NewHighlighter(theme *Theme) *Highlighter {
	l := lexers.Get("postgresql")
	if l == nil {
		l = lexers.Get("sql")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l), theme: theme}
}

// Highlight returns src with styled tokens. Newlines are emitted unstyled so
// multi-line definitions keep their layout. On lexer failure src is returned
// unchanged.
func (h *Highlighter) Highlight(src string) string {
	if h.theme == nil {
		return src
	}
	iter, err := h.lexer.Tokenise(nil, src)
	if err != nil {
		return src
	}

	var b strings.Builder
	b.Grow(len(src) * 2)
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := h.styleFor(tok.Type)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		lines := strings.Split(tok.Value, "\n")
		for i, line := range lines {
			if line != "" {
				b.WriteString(style.Render(line))
			}
			if i < len(lines)-1 {
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

func (h *Highlighter) styleFor(tt chroma.TokenType) (lipgloss.Style, bool) {
	th := h.theme
	switch {
	case tt == chroma.KeywordType || tt == chroma.NameBuiltin:
		return th.Type, true
	case tt == chroma.NameFunction:
		return th.Function, true
	case tt.InCategory(chroma.Keyword):
		return th.Keyword, true
	case tt.InSubCategory(chroma.LiteralString):
		return th.String, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return th.Number, true
	case tt.InCategory(chroma.Comment):
		return th.Comment, true
	case tt.InCategory(chroma.Operator):
		return th.Operator, true
	default:
		return lipgloss.Style{}, false
	}
}
