package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"topicseg/internal/domain"
	"topicseg/internal/textproc"
)

// Model is the Bubble Tea model of the topic browser.
type Model struct {
	source   string
	result   domain.SegmentationResult
	input    textinput.Model
	viewport viewport.Model
	visible  []int // indices into result.Topics that match the filter
	filter   string
	status   string
	cursor   int
	ready    bool
}

// New creates a browser over result. source names the segmented input.
func New(source string, result domain.SegmentationResult) Model {
	ti := textinput.New()
	ti.Prompt = "filter> "
	ti.Placeholder = "Type words and press Enter, Esc clears"
	ti.Focus()
	ti.CharLimit = 0
	m := Model{
		source:   source,
		result:   result,
		input:    ti,
		viewport: viewport.New(0, 0),
	}
	m.applyFilter("")
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, th := topicBoxStyle.GetFrameSize()
		_, fh := filterBoxStyle.GetFrameSize()
		reserved := 2 + 1 + fh + 1 // header lines, status, filter box, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-th)
		m.viewport.SetContent(m.renderCurrentTopic())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			m.applyFilter(strings.TrimSpace(m.input.Value()))
			return m, nil
		case "esc":
			m.input.SetValue("")
			m.applyFilter("")
			return m, nil
		case "down":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor + 1) % len(m.visible)
				m.viewport.SetContent(m.renderCurrentTopic())
				m.viewport.GotoTop()
			}
			return m, nil
		case "up":
			if len(m.visible) > 0 {
				m.cursor = (m.cursor - 1 + len(m.visible)) % len(m.visible)
				m.viewport.SetContent(m.renderCurrentTopic())
				m.viewport.GotoTop()
			}
			return m, nil
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the header, the current topic and the filter box.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("Topics: " + m.source)
	summary := summaryStyle.Render(fmt.Sprintf("%d topics, %d chunks in topics, %d chunks total",
		len(m.result.Topics), m.result.ChunkCount(), m.result.TotalChunks))
	body := topicBoxStyle.Render(m.viewport.View())
	input := filterBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

// applyFilter keeps the topics whose label or chunks share a term with query.
func (m *Model) applyFilter(query string) {
	m.filter = query
	m.cursor = 0
	m.visible = m.visible[:0]
	terms := termSet(query)
	for i, t := range m.result.Topics {
		if len(terms) == 0 || topicMatches(t, terms) {
			m.visible = append(m.visible, i)
		}
	}
	switch {
	case len(m.result.Topics) == 0:
		m.status = "No topics found."
	case query == "":
		m.status = "Up/Down to browse topics."
	default:
		m.status = fmt.Sprintf("%d topics match %q", len(m.visible), query)
	}
	m.viewport.SetContent(m.renderCurrentTopic())
}

func (m Model) renderCurrentTopic() string {
	if len(m.visible) == 0 {
		return "No topics to show."
	}
	t := m.result.Topics[m.visible[m.cursor]]
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(t.Name))
	fmt.Fprintf(&b, "Topic %d/%d  confidence=%.2f  chunks=%d\n",
		m.cursor+1, len(m.visible), t.Confidence, len(t.Chunks))
	terms := termSet(m.filter)
	for _, c := range t.Chunks {
		fmt.Fprintf(&b, "\n%s\n", chunkHeaderStyle.Render(fmt.Sprintf("#%d  confidence=%.2f", c.ID, c.Confidence)))
		b.WriteString(highlightBestSentence(c.Text, terms))
		b.WriteString("\n")
	}
	return b.String()
}

var (
	tokenizer = textproc.NewTokenizer(nil)

	headerStyle      = lipgloss.NewStyle().Bold(true)
	summaryStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chunkHeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	topicBoxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	filterBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func termSet(s string) map[string]struct{} {
	tokens := tokenizer.Tokenize(s)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func overlap(terms map[string]struct{}, text string) int {
	score := 0
	for t := range termSet(text) {
		if _, ok := terms[t]; ok {
			score++
		}
	}
	return score
}

func topicMatches(t domain.Topic, terms map[string]struct{}) bool {
	if overlap(terms, t.Name) > 0 {
		return true
	}
	for _, c := range t.Chunks {
		if overlap(terms, c.Text) > 0 {
			return true
		}
	}
	return false
}

// highlightBestSentence emphasizes the sentence sharing the most terms with
// the filter. Text is returned unchanged when nothing matches.
func highlightBestSentence(text string, terms map[string]struct{}) string {
	if len(terms) == 0 {
		return text
	}
	sentences := textproc.Sentences(text)
	if len(sentences) == 0 {
		return text
	}
	best, bestScore := -1, 0
	for i, s := range sentences {
		if score := overlap(terms, s); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return text
	}
	sentences[best] = highlightStyle.Render(sentences[best])
	return strings.Join(sentences, " ")
}
