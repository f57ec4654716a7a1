package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"legalrag/internal/domain"
	"legalrag/internal/summarizer"
)

// AskPort is the TUI-facing subset of the legal service.
type AskPort interface {
	Ask(ctx context.Context, query string, fields map[string]string) (domain.Answer, error)
}

// answerMsg carries the result of an asynchronous Ask.
type answerMsg struct {
	answer domain.Answer
	err    error
}

// Model is the Bubble Tea model for the chat TUI.
type Model struct {
	service  AskPort
	fields   map[string]string
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	gist     *summarizer.Frequency

	answer    *domain.Answer
	status    string
	cursor    int
	ready     bool
	busy      bool
	lastQuery string
}

// New creates a new TUI model. fields are advisory hints sent with every question.
func New(service AskPort, fields map[string]string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Describa su caso y presione Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		service:  service,
		fields:   fields,
		timeout:  2 * time.Minute,
		input:    ti,
		viewport: vp,
		spinner:  sp,
		gist:     summarizer.New(),
		status:   "Listo. Escriba su consulta.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) ask(q string) tea.Cmd {
	svc, fields, timeout := m.service, m.fields, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ans, err := svc.Ask(ctx, q, fields)
		return answerMsg{answer: ans, err: err}
	}
}

// Update handles key, window and answer events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and query boxes
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case answerMsg:
		m.busy = false
		ans := msg.answer
		m.answer = &ans
		m.cursor = 0
		switch {
		case msg.err != nil && len(ans.Sources) > 0:
			m.status = "Error del modelo: " + msg.err.Error() + " (se muestran los artículos recuperados)"
		case msg.err != nil:
			m.status = "Error: " + msg.err.Error()
			if domain.Retryable(msg.err) {
				m.status += " (reintente)"
			}
		case ans.NoApplicableLaw:
			m.status = "Sin artículos aplicables."
		default:
			m.status = fmt.Sprintf("Respuesta para %q con %d artículos citados", m.lastQuery, len(ans.Sources))
		}
		m.viewport.SetContent(m.renderAnswer())
		m.viewport.GotoTop()
		return m, nil
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.busy {
				return m, nil
			}
			m.busy = true
			m.lastQuery = q
			m.input.SetValue("")
			m.status = "Consultando el Código Penal…"
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		case "tab":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "shift+tab":
			if n := m.sourceCount(); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "pgdown", "down":
			m.viewport.ScrollDown(1)
			return m, nil
		case "pgup", "up":
			m.viewport.ScrollUp(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Inicializando motor jurídico..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("⚖ Asistente Penal Bolivia")
	input := queryBoxStyle.Render(m.input.View())
	status := m.status
	if m.busy {
		status = m.spinner.View() + " " + status
	}
	status = statusStyle.Render(status)
	answer := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) sourceCount() int {
	if m.answer == nil {
		return 0
	}
	return len(m.answer.Sources)
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "Aún no hay respuestas. Tab recorre los artículos citados."
	}
	var b strings.Builder
	if m.answer.Text != "" {
		b.WriteString(m.answer.Text)
		b.WriteString("\n\n")
	}
	if len(m.answer.Sources) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString(sectionStyle.Render("Artículos del Código Penal citados"))
	b.WriteString("\n")
	for i, src := range m.answer.Sources {
		label := fmt.Sprintf("Art. %s %s", src.Number, src.Title)
		if src.SourceLabel != "" {
			label += " · " + src.SourceLabel
		}
		if i == m.cursor {
			b.WriteString("\n▸ " + selectedStyle.Render(label) + "\n")
			b.WriteString(highlightBestSentence(src.Body, m.lastQuery))
			b.WriteString("\n")
			continue
		}
		b.WriteString("\n  " + label + "\n  ")
		b.WriteString(dimStyle.Render(m.gist.Summarize(src.Body, 1)))
		b.WriteString("\n")
	}
	return b.String()
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	selectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sectionStyle   = lipgloss.NewStyle().Underline(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	unicodeWordRe  = regexp.MustCompile(`\p{L}+`)
	sentenceRe     = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

// errNoService is returned by Run when no service is wired.
var errNoService = errors.New("tui: no service configured")

// Run starts the program in the alternate screen.
func Run(service AskPort, fields map[string]string) error {
	if service == nil {
		return errNoService
	}
	_, err := tea.NewProgram(New(service, fields), tea.WithAltScreen()).Run()
	return err
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.TrimSpace(strings.Join(sentences, ""))
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) > 2 {
			m[t] = struct{}{}
		}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
