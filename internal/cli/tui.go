package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/drawbridge/pkg/convert"
)

// Item states for the batch progress display.
const (
	itemPending = iota
	itemOK
	itemFailed
)

var (
	tuiOKStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	tuiFailStyle    = lipgloss.NewStyle().Foreground(colorRed)
	tuiPendingStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// batchItemMsg reports one completed conversion.
type batchItemMsg convert.BatchItem

// batchDoneMsg reports the finished batch.
type batchDoneMsg struct{ summary *convert.BatchSummary }

// tickMsg advances the spinner animation.
type tickMsg time.Time

// batchModel is the bubbletea model rendering per-file conversion progress.
type batchModel struct {
	names   []string
	states  []int
	details []string
	done    int
	frame   int
	frames  []string
	summary *convert.BatchSummary
}

func newBatchModel(sources []convert.Source) batchModel {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return batchModel{
		names:   names,
		states:  make([]int, len(sources)),
		details: make([]string, len(sources)),
		frames:  []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m batchModel) Init() tea.Cmd {
	return tick()
}

func (m batchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tickMsg:
		m.frame++
		return m, tick()
	case batchItemMsg:
		item := convert.BatchItem(msg)
		if item.Index >= 0 && item.Index < len(m.states) {
			if item.Success {
				m.states[item.Index] = itemOK
				m.details[item.Index] = item.DiagramType
			} else {
				m.states[item.Index] = itemFailed
				m.details[item.Index] = item.Message
			}
			m.done++
		}
		return m, nil
	case batchDoneMsg:
		m.summary = msg.summary
		return m, tea.Quit
	}
	return m, nil
}

func (m batchModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("Converting diagrams"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d/%d", m.done, len(m.names))))
	b.WriteString("\n\n")

	for i, name := range m.names {
		switch m.states[i] {
		case itemOK:
			b.WriteString(tuiOKStyle.Render(iconSuccess) + " " + name)
			b.WriteString(StyleDim.Render("  " + m.details[i]))
		case itemFailed:
			b.WriteString(tuiFailStyle.Render(iconError) + " " + name)
			b.WriteString(StyleDim.Render("  " + m.details[i]))
		default:
			frame := m.frames[m.frame%len(m.frames)]
			b.WriteString(tuiPendingStyle.Render(frame + " " + name))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// runBatchUI drives ConvertMany behind a bubbletea progress display and
// returns the batch summary once every item has finished.
func runBatchUI(ctx context.Context, runner *convert.Runner, sources []convert.Source, opts convert.Options) (*convert.BatchSummary, error) {
	p := tea.NewProgram(newBatchModel(sources), tea.WithContext(ctx))

	runner.OnBatchItem = func(item convert.BatchItem) {
		p.Send(batchItemMsg(item))
	}
	defer func() { runner.OnBatchItem = nil }()

	go func() {
		summary := runner.ConvertMany(ctx, sources, opts)
		p.Send(batchDoneMsg{summary: summary})
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return nil, err
	}
	m, ok := final.(batchModel)
	if !ok || m.summary == nil {
		return nil, fmt.Errorf("batch interrupted")
	}
	return m.summary, nil
}
