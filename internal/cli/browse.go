package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chainguard-dev/malcontent-action/internal/scan"
)

func NewBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <payload.json>",
		Short: "Interactive browser for the findings in a scanner payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			d := scan.Normalize(payload)
			findings := flattenFindings(d)
			if len(findings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No findings.")
				return nil
			}
			result, err := runBrowseTUI(findings)
			if err != nil {
				return err
			}
			if result.Chosen {
				fmt.Fprintln(cmd.OutOrStdout(), result.Finding.Detail())
			}
			return nil
		},
	}
}

// Finding is one behavior flattened out of a diff bucket for display.
type Finding struct {
	Bucket   string
	Path     string
	Behavior scan.Behavior
}

func (f Finding) Detail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", f.Bucket, scan.DisplayPath(f.Path))
	fmt.Fprintf(&b, "%s %s [%s] (score %d)\n",
		f.Behavior.RiskLevel.Emoji(), f.Behavior.Description,
		f.Behavior.RiskLevel, f.Behavior.RiskScore)
	if f.Behavior.RuleName != "" {
		fmt.Fprintf(&b, "rule: %s\n", f.Behavior.RuleName)
	}
	if f.Behavior.RuleURL != "" {
		fmt.Fprintf(&b, "url: %s\n", f.Behavior.RuleURL)
	}
	for _, m := range f.Behavior.MatchStrings {
		fmt.Fprintf(&b, "match: %s\n", m)
	}
	return strings.TrimRight(b.String(), "\n")
}

func flattenFindings(d scan.DiffResult) []Finding {
	var findings []Finding
	add := func(bucket string, entries []scan.FileEntry) {
		for _, f := range entries {
			for _, bh := range f.Behaviors {
				b := bucket
				if bh.RemovedInDiff {
					b += " (removed)"
				}
				findings = append(findings, Finding{Bucket: b, Path: f.Path, Behavior: bh})
			}
		}
	}
	add("added", d.Added)
	add("removed", d.Removed)
	add("modified", d.Modified)
	return findings
}

type browseResult struct {
	Finding Finding
	Chosen  bool
}

type browseModel struct {
	allFindings []Finding
	list        list.Model
	search      textinput.Model
	query       string
	result      browseResult
	width       int
	height      int
}

type findingItem struct {
	finding Finding
}

func (i findingItem) Title() string {
	return fmt.Sprintf("%s %s  %s", i.finding.Behavior.RiskLevel.Emoji(),
		scan.DisplayPath(i.finding.Path), i.finding.Behavior.Description)
}

func (i findingItem) Description() string {
	return fmt.Sprintf("Bucket: %s  Level: %s  Score: %d  Rule: %s",
		i.finding.Bucket, i.finding.Behavior.RiskLevel,
		i.finding.Behavior.RiskScore, i.finding.Behavior.RuleName)
}

func (i findingItem) FilterValue() string {
	return strings.ToLower(fmt.Sprintf("%s %s %s %s", i.finding.Bucket,
		i.finding.Path, i.finding.Behavior.Description, i.finding.Behavior.RiskLevel))
}

func newBrowseModel(findings []Finding) browseModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	listModel := list.New([]list.Item{}, delegate, 0, 0)
	listModel.Title = "Findings"
	listModel.SetShowStatusBar(false)
	listModel.SetShowHelp(false)
	listModel.SetFilteringEnabled(false)

	search := textinput.New()
	search.Placeholder = "type to search"
	search.Prompt = "Search: "
	search.Focus()

	m := browseModel{
		allFindings: findings,
		list:        listModel,
		search:      search,
	}
	m.applyFilter()
	return m
}

func (m *browseModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.search.Value()))
	filtered := make([]list.Item, 0, len(m.allFindings))
	for _, f := range m.allFindings {
		item := findingItem{finding: f}
		if query == "" || strings.Contains(item.FilterValue(), query) {
			filtered = append(filtered, item)
		}
	}
	m.list.SetItems(filtered)
	if len(filtered) > 0 {
		m.list.Select(0)
	}
	m.query = m.search.Value()
}

func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())
		listHeight := msg.Height - headerHeight - footerHeight - 2
		if listHeight < 4 {
			listHeight = 4
		}
		m.list.SetSize(msg.Width, listHeight)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if selected, ok := m.list.SelectedItem().(findingItem); ok {
				m.result = browseResult{Finding: selected.finding, Chosen: true}
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.query {
		m.applyFilter()
	}
	var listCmd tea.Cmd
	m.list, listCmd = m.list.Update(msg)
	return m, tea.Batch(cmd, listCmd)
}

func (m browseModel) View() string {
	content := m.list.View()
	if len(m.list.Items()) == 0 {
		content = "No findings match your search."
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), m.search.View(), content, m.footerView())
}

func (m browseModel) headerView() string {
	return lipgloss.NewStyle().Bold(true).Render("Malcontent findings")
}

func (m browseModel) footerView() string {
	return "Type to search • ↑/↓ to move • Enter to print detail • q to quit"
}

func runBrowseTUI(findings []Finding) (browseResult, error) {
	model := newBrowseModel(findings)
	program := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := program.Run()
	if err != nil {
		return browseResult{}, err
	}
	final, ok := finalModel.(browseModel)
	if !ok {
		return browseResult{}, fmt.Errorf("unexpected TUI model")
	}
	return final.result, nil
}
