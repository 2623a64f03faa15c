// Package view renders screen state as terminal text.
package view

import (
	"fmt"
	"strings"

	"ecoleta/client/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

var (
	brand = lipgloss.Color("#34CB79")
	muted = lipgloss.Color("#6C6C80")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#322153"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(brand)
	itemStyle     = lipgloss.NewStyle()
	mutedStyle    = lipgloss.NewStyle().Foreground(muted)
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brand).
			Padding(0, 1)
)

const (
	selectedMark   = "[x]"
	unselectedMark = "[ ]"
)

// Items renders the category grid; selected entries are marked and highlighted
func Items(items []domain.Item, isSelected func(domain.CategoryID) bool) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Itens de coleta"))
	b.WriteString("\n")

	for _, item := range items {
		mark, style := unselectedMark, itemStyle
		if isSelected != nil && isSelected(item.ID) {
			mark, style = selectedMark, selectedStyle
		}
		fmt.Fprintf(&b, "%s %s\n", mark, style.Render(fmt.Sprintf("%3d  %s", item.ID, item.Title)))
	}
	return b.String()
}

// Points renders the point list shown as map markers
func Points(points []domain.Point) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Pontos de coleta (%d)", len(points))))
	b.WriteString("\n")

	if len(points) == 0 {
		b.WriteString(mutedStyle.Render("nenhum ponto encontrado"))
		b.WriteString("\n")
		return b.String()
	}

	for _, p := range points {
		where := "sem localização"
		if !p.Position().IsZero() {
			where = fmt.Sprintf("(%s, %s)", p.Latitude, p.Longitude)
		}
		fmt.Fprintf(&b, "#%-4d %s %s\n", p.ID, p.Name, mutedStyle.Render(where))
	}
	return b.String()
}

func PointDetail(d *domain.PointDetail) string {
	titles := make([]string, 0, len(d.Items))
	for _, item := range d.Items {
		titles = append(titles, item.Title)
	}

	lines := []string{
		titleStyle.Render(d.Point.Name),
		strings.Join(titles, ", "),
		"",
		fmt.Sprintf("Endereço: %s, %s", d.Point.City, d.Point.UF),
		fmt.Sprintf("E-mail:   %s", d.Point.Email),
		fmt.Sprintf("Whatsapp: %s", d.Point.Whatsapp),
	}
	return boxStyle.Render(strings.Join(lines, "\n")) + "\n"
}

func States(states []domain.State) string {
	var b strings.Builder
	for _, s := range states {
		fmt.Fprintf(&b, "%s  %s\n", selectedStyle.Render(s.Abbrev), s.Name)
	}
	return b.String()
}

func Cities(cities []domain.City) string {
	var b strings.Builder
	for _, c := range cities {
		b.WriteString(c.Name)
		b.WriteString("\n")
	}
	return b.String()
}

func Submission(s *domain.Submission) string {
	style := selectedStyle
	if s.Status == domain.SubmissionFailed {
		style = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E33D3D"))
	}
	line := fmt.Sprintf("%s %s (%s)", style.Render(s.Status.String()), s.Name, s.ID)
	if s.Error != "" {
		line += " " + mutedStyle.Render(s.Error)
	}
	return line + "\n"
}
