package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/MKhiriev/go-sync-core/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	kindStyles = map[models.ChangeKind]lipgloss.Style{
		models.ChangeCreated:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		models.ChangeUpdated:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		models.ChangeDeleted:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		models.ChangeMalformed: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
	featureStyle = lipgloss.NewStyle().Width(10)
)

// renderEvent formats one line of the watch feed.
func renderEvent(at time.Time, ev models.ChangeEvent) string {
	kind := kindStyles[ev.Kind].Width(10).Render(string(ev.Kind))
	return fmt.Sprintf("%s %s %s %s",
		helpStyle.Render(at.Format(time.TimeOnly)),
		kind,
		featureStyle.Render(string(ev.Feature)),
		ev.ObjectID,
	)
}
