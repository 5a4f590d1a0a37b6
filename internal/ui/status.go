package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/muurk/softap/internal/softap"
)

// RenderStatus renders a status snapshot as a key/value table.
func RenderStatus(st softap.Status, width int) string {
	link := "down"
	if st.Stack.LinkUp {
		link = "up"
	}
	lease := "none"
	if st.Lease != nil {
		lease = fmt.Sprintf("%s → %s", st.Lease.MAC, st.Lease.Addr)
	}

	lines := []string{TitleStyle.Render("STATUS"), divider(width)}
	lines = append(lines, renderParams([]Param{
		{"Access point", st.AccessPoint.String()},
		{"Starts", fmt.Sprint(st.Starts)},
		{"Link", fmt.Sprintf("%s (%d changes)", link, st.Stack.LinkChanges)},
		{"Lease", lease},
		{"DHCP", fmt.Sprintf("%d offers, %d acks, %d naks", st.DHCP.Offers, st.DHCP.Acks, st.DHCP.Naks)},
	})...)
	lines = append(lines, divider(width))

	names := make([]string, 0, len(st.Tasks))
	for name := range st.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, renderTask(name, st.Tasks[name]))
	}
	return box(PrimaryColor, width, lines)
}

func renderTask(name string, ts softap.TaskStatus) string {
	var marker string
	switch ts.State {
	case softap.TaskRunning:
		marker = SuccessStyle.Render(RunningMarker)
	case softap.TaskFailed:
		marker = ErrorStyle.Render(FailureMarker)
	case softap.TaskReturned:
		marker = WarningStyle.Render(WarningMarker)
	default:
		marker = MutedStyle.Render(PendingMarker)
	}
	line := fmt.Sprintf("%s %-5s %s", marker, name, ts.State)
	if ts.Err != "" {
		line += " " + ErrorStyle.Render(firstLine(ts.Err))
	}
	return line
}

// RenderTaskResult renders the one-line notice for a terminated task.
func RenderTaskResult(r softap.TaskResult) string {
	up := r.Uptime.Round(time.Second)
	if r.Err != nil {
		return fmt.Sprintf("%s %s failed after %s: %s",
			ErrorStyle.Render(FailureMarker), r.Task, up, firstLine(r.Err.Error()))
	}
	return fmt.Sprintf("%s %s returned after %s", WarningStyle.Render(WarningMarker), r.Task, up)
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
