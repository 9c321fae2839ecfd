// ABOUTME: Renders connectivity notices as small styled toasts on stderr
// ABOUTME: Keeps stdout free for command output
package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/duoproservices/portal/controller"
)

var (
	toastOffline = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("214")).
			Padding(0, 1)

	toastOnline = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("42")).
			Padding(0, 1)

	toastFailure = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)
)

// ToastNotifier prints notices to w.
type ToastNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewToastNotifier(w io.Writer) *ToastNotifier {
	return &ToastNotifier{w: w}
}

func (t *ToastNotifier) Notify(n controller.Notice) {
	style := toastFailure
	switch n.Kind {
	case controller.NoticeOffline:
		style = toastOffline
	case controller.NoticeOnline:
		style = toastOnline
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.w, style.Render(n.Message))
}
