package console

import (
	"fmt"
	"io"
	"sync"
)

// Notifier prints notifications on the console. It satisfies
// command.Notifier.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier creates a notifier writing to out (normally Console.Stdout).
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

func (n *Notifier) NotifySuccess(msg string) { n.print("OK", msg) }
func (n *Notifier) NotifyError(msg string)   { n.print("ERROR", msg) }
func (n *Notifier) AlertError(msg string)    { n.print("ALERT", msg) }

func (n *Notifier) print(tag, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[%s] %s\n", tag, msg)
}
