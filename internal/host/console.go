package host

import (
	"io"
	"sync"

	"github.com/pterm/pterm"
)

// Console prints notifications with pterm prefixes.
type Console struct {
	info *pterm.PrefixPrinter
	fail *pterm.PrefixPrinter
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{
		info: pterm.Info.WithWriter(w),
		fail: pterm.Error.WithWriter(w),
	}
}

func (c *Console) Info(msg string)  { c.info.Println(msg) }
func (c *Console) Error(msg string) { c.fail.Println(msg) }

// Message is one notification captured by a Recorder.
type Message struct {
	Error bool
	Text  string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Info(msg string)  { r.add(Message{Text: msg}) }
func (r *Recorder) Error(msg string) { r.add(Message{Error: true, Text: msg}) }

func (r *Recorder) add(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

// Messages returns a copy of everything recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
