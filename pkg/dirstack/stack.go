// Package dirstack tracks the current working directory of an interactive
// session as the chain of directories from the root down to it.
package dirstack

import (
	"fmt"
	"path"
	"strings"

	. "github.com/weberc2/xv6fs/pkg/types"
)

const (
	MaxDepth = 128

	StackFullErr ConstError = "directory stack full"
)

type Frame struct {
	Ino  Ino    `json:"ino"`
	Name string `json:"name"`
}

// Stack always holds the root frame at the bottom.
type Stack struct {
	frames []Frame
}

func New() *Stack {
	return &Stack{frames: []Frame{{Ino: InoRoot, Name: "/"}}}
}

func (s *Stack) Push(frame Frame) error {
	if len(s.frames) >= MaxDepth {
		return fmt.Errorf(
			"entering `%s`: %w",
			frame.Name,
			StackFullErr,
		)
	}
	s.frames = append(s.frames, frame)
	return nil
}

// Pop removes the current directory and returns it. The root is never
// popped.
func (s *Stack) Pop() (Frame, bool) {
	if len(s.frames) == 1 {
		return Frame{}, false
	}
	frame := s.frames[len(s.frames)-1]
	s.frames = s.frames[:len(s.frames)-1]
	return frame, true
}

// Peek returns the current directory.
func (s *Stack) Peek() Frame { return s.frames[len(s.frames)-1] }

// Parent returns the directory above the current one; the root is its own
// parent.
func (s *Stack) Parent() Frame {
	if len(s.frames) == 1 {
		return s.frames[0]
	}
	return s.frames[len(s.frames)-2]
}

func (s *Stack) Depth() int { return len(s.frames) - 1 }

func (s *Stack) Reset() { s.frames = s.frames[:1] }

// Path renders the current directory, e.g. `/` or `/etc/conf`.
func (s *Stack) Path() string {
	if len(s.frames) == 1 {
		return "/"
	}
	var sb strings.Builder
	for _, frame := range s.frames[1:] {
		sb.WriteByte('/')
		sb.WriteString(frame.Name)
	}
	return sb.String()
}

// Abs interprets `p` relative to the current directory and returns the
// equivalent cleaned absolute path.
func (s *Stack) Abs(p string) string {
	if strings.HasPrefix(p, "/") {
		return path.Clean(p)
	}
	return path.Join(s.Path(), p)
}

// LookupFunc resolves `name` within directory `dir` to a directory inode.
type LookupFunc func(dir Ino, name string) (Ino, error)

// Walk changes the current directory by following `p`: absolute paths start
// from the root, `.` stays put and `..` goes up a level. Every other
// component is resolved with `lookup`. On failure the stack is left as it
// was.
func (s *Stack) Walk(p string, lookup LookupFunc) error {
	next := Stack{frames: append([]Frame(nil), s.frames...)}
	if strings.HasPrefix(p, "/") {
		next.Reset()
	}
	for _, name := range strings.Split(p, "/") {
		switch name {
		case "", ".":
			continue
		case "..":
			next.Pop()
			continue
		}
		ino, err := lookup(next.Peek().Ino, name)
		if err != nil {
			return fmt.Errorf("changing directory to `%s`: %w", p, err)
		}
		if err := next.Push(Frame{Ino: ino, Name: name}); err != nil {
			return fmt.Errorf("changing directory to `%s`: %w", p, err)
		}
	}
	s.frames = next.frames
	return nil
}
