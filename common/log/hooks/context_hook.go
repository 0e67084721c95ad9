package hooks

import (
	"runtime/debug"
	"strings"

	"github.com/sirupsen/logrus"
)

// contextHook adds a file:line field to every entry, pointing at the log
// callsite rather than at logrus internals.
type contextHook struct {
}

func NewContextHook() contextHook {
	return contextHook{}
}

func (hook contextHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (hook contextHook) Fire(entry *logrus.Entry) error {
	stack := debug.Stack()
	lines := strings.Split(string(stack), "\n")
	for i := 0; i < len(lines); i++ {
		if !strings.Contains(lines[i], "context_hook.go:") {
			continue
		}
		// Stack lines alternate between function and file:line.
		// The first file line past our frame that isn't logrus
		// internals is the log callsite.
		for j := i + 2; j < len(lines); j += 2 {
			if strings.Contains(lines[j], "/logrus") {
				continue
			}
			ctx := strings.Split(lines[j], "placehook/")
			entry.Data["file:line"] = strings.TrimSpace(ctx[len(ctx)-1])
			return nil
		}
		break
	}
	return nil
}
