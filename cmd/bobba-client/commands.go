package main

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

type commandKind int

const (
	cmdNone commandKind = iota
	cmdSay
	cmdWave
	cmdWalk
	cmdUse
	cmdBuy
	cmdQuit
)

type command struct {
	kind commandKind
	text string
	args []int
}

// actions is what a command can do to a session.
type actions interface {
	Say(text string) error
	Wave() error
	Walk(x, y int) error
	Interact(itemID int) error
	Purchase(itemID int) error
}

// parseCommand parses one input line. Lines without a leading colon are chat.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdNone}, nil
	}
	if !strings.HasPrefix(line, ":") {
		return command{kind: cmdSay, text: line}, nil
	}

	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return command{}, errors.New("empty command")
	}

	name, rest := fields[0], fields[1:]
	var c command
	var want int
	switch name {
	case "wave":
		c.kind, want = cmdWave, 0
	case "walk":
		c.kind, want = cmdWalk, 2
	case "use":
		c.kind, want = cmdUse, 1
	case "buy":
		c.kind, want = cmdBuy, 1
	case "quit", "exit":
		c.kind, want = cmdQuit, 0
	default:
		return command{}, errors.Errorf("unknown command %q", name)
	}

	if len(rest) != want {
		return command{}, errors.Errorf("%s takes %d arguments, got %d", name, want, len(rest))
	}
	for _, arg := range rest {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return command{}, errors.Wrapf(err, "%s: invalid number %q", name, arg)
		}
		c.args = append(c.args, n)
	}
	return c, nil
}

func (c command) apply(a actions) error {
	switch c.kind {
	case cmdSay:
		return a.Say(c.text)
	case cmdWave:
		return a.Wave()
	case cmdWalk:
		return a.Walk(c.args[0], c.args[1])
	case cmdUse:
		return a.Interact(c.args[0])
	case cmdBuy:
		return a.Purchase(c.args[0])
	default:
		return nil
	}
}
