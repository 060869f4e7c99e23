package console

import (
	"fmt"
	"strconv"
	"strings"
)

// Command names accepted on stdin.
const (
	CmdStart          = "start"
	CmdQuestion       = "q"
	CmdNext           = "next"
	CmdPrev           = "prev"
	CmdAnswer         = "answer"
	CmdClear          = "clear"
	CmdSubmit         = "submit"
	CmdYes            = "yes"
	CmdNo             = "no"
	CmdStatus         = "status"
	CmdHelp           = "help"
	CmdFullscreenExit = "fullscreen-exit"
	CmdTabHidden      = "tab-hidden"
	CmdUnload         = "unload"
	CmdCopy           = "copy"
	CmdPaste          = "paste"
)

// arity is the number of integer arguments each command takes.
var arity = map[string]int{
	CmdStart:          0,
	CmdQuestion:       1,
	CmdNext:           0,
	CmdPrev:           0,
	CmdAnswer:         2,
	CmdClear:          1,
	CmdSubmit:         0,
	CmdYes:            0,
	CmdNo:             0,
	CmdStatus:         0,
	CmdHelp:           0,
	CmdFullscreenExit: 0,
	CmdTabHidden:      0,
	CmdUnload:         0,
	CmdCopy:           0,
	CmdPaste:          0,
}

var aliases = map[string]string{
	"y":      CmdYes,
	"n":      CmdNo,
	"a":      CmdAnswer,
	"?":      CmdHelp,
	"escape": CmdFullscreenExit,
	"blur":   CmdTabHidden,
	"quit":   CmdUnload,
	"exit":   CmdUnload,
}

// Command is one parsed input line. Args are as typed: question and option
// numbers are 1-based.
type Command struct {
	Name string
	Args []int
}

// Parse reads one line. Empty input returns a zero Command and no error.
func Parse(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, nil
	}
	name := fields[0]
	if alias, ok := aliases[name]; ok {
		name = alias
	}
	want, ok := arity[name]
	if !ok {
		return Command{}, fmt.Errorf("unknown command %q, type help", fields[0])
	}
	if len(fields)-1 != want {
		return Command{}, fmt.Errorf("%s takes %d argument(s), got %d", name, want, len(fields)-1)
	}

	cmd := Command{Name: name}
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return Command{}, fmt.Errorf("%s: %q is not a positive number", name, f)
		}
		cmd.Args = append(cmd.Args, n)
	}
	return cmd, nil
}

const helpText = `Commands:
  start              register your face and begin the exam
  q <n>              show question n
  next, prev         move between questions
  answer <q> <opt>   select option opt for question q
  clear <q>          unanswer question q
  submit             submit the exam
  yes, no            answer a pending confirmation
  status             time left, answers and monitor checks
Shell events:
  fullscreen-exit, tab-hidden, unload, copy, paste`
