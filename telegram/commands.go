package telegram

import (
	"slices"
	"strings"
)

type CommandKind int

const (
	CmdNone CommandKind = iota
	CmdStart
	CmdPic
	CmdSkip
	CmdHint
	CmdGuess
	CmdAnnounce
	CmdHelp
)

func (k CommandKind) String() string {
	switch k {
	case CmdStart:
		return "start"
	case CmdPic:
		return "pic"
	case CmdSkip:
		return "skip"
	case CmdHint:
		return "hint"
	case CmdGuess:
		return "guess"
	case CmdAnnounce:
		return "announce"
	case CmdHelp:
		return "help"
	default:
		return "none"
	}
}

// Command is one parsed inbound message. Mode is set for starts and for
// prefixed forms; Args carries the guess text or the announce arguments.
type Command struct {
	Kind CommandKind
	Mode string
	Args string
}

// ParseCommand recognises slash commands (/a, /pic, /announce ...) and the
// mode-prefixed forms "<m>.pic", "<m>.hint" and "<m>.<guess>". Anything else
// is CmdNone.
func ParseCommand(text string, modeKeys []string) Command {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}
	}
	if strings.HasPrefix(text, "/") {
		return parseSlash(text, modeKeys)
	}
	return parsePrefixed(text, modeKeys)
}

func parseSlash(text string, modeKeys []string) Command {
	head, args, _ := strings.Cut(text[1:], " ")
	name, _, _ := strings.Cut(head, "@")
	name = strings.ToLower(name)
	args = strings.TrimSpace(args)

	if slices.Contains(modeKeys, name) {
		return Command{Kind: CmdStart, Mode: name}
	}

	switch name {
	case "pic":
		return Command{Kind: CmdPic}
	case "skip":
		return Command{Kind: CmdSkip}
	case "hint":
		return Command{Kind: CmdHint}
	case "announce":
		return Command{Kind: CmdAnnounce, Args: args}
	case "help", "start":
		return Command{Kind: CmdHelp}
	}
	return Command{}
}

func parsePrefixed(text string, modeKeys []string) Command {
	prefix, rest, found := strings.Cut(text, ".")
	if !found {
		return Command{}
	}
	mode := strings.ToLower(prefix)
	if !slices.Contains(modeKeys, mode) {
		return Command{}
	}

	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "pic":
		return Command{Kind: CmdPic, Mode: mode}
	case "hint":
		return Command{Kind: CmdHint, Mode: mode}
	}
	return Command{Kind: CmdGuess, Mode: mode, Args: rest}
}
