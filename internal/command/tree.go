package command

import (
	"fmt"
	"sort"
)

// Node represents a node in the command tree.
type Node struct {
	Cmd         Command
	Subcommands map[string]*Node
}

// CommandTree manages all commands and subcommands.
type CommandTree struct {
	root *Node
}

// NewTree creates a new empty command tree.
func NewTree() *CommandTree {
	return &CommandTree{
		root: &Node{Subcommands: make(map[string]*Node)},
	}
}

// Register inserts a command under its name, aliases and short form.
func (t *CommandTree) Register(cmd Command) {
	t.insert(t.root, cmd)
}

// Get returns a top-level command by any of its names.
func (t *CommandTree) Get(name string) (Command, bool) {
	node, ok := t.root.Subcommands[name]
	if !ok {
		return nil, false
	}
	return node.Cmd, true
}

func (t *CommandTree) insert(parent *Node, cmd Command) {
	node := &Node{Cmd: cmd, Subcommands: make(map[string]*Node)}
	for _, sub := range cmd.Subcommands() {
		t.insert(node, sub)
	}
	for _, n := range names(cmd) {
		parent.Subcommands[n] = node
	}
}

func names(cmd Command) []string {
	out := append([]string{cmd.Name()}, cmd.Aliases()...)
	if s := cmd.Short(); s != "" {
		out = append(out, s)
	}
	return out
}

// Resolve walks down the command tree following args and returns the deepest
// command plus the arguments left for it.
func (t *CommandTree) Resolve(args []string) (*Node, []string, error) {
	node := t.root
	for len(args) > 0 {
		next, ok := node.Subcommands[args[0]]
		if !ok {
			break
		}
		node = next
		args = args[1:]
	}
	if node.Cmd == nil {
		if len(args) > 0 {
			return nil, nil, fmt.Errorf("unknown command %q", args[0])
		}
		return nil, nil, fmt.Errorf("no command provided")
	}
	return node, args, nil
}

// Commands lists the distinct top-level commands sorted by name.
func (t *CommandTree) Commands() []Command {
	seen := make(map[Command]struct{})
	var cmds []Command
	for _, node := range t.root.Subcommands {
		if _, ok := seen[node.Cmd]; ok {
			continue
		}
		seen[node.Cmd] = struct{}{}
		cmds = append(cmds, node.Cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
	return cmds
}
