package shell

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/beevik/cmd"
)

var commands *cmd.Tree

func init() {
	root := cmd.NewTree("discore")

	root.AddCommand(cmd.Command{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Shell).cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:        "quit",
		Brief:       "Quit the shell",
		Description: "Exit the interactive shell.",
		Usage:       "quit",
		Data:        (*Shell).cmdQuit,
	})
	root.AddCommand(cmd.Command{
		Name:  "set",
		Brief: "Display or change a shell setting",
		Description: "With no arguments, display every setting and its current value." +
			" With a key and value, change that setting.",
		Usage: "set [<key> [<value>]]",
		Data:  (*Shell).cmdSet,
	})

	root.AddCommand(cmd.Command{
		Name:  "area",
		Brief: "Define an address space area",
		Description: "Create a new, non-overlapping area spanning [start, end]" +
			" so bytes can be loaded and analyzed within it.",
		Usage: "area add <start> <end>",
		Data:  (*Shell).cmdArea,
	})
	root.AddCommand(cmd.Command{
		Name:  "load",
		Brief: "Load a binary file into memory",
		Description: "Read the contents of a file from disk and copy it into" +
			" the address space starting at the given address.",
		Usage: "load <file> <addr>",
		Data:  (*Shell).cmdLoad,
	})
	root.AddCommand(cmd.Command{
		Name:  "analyze",
		Brief: "Run recursive-descent code discovery from an address",
		Description: "Push the given address onto the analysis worklist and run" +
			" recursive-descent code discovery until the worklist empties or the" +
			" instruction budget is reached.",
		Usage: "analyze <addr>",
		Data:  (*Shell).cmdAnalyze,
	})
	root.AddCommand(cmd.Command{
		Name:  "disasm",
		Brief: "Render a disassembly window",
		Description: "Render and print a window of display lines starting at the" +
			" given address. If no address is given, continue from the last window.",
		Usage: "disasm [<addr>] [<lines>]",
		Data:  (*Shell).cmdDisasm,
	})
	root.AddCommand(cmd.Command{
		Name:  "label",
		Brief: "Display or set a label",
		Description: "With no name, display the label at the given address." +
			" With a name, assign it explicitly.",
		Usage: "label <addr> [<name>]",
		Data:  (*Shell).cmdLabel,
	})
	root.AddCommand(cmd.Command{
		Name:        "xref",
		Brief:       "List cross-references to an address",
		Description: "List every source address and tag that references the given target.",
		Usage:       "xref <addr>",
		Data:        (*Shell).cmdXref,
	})
	root.AddCommand(cmd.Command{
		Name:  "comment",
		Brief: "Display or set a comment",
		Description: "With no text, display the comment at the given address." +
			" With text, set it; with empty text, clear it.",
		Usage: "comment <addr> [<text>]",
		Data:  (*Shell).cmdComment,
	})
	root.AddCommand(cmd.Command{
		Name:  "argprop",
		Brief: "Display or set an operand property",
		Description: "With no value, display the named property of the given operand." +
			" With a value, set it.",
		Usage: "argprop <addr> <argno> <name> [<value>]",
		Data:  (*Shell).cmdArgProp,
	})
	root.AddCommand(cmd.Command{
		Name:  "save",
		Brief: "Save the project to a directory",
		Description: "Write labels, comments, cross-references, operand properties," +
			" and area flag buffers to text files under the given directory.",
		Usage: "save <dir>",
		Data:  (*Shell).cmdSave,
	})
	root.AddCommand(cmd.Command{
		Name:  "open",
		Brief: "Load a project from a directory",
		Description: "Read labels, comments, cross-references, operand properties," +
			" and area flag buffers previously written by save. Areas referenced" +
			" by the saved area file must already exist (see area add).",
		Usage: "open <dir>",
		Data:  (*Shell).cmdOpen,
	})

	root.AddShortcut("?", "help")
	root.AddShortcut("q", "quit")
	root.AddShortcut("a", "analyze")
	root.AddShortcut("d", "disasm")
	root.AddShortcut("l", "label")
	root.AddShortcut("x", "xref")
	root.AddShortcut("c", "comment")

	commands = root
}

func (sh *Shell) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		sh.displayCommands(commands, nil)
		return nil
	}

	s, err := commands.Lookup(strings.Join(c.Args, " "))
	if err != nil {
		sh.printf("%v\n", err)
		return nil
	}
	if s.Command.Subtree != nil {
		sh.displayCommands(s.Command.Subtree, s.Command)
		return nil
	}
	if s.Command.Usage != "" {
		sh.printf("Usage: %s\n\n", s.Command.Usage)
	}
	switch {
	case s.Command.Description != "":
		sh.printf("Description:\n%s\n\n", indentWrap(3, s.Command.Description))
	case s.Command.Brief != "":
		sh.printf("Description:\n%s.\n\n", indentWrap(3, s.Command.Brief))
	}
	return nil
}

func (sh *Shell) cmdQuit(c cmd.Selection) error {
	sh.state = stateQuitting
	return nil
}

func (sh *Shell) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		sh.println("Settings:")
		sh.settings.Display(sh.output)
		sh.flush()
	case 1:
		sh.displayUsage(c.Command)
	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")
		switch sh.settings.Kind(key) {
		case reflect.Invalid:
			return fmt.Errorf("setting %q not found", key)
		case reflect.Bool:
			v, err := stringToBool(value)
			if err != nil {
				return err
			}
			return sh.settings.Set(key, v)
		case reflect.Uint32:
			v, err := parseAddr(value)
			if err != nil {
				return err
			}
			return sh.settings.Set(key, v)
		default:
			v, err := parseInt(value)
			if err != nil {
				return err
			}
			return sh.settings.Set(key, v)
		}
	}
	return nil
}

func (sh *Shell) cmdArea(c cmd.Selection) error {
	if len(c.Args) < 1 {
		sh.displayUsage(c.Command)
		return nil
	}
	if c.Args[0] != "add" || len(c.Args) < 3 {
		sh.displayUsage(c.Command)
		return nil
	}
	start, err := parseAddr(c.Args[1])
	if err != nil {
		return err
	}
	end, err := parseAddr(c.Args[2])
	if err != nil {
		return err
	}
	sh.space.AddArea(start, end, "")
	sh.printf("Area added: 0x%08x-0x%08x\n", start, end)
	return nil
}

func (sh *Shell) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 2 {
		sh.displayUsage(c.Command)
		return nil
	}
	data, err := os.ReadFile(c.Args[0])
	if err != nil {
		return err
	}
	addr, err := parseAddr(c.Args[1])
	if err != nil {
		return err
	}
	if err := sh.space.LoadContent(addr, data); err != nil {
		return err
	}
	sh.printf("Loaded %d bytes at 0x%08x.\n", len(data), addr)
	return nil
}

func (sh *Shell) cmdAnalyze(c cmd.Selection) error {
	if len(c.Args) < 1 {
		sh.displayUsage(c.Command)
		return nil
	}
	addr, err := parseAddr(c.Args[0])
	if err != nil {
		return err
	}
	if err := sh.AnalyzeFrom(addr); err != nil {
		return err
	}
	sh.println("Analysis complete.")
	return nil
}

func (sh *Shell) cmdDisasm(c cmd.Selection) error {
	addr := sh.settings.NextDisasmAddr
	if len(c.Args) >= 1 {
		a, err := parseAddr(c.Args[0])
		if err != nil {
			return err
		}
		addr = a
	}
	numLines := sh.settings.DisasmLines
	if len(c.Args) >= 2 {
		n, err := parseInt(c.Args[1])
		if err != nil {
			return err
		}
		numLines = n
	}
	return sh.renderWindow(addr, numLines)
}

func (sh *Shell) cmdLabel(c cmd.Selection) error {
	if len(c.Args) < 1 {
		sh.displayUsage(c.Command)
		return nil
	}
	addr, err := parseAddr(c.Args[0])
	if err != nil {
		return err
	}
	if len(c.Args) == 1 {
		name, ok := sh.space.GetLabel(addr)
		if !ok {
			sh.println("(no label)")
			return nil
		}
		sh.println(name)
		return nil
	}
	sh.space.Labels.SetLabel(addr, c.Args[1])
	return nil
}

func (sh *Shell) cmdXref(c cmd.Selection) error {
	if len(c.Args) < 1 {
		sh.displayUsage(c.Command)
		return nil
	}
	addr, err := parseAddr(c.Args[0])
	if err != nil {
		return err
	}
	srcs := sh.space.Xrefs.SourcesSorted(addr)
	if len(srcs) == 0 {
		sh.println("(no cross-references)")
		return nil
	}
	for _, src := range srcs {
		sh.printf("0x%08x %c\n", src.From, byte(src.Tag))
	}
	return nil
}

func (sh *Shell) cmdComment(c cmd.Selection) error {
	if len(c.Args) < 1 {
		sh.displayUsage(c.Command)
		return nil
	}
	addr, err := parseAddr(c.Args[0])
	if err != nil {
		return err
	}
	if len(c.Args) == 1 {
		text, ok := sh.space.Comments.Get(addr)
		if !ok {
			sh.println("(no comment)")
			return nil
		}
		sh.println(text)
		return nil
	}
	sh.space.Comments.Set(addr, strings.Join(c.Args[1:], " "))
	return nil
}

func (sh *Shell) cmdArgProp(c cmd.Selection) error {
	if len(c.Args) < 3 {
		sh.displayUsage(c.Command)
		return nil
	}
	addr, err := parseAddr(c.Args[0])
	if err != nil {
		return err
	}
	argno, err := strconv.Atoi(c.Args[1])
	if err != nil {
		return fmt.Errorf("invalid operand index %q: %w", c.Args[1], err)
	}
	name := c.Args[2]
	if len(c.Args) == 3 {
		v := sh.space.ArgProps.Get(addr, argno, name)
		if v == nil {
			sh.println("(no value)")
			return nil
		}
		sh.printf("%v\n", v)
		return nil
	}
	sh.space.ArgProps.Set(addr, argno, name, strings.Join(c.Args[3:], " "))
	return nil
}

func (sh *Shell) cmdSave(c cmd.Selection) error {
	if len(c.Args) < 1 {
		sh.displayUsage(c.Command)
		return nil
	}
	if err := sh.SaveProject(c.Args[0]); err != nil {
		return err
	}
	sh.printf("Project saved to %s.\n", c.Args[0])
	return nil
}

func (sh *Shell) cmdOpen(c cmd.Selection) error {
	if len(c.Args) < 1 {
		sh.displayUsage(c.Command)
		return nil
	}
	if err := sh.OpenProject(c.Args[0]); err != nil {
		return err
	}
	sh.printf("Project loaded from %s.\n", c.Args[0])
	return nil
}
