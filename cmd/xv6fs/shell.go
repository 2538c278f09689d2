package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/weberc2/xv6fs/pkg/dirstack"
	xv6fs "github.com/weberc2/xv6fs/pkg/fs"
	. "github.com/weberc2/xv6fs/pkg/types"
)

const prompt = "fscli> "

// shell is an interactive session against a mounted image. Paths given to
// its commands are relative to the current directory unless absolute.
type shell struct {
	fsys   *xv6fs.FileSystem
	cwd    *dirstack.Stack
	out    io.Writer
	logger logrus.FieldLogger
}

type shellCommand struct {
	args  string
	usage string
	run   func(sh *shell, args []string) error
}

func newShell(
	fsys *xv6fs.FileSystem,
	out io.Writer,
	logger logrus.FieldLogger,
) *shell {
	return &shell{fsys: fsys, cwd: dirstack.New(), out: out, logger: logger}
}

// run executes commands read line by line from `in` until end of input or
// `quit`.
func (sh *shell) run(in io.Reader, showPrompt bool) error {
	scanner := bufio.NewScanner(in)
	for {
		if showPrompt {
			fmt.Fprint(sh.out, prompt)
		}
		if !scanner.Scan() {
			break
		}
		quit, err := sh.exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(sh.out, "error: %v\n", err)
		}
		if quit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading commands: %w", err)
	}
	return nil
}

func (sh *shell) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 1 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}
	name, args := fields[0], fields[1:]
	switch name {
	case "quit", "exit":
		return true, nil
	case "help":
		sh.help()
		return false, nil
	}
	command, found := shellCommands[name]
	if !found {
		return false, fmt.Errorf("unknown command `%s`; try `help`", name)
	}
	sh.logger.WithFields(logrus.Fields{
		"command": name,
		"args":    args,
		"cwd":     sh.cwd.Path(),
	}).Debug("running shell command")
	return false, command.run(sh, args)
}

func (sh *shell) help() {
	names := make([]string, 0, len(shellCommands))
	for name := range shellCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		command := shellCommands[name]
		fmt.Fprintf(
			sh.out,
			"  %-30s %s\n",
			strings.TrimSpace(name+" "+command.args),
			command.usage,
		)
	}
	fmt.Fprintf(sh.out, "  %-30s %s\n", "help", "show this message")
	fmt.Fprintf(sh.out, "  %-30s %s\n", "quit", "sync and leave")
}

func (sh *shell) abs(p string) string { return sh.cwd.Abs(p) }

func (sh *shell) lookupDir(dir Ino, name string) (Ino, error) {
	ino, err := sh.fsys.LookupInDirectory(dir, name)
	if err != nil {
		return InoNil, err
	}
	inode, err := sh.fsys.ReadInode(ino)
	if err != nil {
		return InoNil, err
	}
	if inode.Type != FileTypeDir {
		return InoNil, fmt.Errorf("`%s`: %w", name, xv6fs.NotADirErr)
	}
	return ino, nil
}

func arity(args []string, min, max int, usage string) error {
	if len(args) < min || len(args) > max {
		return fmt.Errorf("usage: %s", usage)
	}
	return nil
}

var shellCommands = map[string]shellCommand{
	"pwd": {
		usage: "print the current directory",
		run: func(sh *shell, args []string) error {
			_, err := fmt.Fprintln(sh.out, sh.cwd.Path())
			return err
		},
	},
	"cd": {
		args:  "[dir]",
		usage: "change the current directory (default `/`)",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 0, 1, "cd [dir]"); err != nil {
				return err
			}
			target := "/"
			if len(args) == 1 {
				target = args[0]
			}
			return sh.cwd.Walk(target, sh.lookupDir)
		},
	},
	"ls": {
		args:  "[-d] [-R] [path]",
		usage: "list a directory; -d lists the entry itself, -R recurses",
		run: func(sh *shell, args []string) error {
			const usage = "ls [-d] [-R] [path]"
			var entry, recursive bool
			for len(args) > 0 && strings.HasPrefix(args[0], "-") {
				switch args[0] {
				case "-d":
					entry = true
				case "-R":
					recursive = true
				default:
					return fmt.Errorf("usage: %s", usage)
				}
				args = args[1:]
			}
			if err := arity(args, 0, 1, usage); err != nil {
				return err
			}
			target := "."
			if len(args) == 1 {
				target = args[0]
			}
			switch {
			case entry:
				return sh.fsys.ListEntry(sh.out, sh.abs(target))
			case recursive:
				return sh.fsys.ListTree(sh.out, sh.abs(target))
			}
			return sh.fsys.ListPath(sh.out, sh.abs(target))
		},
	},
	"stat": {
		args:  "<path>",
		usage: "show an inode",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 1, "stat <path>"); err != nil {
				return err
			}
			stat, err := sh.fsys.Stat(sh.abs(args[0]))
			if err != nil {
				return err
			}
			return printJSON(sh.out, &stat)
		},
	},
	"cat": {
		args:  "<file>",
		usage: "print a file",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 1, "cat <file>"); err != nil {
				return err
			}
			return catFile(sh.out, sh.fsys, sh.abs(args[0]))
		},
	},
	"creat": {
		args:  "<file>",
		usage: "create an empty file",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 1, "creat <file>"); err != nil {
				return err
			}
			ino, err := createFile(sh.fsys, sh.abs(args[0]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(sh.out, "created inode %d\n", ino)
			return err
		},
	},
	"mkdir": {
		args:  "<dir>",
		usage: "create a directory",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 1, "mkdir <dir>"); err != nil {
				return err
			}
			ino, err := sh.fsys.MakeDirectory(sh.abs(args[0]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(sh.out, "created inode %d\n", ino)
			return err
		},
	},
	"unlink": {
		args:  "<path>",
		usage: "remove a directory entry",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 1, "unlink <path>"); err != nil {
				return err
			}
			return sh.fsys.Unlink(sh.abs(args[0]))
		},
	},
	"link": {
		args:  "<old> <new>",
		usage: "point the existing file <new> at <old>'s inode",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 2, 2, "link <old> <new>"); err != nil {
				return err
			}
			return sh.fsys.Link(sh.abs(args[0]), sh.abs(args[1]))
		},
	},
	"write": {
		args:  "<file> <text...>",
		usage: "replace a file's content with a line of text",
		run: func(sh *shell, args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: write <file> <text...>")
			}
			text := strings.Join(args[1:], " ") + "\n"
			_, err := sh.fsys.WriteFile(sh.abs(args[0]), []byte(text))
			return err
		},
	},
	"upload": {
		args:  "<path> [host-file]",
		usage: "copy a file in the image out to the host",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 2, "upload <path> [host-file]"); err != nil {
				return err
			}
			var host string
			if len(args) == 2 {
				host = args[1]
			}
			host, err := upload(sh.fsys, sh.abs(args[0]), host)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(sh.out, "uploaded to %s\n", host)
			return err
		},
	},
	"uploadtree": {
		args:  "<host-file>",
		usage: "write the recursive listing of `/` to a host file",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 1, "uploadtree <host-file>"); err != nil {
				return err
			}
			return uploadTree(sh.fsys, args[0])
		},
	},
	"download": {
		args:  "<host-file> [path]",
		usage: "copy a host file into the image",
		run: func(sh *shell, args []string) error {
			if err := arity(args, 1, 2, "download <host-file> [path]"); err != nil {
				return err
			}
			target := "."
			if len(args) == 2 {
				target = args[1]
			}
			p, ino, err := download(sh.fsys, args[0], sh.abs(target))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(sh.out, "downloaded %s (inode %d)\n", p, ino)
			return err
		},
	},
	"sync": {
		usage: "write dirty blocks to the image",
		run: func(sh *shell, args []string) error {
			written, err := sh.fsys.Sync()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(sh.out, "wrote %d blocks\n", written)
			return err
		},
	},
	"info": {
		usage: "show the superblock, usage and cache statistics",
		run: func(sh *shell, args []string) error {
			return printInfo(sh.out, sh.fsys)
		},
	},
}
