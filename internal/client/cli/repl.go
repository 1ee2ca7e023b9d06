package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	SignUp(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	WhoAmIOffline(ctx context.Context) error
	Refresh(ctx context.Context) error
	Role(ctx context.Context, want string) error
}

// runREPL reads commands line by line from r and dispatches them until EOF,
// "exit" or "quit". Command errors are printed and the loop goes on.
//
//	Signed out: help, login, signup, whoami [--offline], exit
//	Signed in:  help, whoami [--offline], role [merchant|driver|customer], refresh, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, r *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "swa %s> ", statusFn())

		line, err := r.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami [--offline], role [merchant|driver|customer], refresh, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: login, signup, whoami [--offline], exit")
			}
		case "login":
			cmdErr = a.Login(ctx)
		case "signup", "register":
			cmdErr = a.SignUp(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami", "me":
			if len(args) > 0 && args[0] == "--offline" {
				cmdErr = a.WhoAmIOffline(ctx)
			} else {
				cmdErr = a.WhoAmI(ctx)
			}
		case "refresh":
			cmdErr = a.Refresh(ctx)
		case "role":
			want := ""
			if len(args) > 0 {
				want = args[0]
			}
			cmdErr = a.Role(ctx, want)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", describe(cmdErr))
		}
	}
}
