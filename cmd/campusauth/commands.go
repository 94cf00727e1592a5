package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	domainauth "github.com/target/campus-auth/internal/domain/auth"
	"golang.org/x/term"
)

const portalName = "Campus Staff Portal"

type loginOptions struct {
	Email string
}

type scopeOptions struct {
	Check string
}

func parseLoginFlags(args []string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	var opts loginOptions
	fs.StringVar(&opts.Email, "email", "", "Staff email address (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

func parseScopeFlags(args []string) (scopeOptions, error) {
	fs := flag.NewFlagSet("scope", flag.ContinueOnError)
	var opts scopeOptions
	fs.StringVar(&opts.Check, "check", "", "Exit non-zero unless the role may access this category")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.Check = strings.ToLower(strings.TrimSpace(opts.Check))
	return opts, nil
}

func runLogin(c *commandContext, args []string) error {
	opts, err := parseLoginFlags(args)
	if err != nil {
		return err
	}

	if st := c.Auth.State(); st.IsAuthenticated() {
		return writef(c.Out, "Already signed in as %s (%s). Run \"campusauth logout\" first.\n",
			st.Session.Identity.Email, st.Session.Role)
	}

	email := strings.TrimSpace(opts.Email)
	if email == "" {
		if err := writef(c.Out, "Email: "); err != nil {
			return err
		}
		if email, err = readLine(c.In); err != nil {
			return fmt.Errorf("read email: %w", err)
		}
	}
	password, err := readPassword(c)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	st, err := c.Auth.Submit(c.Ctx, domainauth.Credentials{Email: email, Password: password})
	if st.Status == domainauth.StatusFailed {
		if werr := writef(c.Out, "Login failed: %s\n", st.Failure.Message); werr != nil {
			return werr
		}
		return errReported
	}
	if err != nil {
		return err
	}

	sess := st.Session
	if err := writef(c.Out, "Login successful\nWelcome back to the %s, %s.\n", portalName, displayName(sess.Identity)); err != nil {
		return err
	}
	return writef(c.Out, "Role: %s\n", sess.Role)
}

func runLogout(c *commandContext, _ []string) error {
	wasSignedIn := c.Auth.State().IsAuthenticated()
	c.Auth.Logout(c.Ctx)
	if wasSignedIn {
		return writeln(c.Out, "Signed out.")
	}
	return writeln(c.Out, "Not signed in.")
}

func runStatus(c *commandContext, _ []string) error {
	c.Auth.ExpireIfDue(c.Ctx)

	st := c.Auth.State()
	if !st.IsAuthenticated() {
		return writeln(c.Out, "Not signed in.")
	}
	sess := st.Session
	remaining := time.Until(sess.ExpiresAt).Truncate(time.Minute)
	return writef(c.Out, "Signed in as %s <%s>\nRole: %s\nExpires: %s (in %s)\n",
		displayName(sess.Identity),
		sess.Identity.Email,
		sess.Role,
		sess.ExpiresAt.Local().Format(time.RFC1123),
		remaining,
	)
}

func runScope(c *commandContext, args []string) error {
	opts, err := parseScopeFlags(args)
	if err != nil {
		return err
	}

	c.Auth.ExpireIfDue(c.Ctx)
	role, ok := c.Auth.State().Role()
	if !ok {
		if werr := writeln(c.Out, "Not signed in."); werr != nil {
			return werr
		}
		return errReported
	}

	if opts.Check != "" {
		if role.Allows(domainauth.Category(opts.Check)) {
			return writef(c.Out, "%s: allowed for %s\n", opts.Check, role)
		}
		if werr := writef(c.Out, "%s: denied for %s\n", opts.Check, role); werr != nil {
			return werr
		}
		return errReported
	}

	if err := writef(c.Out, "Role %s may access:\n", role); err != nil {
		return err
	}
	for _, cat := range role.Scope() {
		if err := writef(c.Out, "  %s\n", cat); err != nil {
			return err
		}
	}
	return nil
}

func displayName(id domainauth.Identity) string {
	if id.DisplayName != "" {
		return id.DisplayName
	}
	return id.Email
}

// readPassword reads without echo from a terminal, otherwise one line from In.
func readPassword(c *commandContext) (string, error) {
	if err := writef(c.Out, "Password: "); err != nil {
		return "", err
	}
	if c.stdin != nil {
		b, err := term.ReadPassword(int(c.stdin.Fd())) //nolint:gosec // file descriptors fit in int
		if werr := writeln(c.Out); werr != nil && err == nil {
			err = werr
		}
		return string(b), err
	}
	return readLine(c.In)
}

func readLine(r interface{ ReadString(byte) (string, error) }) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}
