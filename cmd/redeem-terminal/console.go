package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	goRedeem "github.com/MrEthical07/goRedeem"
	"github.com/MrEthical07/goRedeem/workflow"
)

const consoleHelp = `commands:
  login <email> <password>   sign in
  logout                     sign out
  status                     re-check the stored session
  amount <value>             enter the amount to redeem
  scan <card>                submit a scanned gift card
  retry                      scan again after a failure
  resubmit                   resend the failed card with a new receipt
  cancel                     discard the current redemption
  ack                        acknowledge a success
  state                      show the workflow state
  quit                       exit`

// console drives one engine from line-oriented input. Each line is one
// command; output is plain text for the operator.
type console struct {
	engine *goRedeem.Engine
	out    io.Writer
}

func newConsole(engine *goRedeem.Engine, out io.Writer) *console {
	return &console{engine: engine, out: out}
}

// Run reads commands until EOF, "quit" or ctx is done.
func (c *console) Run(ctx context.Context, in io.Reader) error {
	if status, err := c.engine.Gate().Check(ctx); err != nil {
		c.printf("session check failed: %v\n", err)
	} else {
		c.printf("session: %s\n", status)
	}

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.printf("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if done := c.exec(ctx, scanner.Text()); done {
			return nil
		}
	}
}

func (c *console) exec(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		c.printf("%s\n", consoleHelp)
	case "login":
		if len(args) != 2 {
			c.printf("usage: login <email> <password>\n")
			return false
		}
		user, err := c.engine.Session().Login(ctx, args[0], args[1])
		if err != nil {
			c.printf("login failed: %s\n", describeLoginError(err))
			return false
		}
		c.printf("signed in as %s\n", user.DisplayName)
	case "logout":
		if err := c.engine.Session().Logout(ctx); err != nil {
			c.printf("logout: %v\n", err)
			return false
		}
		c.printf("signed out\n")
	case "status":
		status, err := c.engine.Gate().Check(ctx)
		if err != nil {
			c.printf("status: %s (%v)\n", status, err)
			return false
		}
		c.printf("session: %s\n", status)
	default:
		c.workflowCommand(ctx, cmd, args)
	}
	return false
}

func (c *console) workflowCommand(ctx context.Context, cmd string, args []string) {
	wf, err := c.engine.Gate().Workflow()
	if err != nil {
		c.printf("%s: sign in first\n", cmd)
		return
	}

	var snap goRedeem.Snapshot
	switch cmd {
	case "amount":
		if len(args) != 1 {
			c.printf("usage: amount <value>\n")
			return
		}
		snap, err = wf.SubmitAmount(args[0])
	case "scan":
		if len(args) == 0 {
			c.printf("usage: scan <card>\n")
			return
		}
		snap, err = wf.Scanned(ctx, strings.Join(args, " "))
	case "retry":
		snap, err = wf.Retry()
	case "resubmit":
		snap, err = wf.Resubmit(ctx)
	case "cancel":
		snap, err = wf.Cancel()
	case "ack":
		snap, err = wf.Acknowledge()
	case "state":
		snap = wf.State()
	default:
		c.printf("unknown command %q, try help\n", cmd)
		return
	}

	if err != nil && snap.State != workflow.Failed {
		c.printf("%s: %v\n", cmd, err)
		return
	}
	c.printSnapshot(snap)
}

func (c *console) printSnapshot(s goRedeem.Snapshot) {
	switch s.State {
	case workflow.AwaitingAmount:
		c.printf("enter amount\n")
	case workflow.AwaitingScan:
		c.printf("amount %s, scan card\n", workflow.FormatAmount(s.AmountMinor))
	case workflow.Submitting:
		c.printf("submitting %s\n", workflow.FormatAmount(s.AmountMinor))
	case workflow.Succeeded:
		c.printf("redeemed %s receipt %s\n%s\n", workflow.FormatAmount(s.AmountMinor), s.ReceiptNumber, s.Payload)
	case workflow.Failed:
		c.printf("failed: %s (retry, resubmit or cancel)\n", s.Message)
	}
}

func describeLoginError(err error) string {
	switch {
	case errors.Is(err, goRedeem.ErrMissingCredentials):
		return "email and password are required"
	case errors.Is(err, goRedeem.ErrEmailNotFound), errors.Is(err, goRedeem.ErrInvalidPassword),
		errors.Is(err, goRedeem.ErrInvalidCredentials):
		return "incorrect email or password"
	case errors.Is(err, goRedeem.ErrUserDisabled):
		return "account disabled"
	case errors.Is(err, goRedeem.ErrLoginRateLimited):
		return "too many attempts, try again later"
	default:
		return err.Error()
	}
}

func (c *console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}
