package console

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/nomis52/signup/banner"
	"github.com/nomis52/signup/controller"
	"github.com/nomis52/signup/metrics"
)

// ErrUsage is returned for an unknown command or bad flags.
var ErrUsage = errors.New("usage error")

// Env is what a command reads from and writes to.
type Env struct {
	In       io.Reader
	Out      io.Writer
	Logger   *slog.Logger
	Registry metrics.Registry
}

// Commands lists the subcommands with a one line description each.
var Commands = [][2]string{
	{"list", "Show every activity with its participants"},
	{"signup", "Sign a student up: signup -email E -activity A"},
	{"unregister", "Remove a student: unregister -email E -activity A [-yes]"},
}

// Run executes the subcommand named by args[0] against api. The returned
// error is non-nil when the action failed; its message has already been printed.
func Run(ctx context.Context, api controller.API, env Env, args []string) error {
	if len(args) == 0 {
		printUsage(env.Out)
		return ErrUsage
	}
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	if env.Registry == nil {
		env.Registry = metrics.NopRegistry{}
	}

	client, err := controller.New(api, NewPage(env.Out), NewNotifier(env.Out),
		controller.WithLogger(env.Logger),
		controller.WithMetrics(env.Registry),
	)
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		return client.LoadActivities(ctx)
	case "signup":
		return runSignup(ctx, client, env, args[1:])
	case "unregister":
		return runUnregister(ctx, client, env, args[1:])
	default:
		fmt.Fprintf(env.Out, "unknown command %q\n", args[0])
		printUsage(env.Out)
		return ErrUsage
	}
}

func runSignup(ctx context.Context, client *controller.ActivityClient, env Env, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	email := fs.String("email", "", "Student email")
	activityName := fs.String("activity", "", "Activity name")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	return client.SubmitSignup(ctx, *email, *activityName)
}

func runUnregister(ctx context.Context, client *controller.ActivityClient, env Env, args []string) error {
	fs := flag.NewFlagSet("unregister", flag.ContinueOnError)
	fs.SetOutput(env.Out)
	email := fs.String("email", "", "Student email")
	activityName := fs.String("activity", "", "Activity name")
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *email == "" || *activityName == "" {
		client.ShowMessage(controller.MsgFillAllFields, banner.Error)
		return controller.ErrMissingFields
	}

	confirm := Confirm(env.In, env.Out)
	if *yes {
		confirm = AlwaysConfirm
	}
	err := client.SubmitUnregister(ctx, *email, *activityName, confirm)
	if errors.Is(err, controller.ErrDeclined) {
		fmt.Fprintln(env.Out, "Cancelled.")
		return nil
	}
	return err
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	for _, c := range Commands {
		fmt.Fprintf(w, "  %-11s %s\n", c[0], c[1])
	}
}
