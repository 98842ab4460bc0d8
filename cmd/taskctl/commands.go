package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"task-manager/internal/client"
	"task-manager/internal/filter"
	"task-manager/internal/logger"
	"task-manager/internal/model"
)

type cli struct {
	state  *client.State
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
}

func newCLI(server string, verbose bool, stdout, stderr io.Writer) *cli {
	log := logger.Discard()
	if verbose {
		log = logger.NewWithOutput(stderr, "taskctl", "debug")
	}
	return &cli{
		state:  client.NewState(client.New(server, nil), log),
		stdout: stdout,
		stderr: stderr,
		now:    time.Now,
	}
}

func (c *cli) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

// report prints the state's notice after a successful mutation.
func (c *cli) report(err error) error {
	if err != nil {
		if msg := c.state.Error(); msg != "" {
			return fmt.Errorf("%s (%w)", msg, err)
		}
		return err
	}
	fmt.Fprintln(c.stdout, c.state.Notice())
	return nil
}

func (c *cli) list(ctx context.Context, args []string) error {
	fs := c.flags("list")
	var criteria filter.Criteria
	var tab, sortKey string
	fs.StringVarP(&criteria.Search, "search", "s", "", "case-insensitive text in title or description")
	fs.StringVar(&criteria.Category, "category", filter.All, "category or all")
	fs.StringVar(&criteria.Priority, "priority", filter.All, "priority or all")
	fs.StringVar(&tab, "tab", string(filter.TabAll), "all, today, upcoming, overdue or completed")
	fs.StringVar(&sortKey, "sort", string(filter.SortCreated), "created, due, priority or title")
	if err := fs.Parse(args); err != nil {
		return err
	}

	criteria.Tab = filter.Tab(tab)
	if err := criteria.Validate(); err != nil {
		return err
	}
	key, err := filter.ParseSortKey(sortKey)
	if err != nil {
		return err
	}

	if err := c.state.Refresh(ctx); err != nil {
		return c.report(err)
	}

	now := c.now()
	visible := c.state.Visible(criteria, key, now)
	if len(visible) == 0 {
		fmt.Fprintln(c.stdout, "No tasks found")
		return nil
	}

	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tPRIORITY\tCATEGORY\tDUE\tTITLE")
	for _, t := range visible {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, doneMark(t, now), t.Priority, t.Category, dueLabel(t, now), t.Title)
	}
	return w.Flush()
}

func doneMark(t model.Task, now time.Time) string {
	switch {
	case t.Completed:
		return "x"
	case t.Overdue(now):
		return "!"
	default:
		return " "
	}
}

func dueLabel(t model.Task, now time.Time) string {
	if t.DueDate == nil {
		return "-"
	}
	label := t.DueDate.In(now.Location()).Format("2006-01-02 15:04")
	switch {
	case t.Overdue(now):
		label += " (overdue)"
	case t.DueOn(now):
		label += " (today)"
	}
	return label
}

func (c *cli) stats(ctx context.Context, args []string) error {
	if err := c.flags("stats").Parse(args); err != nil {
		return err
	}
	if err := c.state.Refresh(ctx); err != nil {
		return c.report(err)
	}

	st := c.state.Stats(c.now())
	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Total\t%d\n", st.TotalTasks)
	fmt.Fprintf(w, "Completed\t%d\n", st.CompletedTasks)
	fmt.Fprintf(w, "Pending\t%d\n", st.PendingTasks)
	fmt.Fprintf(w, "Completion\t%d%%\n", st.RoundedRate())
	fmt.Fprintf(w, "Due today\t%d\n", st.DueTodayTasks)
	fmt.Fprintf(w, "Overdue\t%d\n", st.OverdueTasksCount)
	return w.Flush()
}

func (c *cli) add(ctx context.Context, args []string) error {
	fs := c.flags("add")
	draft := client.NewDraft()
	var priority, category string
	fs.StringVarP(&draft.Description, "description", "d", "", "longer description")
	fs.StringVarP(&priority, "priority", "p", string(model.DefaultPriority), "low, medium or high")
	fs.StringVarP(&category, "category", "c", string(model.DefaultCategory), "task category")
	fs.StringVar(&draft.DueDate, "due", "", "due date, e.g. 2026-10-20 or 2026-10-20T18:00")
	if err := fs.Parse(args); err != nil {
		return err
	}

	draft.Title = strings.Join(fs.Args(), " ")
	draft.Priority = model.Priority(priority)
	draft.Category = model.Category(category)

	c.state.SetDraft(draft)
	return c.report(c.state.AddDraft(ctx))
}

func (c *cli) toggle(ctx context.Context, args []string) error {
	fs := c.flags("toggle")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("toggle needs exactly one task id")
	}
	if err := c.state.Refresh(ctx); err != nil {
		return c.report(err)
	}
	return c.report(c.state.ToggleComplete(ctx, fs.Arg(0)))
}

func (c *cli) edit(ctx context.Context, args []string) error {
	fs := c.flags("edit")
	var title, description, priority, category, due string
	var clearDue bool
	fs.StringVarP(&title, "title", "t", "", "new title")
	fs.StringVarP(&description, "description", "d", "", "new description")
	fs.StringVarP(&priority, "priority", "p", "", "low, medium or high")
	fs.StringVarP(&category, "category", "c", "", "task category")
	fs.StringVar(&due, "due", "", "new due date")
	fs.BoolVar(&clearDue, "clear-due", false, "remove the due date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("edit needs exactly one task id")
	}

	var upd client.TaskUpdate
	if fs.Changed("title") {
		upd.Title = &title
	}
	if fs.Changed("description") {
		upd.Description = &description
	}
	if fs.Changed("priority") {
		p := model.Priority(priority)
		upd.Priority = &p
	}
	if fs.Changed("category") {
		cat := model.Category(category)
		upd.Category = &cat
	}
	switch {
	case clearDue && fs.Changed("due"):
		return fmt.Errorf("--due and --clear-due are exclusive")
	case clearDue:
		empty := ""
		upd.DueDate = &empty
	case fs.Changed("due"):
		upd.DueDate = &due
	}
	if upd == (client.TaskUpdate{}) {
		return fmt.Errorf("nothing to change")
	}

	return c.report(c.state.Update(ctx, fs.Arg(0), upd))
}

func (c *cli) remove(ctx context.Context, args []string) error {
	fs := c.flags("rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("rm needs exactly one task id")
	}
	return c.report(c.state.Delete(ctx, fs.Arg(0)))
}

// reorder takes either "<id> <position>" (1-based) to move one task, or
// the full list of ids in the new order.
func (c *cli) reorder(ctx context.Context, args []string) error {
	fs := c.flags("reorder")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("reorder needs <id> <position> or the full id list")
	}
	if err := c.state.Refresh(ctx); err != nil {
		return c.report(err)
	}

	if fs.NArg() == 2 {
		if pos, err := strconv.Atoi(fs.Arg(1)); err == nil {
			return c.report(c.state.Move(ctx, fs.Arg(0), pos-1))
		}
	}
	return c.report(c.state.Reorder(ctx, fs.Args()))
}
