package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/abatilo/triage/internal/assign"
	"github.com/abatilo/triage/internal/backlog"
	"github.com/abatilo/triage/internal/blob"
	"github.com/abatilo/triage/internal/config"
	triageerrors "github.com/abatilo/triage/internal/errors"
	"github.com/abatilo/triage/internal/metrics"
	"github.com/abatilo/triage/internal/output"
	"github.com/abatilo/triage/internal/predict"
	"github.com/abatilo/triage/internal/storage"
	"github.com/abatilo/triage/internal/task"
)

//nolint:gochecknoglobals // CLI flags and formatter are package-level by design
var (
	jsonOutput bool
	formatter  output.Formatter

	// closers release what getApp opened; printError runs them before exiting.
	closers []func()
	exit    = os.Exit
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "triage",
		Short: "A task backlog that predicts and assigns",
		Long: "triage - A task backlog that predicts category, type, effort and priority\n" +
			"for new tasks and recommends who should pick them up.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if jsonOutput {
				formatter = output.NewJSONFormatter()
			} else {
				formatter = output.NewHumanFormatter()
			}
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(
		initCmd(),
		addCmd(),
		listCmd(),
		showCmd(),
		editCmd(),
		completeCmd(),
		suggestCmd(),
		assignCmd(),
		statsCmd(),
		importCmd(),
		exportCmd(),
		serveCmd(),
		tokenCmd(),
		leaseCmd(),
	)

	err := rootCmd.ExecuteContext(context.Background())
	runClosers()
	if err != nil {
		exit(1)
	}
}

// app is everything a command needs, built from the environment.
type app struct {
	env      *config.Env
	logger   *slog.Logger
	backend  blob.Backend
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	svc      *backlog.Service
	close    func()
}

func newApp(ctx context.Context) (*app, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	logger := env.NewLogger(os.Stderr)

	backend, location, closeBackend, err := openBackend(ctx, env)
	if err != nil {
		return nil, err
	}

	models, err := predict.Load(env.ModelPath)
	if err != nil {
		closeBackend()
		return nil, err
	}

	registry, m := metrics.NewRegistry()
	engine := assign.NewEngine(
		assign.WithCapacity(env.CapacityHours),
		assign.WithLogger(logger),
	)
	svc := backlog.New(
		storage.NewStore(backend, location),
		models,
		engine,
		backlog.WithMetrics(m),
		backlog.WithLogger(logger),
		backlog.WithLeaseTTL(env.LockTTL),
	)

	logger.Debug("backlog opened",
		"store", location,
		"storage_type", env.StorageEnv.Type,
		"model_version", models.Version(),
		"capacity_hours", env.CapacityHours,
	)

	return &app{
		env:      env,
		logger:   logger,
		backend:  backend,
		registry: registry,
		metrics:  m,
		svc:      svc,
		close:    closeBackend,
	}, nil
}

func openBackend(ctx context.Context, env *config.Env) (blob.Backend, string, func(), error) {
	switch env.StorageEnv.Type {
	case "s3":
		b, err := blob.NewS3(ctx, env.S3Bucket, env.S3Prefix, env.S3Region)
		if err != nil {
			return nil, "", nil, err
		}
		return b, fmt.Sprintf("s3://%s/%s", env.S3Bucket, env.S3Prefix), func() {}, nil
	case "postgres":
		b, err := blob.OpenPostgres(ctx, env.PostgresDSN)
		if err != nil {
			return nil, "", nil, err
		}
		return b, "postgres", func() { _ = b.Close() }, nil
	default:
		dir := env.BaseDir
		if dir == "" {
			var err error
			if dir, err = storage.DefaultLocation(); err != nil {
				return nil, "", nil, err
			}
		}
		b, err := blob.NewLocal(dir)
		if err != nil {
			return nil, "", nil, err
		}
		return b, dir, func() {}, nil
	}
}

// getApp builds the app or exits through printError.
func getApp(cmd *cobra.Command) *app {
	a, err := newApp(cmd.Context())
	if err != nil {
		printError(err)
	}
	closers = append(closers, a.close)
	return a
}

func runClosers() {
	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}
	closers = nil
}

func printOutput(s string) {
	os.Stdout.WriteString(s) //nolint:gosec // stdout write errors are unrecoverable
}

func printError(err error) {
	os.Stdout.WriteString(formatter.FormatError(err)) //nolint:gosec // stdout write errors are unrecoverable
	runClosers()
	exit(1)
}

func parseDate(s string) time.Time {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		printError(InvalidDateError{Value: s})
	}
	return d
}

// initCmd implements 'triage init'.
func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the task store",
		Run: func(cmd *cobra.Command, _ []string) {
			a := getApp(cmd)
			if err := a.svc.Init(cmd.Context(), force); err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage(fmt.Sprintf("Initialized triage at %s", a.svc.Location())))
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reinitialize even if already exists")
	return cmd
}

// addCmd implements 'triage add'.
func addCmd() *cobra.Command {
	var description, due string
	var hours float64
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task; category, type, effort and priority are predicted",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)

			draft := backlog.Draft{
				Title:          args[0],
				Description:    description,
				EstimatedHours: hours,
			}
			if due != "" {
				draft.DueDate = parseDate(due)
			}

			t, err := a.svc.Create(cmd.Context(), draft)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t))
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD, default today)")
	cmd.Flags().Float64Var(&hours, "hours", 0, "Your own effort estimate in hours")
	return cmd
}

// listCmd implements 'triage list'.
func listCmd() *cobra.Command {
	var status, priority string
	var filter storage.Filter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Run: func(cmd *cobra.Command, _ []string) {
			a := getApp(cmd)

			if status != "" {
				s, ok := task.ParseStatus(status)
				if !ok {
					printError(triageerrors.InvalidStatusError{Current: status})
				}
				filter.Status = s
			}
			if priority != "" {
				p, ok := task.ParsePriority(priority)
				if !ok {
					printError(triageerrors.InvalidPriorityError{Value: priority})
				}
				filter.Priority = p
			}

			tasks, err := a.svc.List(cmd.Context(), filter)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTaskList(tasks))
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (todo, in_progress, completed)")
	cmd.Flags().StringVar(&priority, "priority", "", "Only tasks with this priority")
	cmd.Flags().StringVar(&filter.Category, "category", "", "Only tasks in this category")
	cmd.Flags().StringVar(&filter.Type, "type", "", "Only tasks of this type")
	cmd.Flags().StringVar(&filter.Assignee, "assignee", "", "Only tasks assigned to this person")
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "Case-insensitive text search")
	return cmd
}

// showCmd implements 'triage show'.
func showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)
			t, err := a.svc.Get(cmd.Context(), args[0])
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t))
		},
	}
}

// editCmd implements 'triage edit'.
func editCmd() *cobra.Command {
	var due, status, assignee string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a task's due date, status or assignee",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)

			var edit backlog.Edit
			if cmd.Flags().Changed("due") {
				d := parseDate(due)
				edit.DueDate = &d
			}
			if cmd.Flags().Changed("status") {
				s, ok := task.ParseStatus(status)
				if !ok {
					printError(triageerrors.InvalidStatusError{Current: status})
				}
				edit.Status = &s
			}
			if cmd.Flags().Changed("assignee") {
				edit.Assignee = &assignee
			}

			t, err := a.svc.Edit(cmd.Context(), args[0], edit)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t))
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "New due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&status, "status", "", "New status (todo, in_progress, completed)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "New assignee (empty to unassign)")
	return cmd
}

// completeCmd implements 'triage complete'.
func completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)
			t, err := a.svc.Complete(cmd.Context(), args[0])
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatTask(t))
		},
	}
}

// suggestCmd implements 'triage suggest'.
func suggestCmd() *cobra.Command {
	var candidates []string
	cmd := &cobra.Command{
		Use:   "suggest <id>",
		Short: "Recommend an assignee without changing the task",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)
			rec, err := a.svc.Suggest(cmd.Context(), args[0], candidates)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatRecommendation(rec))
		},
	}
	cmd.Flags().StringSliceVarP(&candidates, "candidate", "c", nil, "Candidate assignee (repeatable; default every known assignee)")
	return cmd
}

// assignCmd implements 'triage assign'.
func assignCmd() *cobra.Command {
	var suggest bool
	var candidates []string
	cmd := &cobra.Command{
		Use:   "assign <id> [name]",
		Short: "Assign a task to someone, or to the recommended candidate",
		Args:  cobra.RangeArgs(1, 2), //nolint:mnd // id plus optional name
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)
			ctx := cmd.Context()

			switch {
			case suggest:
				rec, t, err := a.svc.AssignSuggested(ctx, args[0], candidates)
				if err != nil {
					printError(err)
				}
				if jsonOutput {
					printOutput(formatter.FormatRecommendation(rec))
					return
				}
				printOutput(formatter.FormatRecommendation(rec) + formatter.FormatTask(t))
			case len(args) == 2: //nolint:mnd // name given
				t, err := a.svc.Assign(ctx, args[0], args[1])
				if err != nil {
					printError(err)
				}
				printOutput(formatter.FormatTask(t))
			default:
				printError(MissingAssigneeError{ID: args[0]})
			}
		},
	}
	cmd.Flags().BoolVar(&suggest, "suggest", false, "Assign the recommended candidate")
	cmd.Flags().StringSliceVarP(&candidates, "candidate", "c", nil, "Candidate assignee for --suggest (repeatable)")
	return cmd
}

// statsCmd implements 'triage stats'.
func statsCmd() *cobra.Command {
	var assignee string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the backlog",
		Run: func(cmd *cobra.Command, _ []string) {
			a := getApp(cmd)
			summary, err := a.svc.Stats(cmd.Context(), assignee)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatStats(summary))
		},
	}
	cmd.Flags().StringVar(&assignee, "assignee", "", "Only this assignee's tasks")
	return cmd
}

// importCmd implements 'triage import'.
func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Import tasks from a CSV export",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)

			f, err := os.Open(args[0])
			if err != nil {
				printError(err)
			}
			defer f.Close()

			result, err := a.svc.Import(cmd.Context(), f)
			if err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage(fmt.Sprintf(
				"Imported %d task(s), replaced %d", result.Created, result.Replaced,
			)))
		},
	}
}

// exportCmd implements 'triage export'.
func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [csv]",
		Short: "Export every task as CSV (stdout by default)",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			a := getApp(cmd)

			if len(args) == 0 {
				if err := a.svc.Export(cmd.Context(), os.Stdout); err != nil {
					printError(err)
				}
				return
			}

			f, err := os.Create(args[0])
			if err != nil {
				printError(err)
			}
			if err = a.svc.Export(cmd.Context(), f); err != nil {
				f.Close()
				printError(err)
			}
			if err = f.Close(); err != nil {
				printError(err)
			}
			printOutput(formatter.FormatMessage(fmt.Sprintf("Exported to %s", args[0])))
		},
	}
}
