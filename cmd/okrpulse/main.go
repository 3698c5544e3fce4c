package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"okrpulse/internal/audit"
	"okrpulse/internal/config"
	"okrpulse/internal/engine"
	"okrpulse/internal/metrics"
	"okrpulse/internal/notify"
	"okrpulse/internal/okr"
	"okrpulse/internal/quarter"
	"okrpulse/internal/remind"
	"okrpulse/internal/report"
	"okrpulse/internal/store"
	"okrpulse/internal/workspace"
)

const appName = "okrpulse"

func main() {
	flag.String("workspace", "", "Path to workspace root")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: OKR progress and lifecycle tracking\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init     Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  okr      Manage objectives")
		fmt.Fprintln(os.Stderr, "  checkin  Submit and inspect check-ins")
		fmt.Fprintln(os.Stderr, "  quarter  Show available quarters")
		fmt.Fprintln(os.Stderr, "  career   Track career qualification")
		fmt.Fprintln(os.Stderr, "  remind   Surface objectives due for a check-in")
		fmt.Fprintln(os.Stderr, "  help     Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	workspacePath, remaining, err := extractWorkspaceFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	args := remaining
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		flag.Usage()
		return
	}

	switch args[0] {
	case "init":
		if err := runInit(args[1:], workspacePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "okr":
		if err := runOKR(args[1:], workspacePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "checkin":
		if err := runCheckIn(args[1:], workspacePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "quarter":
		if err := runQuarter(args[1:], workspacePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "career":
		if err := runCareer(args[1:], workspacePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "remind":
		if err := runRemind(args[1:], workspacePath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
}

func extractWorkspaceFlag(args []string) (string, []string, error) {
	var workspacePath string
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--workspace" {
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--workspace requires a value")
			}
			workspacePath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--workspace=") {
			workspacePath = strings.TrimPrefix(arg, "--workspace=")
			continue
		}
		remaining = append(remaining, arg)
	}
	return workspacePath, remaining, nil
}

// appEnv bundles the opened workspace handles a subcommand needs.
type appEnv struct {
	Workspace *workspace.Workspace
	Store     *store.Store
	Engine    *engine.Engine
	Config    config.Config
	Audit     *audit.Logger
}

func openEnv(workspacePath string) (*appEnv, error) {
	if strings.TrimSpace(workspacePath) == "" {
		return nil, fmt.Errorf("--workspace is required")
	}
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return nil, err
	}
	if err := ws.EnsureDirs(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return nil, err
	}
	s, err := store.Open(ws.DBPath)
	if err != nil {
		return nil, err
	}
	return &appEnv{
		Workspace: ws,
		Store:     s,
		Engine:    engine.New(s, cfg.Limits),
		Config:    cfg,
		Audit:     audit.NewLogger(ws.AuditDBPath),
	}, nil
}

func (env *appEnv) Close() {
	if env != nil && env.Store != nil {
		_ = env.Store.Close()
	}
}

func resolveUser(user string) (string, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		user = os.Getenv("OKRPULSE_USER")
	}
	if user == "" {
		return "", fmt.Errorf("--user is required (or set OKRPULSE_USER)")
	}
	return user, nil
}

func resolveOrg(org string) string {
	org = strings.TrimSpace(org)
	if org == "" {
		org = os.Getenv("OKRPULSE_ORG")
	}
	if org == "" {
		org = "default"
	}
	return org
}

func runInit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(workspacePath) == "" {
		return fmt.Errorf("--workspace is required")
	}

	root, err := workspace.ResolveRoot(workspacePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	ws, err := workspace.Resolve(root)
	if err != nil {
		return err
	}
	if err := ws.EnsureDirs(); err != nil {
		return err
	}
	if err := config.WriteDefault(ws.ConfigPath); err != nil {
		return err
	}
	s, err := store.Open(ws.DBPath)
	if err != nil {
		return err
	}
	_ = s.Close()

	logger := audit.NewLogger(ws.AuditDBPath)
	if err := logger.LogEvent("cli", "workspace_initialized", map[string]any{"workspace": ws.Root}); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	fmt.Fprintf(os.Stdout, "Initialized workspace: %s\n", ws.Root)
	fmt.Fprintln(os.Stdout, "Next steps:")
	fmt.Fprintf(os.Stdout, "  %s okr create --workspace %s --user <you> --title \"...\" --kr \"title|start|target|unit\"\n", appName, ws.Root)
	fmt.Fprintf(os.Stdout, "  %s okr list --workspace %s --user <you>\n", appName, ws.Root)
	return nil
}

func runOKR(args []string, workspacePath string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s okr: missing subcommand", appName)
	}

	switch args[0] {
	case "create":
		return runOKRCreate(args[1:], workspacePath)
	case "list":
		return runOKRList(args[1:], workspacePath)
	case "show":
		return runOKRShow(args[1:], workspacePath)
	case "archive", "delete":
		return runOKRArchive(args[1:], workspacePath)
	case "restore":
		return runOKRRestore(args[1:], workspacePath)
	case "focus":
		return runOKRFocus(args[1:], workspacePath, true)
	case "unfocus":
		return runOKRFocus(args[1:], workspacePath, false)
	case "duplicate":
		return runOKRDuplicate(args[1:], workspacePath)
	default:
		return fmt.Errorf("%s okr: unknown subcommand %q", appName, args[0])
	}
}

// stringList collects a repeatable flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// parseKRSpec parses a "title|start|target[|unit]" key result flag.
func parseKRSpec(spec string) (okr.KeyResultDraft, error) {
	parts := strings.Split(spec, "|")
	if len(parts) < 3 || len(parts) > 4 {
		return okr.KeyResultDraft{}, fmt.Errorf("invalid --kr %q: want title|start|target[|unit]", spec)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return okr.KeyResultDraft{}, fmt.Errorf("invalid --kr start in %q: %w", spec, err)
	}
	target, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return okr.KeyResultDraft{}, fmt.Errorf("invalid --kr target in %q: %w", spec, err)
	}
	kr := okr.KeyResultDraft{
		Title:  strings.TrimSpace(parts[0]),
		Start:  start,
		Target: target,
	}
	if len(parts) == 4 {
		kr.Unit = strings.TrimSpace(parts[3])
	}
	return kr, nil
}

func runOKRCreate(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("okr create", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "Owner user ID (default: $OKRPULSE_USER)")
	org := fs.String("org", "", "Org ID (default: $OKRPULSE_ORG)")
	title := fs.String("title", "", "Objective title")
	quarterLabel := fs.String("quarter", "", "Target quarter, e.g. \"Q3 2026\" (default: current)")
	category := fs.String("category", "performance", "Category: performance, skill, learning, career")
	scope := fs.String("scope", "personal", "Scope: personal, team, company")
	confidence := fs.Int("confidence", okr.DefaultConfidence, "Initial confidence (1-5)")
	dueStr := fs.String("due", "", "Due date override (YYYY-MM-DD, default: quarter end)")
	fromFile := fs.String("from-file", "", "Create objectives from a YAML file instead of flags")
	var krSpecs stringList
	fs.Var(&krSpecs, "kr", "Key result as title|start|target[|unit] (repeatable)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ownerID, err := resolveUser(*user)
	if err != nil {
		return err
	}
	orgID := resolveOrg(*org)

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	var drafts []okr.ObjectiveDraft
	if *fromFile != "" {
		path, err := env.Workspace.ResolvePath(*fromFile)
		if err != nil {
			return fmt.Errorf("resolve --from-file: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		drafts, err = okr.ParseObjectiveFile(data, path)
		if err != nil {
			return err
		}
	} else {
		draft := okr.ObjectiveDraft{
			Title:      *title,
			Quarter:    *quarterLabel,
			Category:   *category,
			Scope:      *scope,
			Confidence: *confidence,
		}
		if draft.Quarter == "" {
			draft.Quarter = quarter.Current(time.Now().UTC())
		}
		for _, spec := range krSpecs {
			kr, err := parseKRSpec(spec)
			if err != nil {
				return err
			}
			draft.KeyResults = append(draft.KeyResults, kr)
		}
		drafts = []okr.ObjectiveDraft{draft}
	}

	var due *time.Time
	if *dueStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", *dueStr, time.UTC)
		if err != nil {
			return fmt.Errorf("parse --due: %w", err)
		}
		due = &parsed
	}

	ctx := context.Background()
	for _, draft := range drafts {
		startPayload := map[string]any{
			"user":    ownerID,
			"title":   draft.Title,
			"quarter": draft.Quarter,
		}
		if err := env.Audit.LogEvent(ownerID, "okr_create_started", startPayload); err != nil {
			fmt.Fprintln(os.Stderr, "audit log failed:", err)
		}

		obj, err := env.Engine.CreateObjective(ctx, engine.CreateObjectiveRequest{
			OwnerID: ownerID,
			OrgID:   orgID,
			Draft:   draft,
			DueDate: due,
		})

		finishPayload := map[string]any{
			"user":    ownerID,
			"title":   draft.Title,
			"quarter": draft.Quarter,
		}
		if err != nil {
			finishPayload["error"] = err.Error()
			_ = env.Audit.LogEvent(ownerID, "okr_create_finished", finishPayload)
			return err
		}
		finishPayload["objective_id"] = obj.ID
		_ = env.Audit.LogEvent(ownerID, "okr_create_finished", finishPayload)

		fmt.Fprintf(os.Stdout, "Created objective %s (%s, %d key results)\n", obj.ID, obj.Quarter, len(obj.KeyResults))
	}
	return nil
}

func runOKRList(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("okr list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "Owner user ID (default: $OKRPULSE_USER)")
	quarterLabel := fs.String("quarter", "", "Quarter filter (default: current)")
	all := fs.Bool("all", false, "Include archived objectives")

	if err := fs.Parse(args); err != nil {
		return err
	}
	ownerID, err := resolveUser(*user)
	if err != nil {
		return err
	}

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	label := *quarterLabel
	if label == "" {
		label = quarter.Current(time.Now().UTC())
	}

	objs, err := env.Store.ListObjectives(context.Background(), ownerID, label, *all)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		fmt.Fprintf(os.Stdout, "No objectives for %s\n", label)
		return nil
	}

	for _, obj := range objs {
		marks := ""
		if obj.IsFocus {
			marks += " [focus]"
		}
		if !obj.IsActive {
			marks += " [archived]"
		}
		band := metrics.InterpretScore(metrics.ProgressToScore(obj.Progress))
		fmt.Fprintf(os.Stdout, "%s  %3d%%  %-9s %s%s\n", obj.ID, obj.Progress, obj.Status, obj.Title, marks)
		fmt.Fprintf(os.Stdout, "    score %.1f (%s)\n", metrics.ProgressToScore(obj.Progress), band.Label)
	}
	return nil
}

func runOKRShow(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("okr show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "Owner user ID (default: $OKRPULSE_USER)")

	objectiveID, remaining := splitLeadingArg(args)
	if err := fs.Parse(remaining); err != nil {
		return err
	}
	if objectiveID == "" {
		if rest := fs.Args(); len(rest) > 0 {
			objectiveID = rest[0]
		}
	}
	if objectiveID == "" {
		return fmt.Errorf("objective id is required")
	}
	ownerID, err := resolveUser(*user)
	if err != nil {
		return err
	}

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	obj, err := env.Store.GetObjective(context.Background(), ownerID, objectiveID)
	if err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("objective not found: %s", objectiveID)
	}

	snap, err := report.Snapshot(obj)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, snap)
	if info, ok := metrics.ConfidenceInfo(obj.Confidence); ok {
		fmt.Fprintf(os.Stdout, "confidence_label: %s (%s)\n", info.Label, info.Color)
	}
	if obj.NextCheckInAt != nil {
		fmt.Fprintf(os.Stdout, "next_checkin: %s\n", obj.NextCheckInAt.Format("2006-01-02"))
	}
	return nil
}

func runOKRArchive(args []string, workspacePath string) error {
	return runLifecycleOp(args, workspacePath, "okr_archived", func(ctx context.Context, env *appEnv, ownerID, objectiveID string) (*okr.Objective, error) {
		return env.Engine.Archive(ctx, ownerID, objectiveID)
	})
}

func runOKRRestore(args []string, workspacePath string) error {
	return runLifecycleOp(args, workspacePath, "okr_restored", func(ctx context.Context, env *appEnv, ownerID, objectiveID string) (*okr.Objective, error) {
		return env.Engine.Restore(ctx, ownerID, objectiveID)
	})
}

func runOKRFocus(args []string, workspacePath string, focus bool) error {
	event := "okr_focused"
	if !focus {
		event = "okr_unfocused"
	}
	return runLifecycleOp(args, workspacePath, event, func(ctx context.Context, env *appEnv, ownerID, objectiveID string) (*okr.Objective, error) {
		return env.Engine.SetFocus(ctx, ownerID, objectiveID, focus)
	})
}

func runLifecycleOp(args []string, workspacePath, event string, op func(context.Context, *appEnv, string, string) (*okr.Objective, error)) error {
	fs := flag.NewFlagSet("okr "+event, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "Owner user ID (default: $OKRPULSE_USER)")

	objectiveID, remaining := splitLeadingArg(args)
	if err := fs.Parse(remaining); err != nil {
		return err
	}
	if objectiveID == "" {
		if rest := fs.Args(); len(rest) > 0 {
			objectiveID = rest[0]
		}
	}
	if objectiveID == "" {
		return fmt.Errorf("objective id is required")
	}
	ownerID, err := resolveUser(*user)
	if err != nil {
		return err
	}

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	obj, err := op(context.Background(), env, ownerID, objectiveID)
	payload := map[string]any{
		"user":         ownerID,
		"objective_id": objectiveID,
	}
	if err != nil {
		payload["error"] = err.Error()
		_ = env.Audit.LogEvent(ownerID, event, payload)
		return err
	}
	_ = env.Audit.LogEvent(ownerID, event, payload)

	fmt.Fprintf(os.Stdout, "%s: %s\n", event, obj.Title)
	return nil
}

func runOKRDuplicate(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("okr duplicate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "Owner user ID (default: $OKRPULSE_USER)")
	toQuarter := fs.String("to-quarter", "", "Target quarter (default: quarter after the source's)")
	reset := fs.Bool("reset", false, "Reset progress and confidence on the copy")
	copyKRs := fs.Bool("copy-krs", true, "Copy key results onto the copy")
	resetValues := fs.Bool("reset-values", false, "Reset copied key result values to start")

	objectiveID, remaining := splitLeadingArg(args)
	if err := fs.Parse(remaining); err != nil {
		return err
	}
	if objectiveID == "" {
		if rest := fs.Args(); len(rest) > 0 {
			objectiveID = rest[0]
		}
	}
	if objectiveID == "" {
		return fmt.Errorf("objective id is required")
	}
	ownerID, err := resolveUser(*user)
	if err != nil {
		return err
	}

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	target := *toQuarter
	if target == "" {
		src, err := env.Store.GetObjective(ctx, ownerID, objectiveID)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("objective not found: %s", objectiveID)
		}
		target = quarter.Next(src.Quarter, time.Now().UTC())
	}

	startPayload := map[string]any{
		"user":           ownerID,
		"objective_id":   objectiveID,
		"target_quarter": target,
	}
	if err := env.Audit.LogEvent(ownerID, "okr_duplicate_started", startPayload); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	dup, err := env.Engine.Duplicate(ctx, engine.DuplicateRequest{
		OwnerID:        ownerID,
		ObjectiveID:    objectiveID,
		TargetQuarter:  target,
		ResetProgress:  *reset,
		CopyKeyResults: *copyKRs,
		ResetValues:    *resetValues,
	})

	finishPayload := map[string]any{
		"user":           ownerID,
		"objective_id":   objectiveID,
		"target_quarter": target,
	}
	if err != nil {
		finishPayload["error"] = err.Error()
		_ = env.Audit.LogEvent(ownerID, "okr_duplicate_finished", finishPayload)
		return err
	}
	finishPayload["copy_id"] = dup.ID
	_ = env.Audit.LogEvent(ownerID, "okr_duplicate_finished", finishPayload)

	fmt.Fprintf(os.Stdout, "Duplicated into %s: %s\n", dup.Quarter, dup.ID)
	return nil
}

func runCheckIn(args []string, workspacePath string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s checkin: missing subcommand", appName)
	}

	switch args[0] {
	case "submit":
		return runCheckInSubmit(args[1:], workspacePath)
	case "history":
		return runCheckInHistory(args[1:], workspacePath)
	default:
		return fmt.Errorf("%s checkin: unknown subcommand %q", appName, args[0])
	}
}

func runCheckInSubmit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("checkin submit", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "Owner user ID (default: $OKRPULSE_USER)")
	confidence := fs.Int("confidence", okr.DefaultConfidence, "Confidence rating (1-5)")
	comment := fs.String("comment", "", "Optional reflection comment")
	blockers := fs.String("blockers", "", "Optional blockers note")
	valuesFile := fs.String("values", "", "YAML file with key result value updates")
	showDiff := fs.Bool("diff", false, "Print a before/after diff of the objective")
	var sets stringList
	fs.Var(&sets, "set", "Key result update as kr-id=value (repeatable)")

	objectiveID, remaining := splitLeadingArg(args)
	if err := fs.Parse(remaining); err != nil {
		return err
	}
	if objectiveID == "" {
		if rest := fs.Args(); len(rest) > 0 {
			objectiveID = rest[0]
		}
	}
	if objectiveID == "" {
		return fmt.Errorf("objective id is required")
	}
	ownerID, err := resolveUser(*user)
	if err != nil {
		return err
	}

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	var updates []okr.ValueUpdate
	if *valuesFile != "" {
		path, err := env.Workspace.ResolvePath(*valuesFile)
		if err != nil {
			return fmt.Errorf("resolve --values: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		updates, err = okr.ParseValuesFile(data)
		if err != nil {
			return err
		}
	}
	for _, spec := range sets {
		idx := strings.Index(spec, "=")
		if idx <= 0 {
			return fmt.Errorf("invalid --set %q: want kr-id=value", spec)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(spec[idx+1:]), 64)
		if err != nil {
			return fmt.Errorf("invalid --set value in %q: %w", spec, err)
		}
		updates = append(updates, okr.ValueUpdate{
			KeyResultID: strings.TrimSpace(spec[:idx]),
			Value:       value,
		})
	}

	startPayload := map[string]any{
		"user":         ownerID,
		"objective_id": objectiveID,
		"updates":      len(updates),
	}
	if err := env.Audit.LogEvent(ownerID, "checkin_started", startPayload); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	ci, obj, err := env.Engine.SubmitCheckIn(context.Background(), engine.CheckInRequest{
		OwnerID:     ownerID,
		ObjectiveID: objectiveID,
		Confidence:  *confidence,
		Comment:     *comment,
		Blockers:    *blockers,
		Updates:     updates,
	})

	finishPayload := map[string]any{
		"user":         ownerID,
		"objective_id": objectiveID,
	}
	if err != nil {
		finishPayload["error"] = err.Error()
		_ = env.Audit.LogEvent(ownerID, "checkin_finished", finishPayload)
		return err
	}
	finishPayload["checkin_id"] = ci.ID
	finishPayload["progress"] = obj.Progress
	_ = env.Audit.LogEvent(ownerID, "checkin_finished", finishPayload)

	fmt.Fprintf(os.Stdout, "Check-in recorded: %s\n", ci.ID)
	fmt.Fprintf(os.Stdout, "Progress: %d%% -> %d%%, status %s\n",
		ci.ChangeDetails.PreviousProgress, ci.ChangeDetails.NewProgress, obj.Status)
	if obj.NextCheckInAt != nil {
		fmt.Fprintf(os.Stdout, "Next check-in due: %s\n", obj.NextCheckInAt.Format("2006-01-02"))
	}

	if *showDiff {
		text, err := report.CheckInDiff(obj, *ci)
		if err != nil {
			return err
		}
		if text != "" {
			fmt.Fprint(os.Stdout, text)
		}
	}
	return nil
}

func runCheckInHistory(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("checkin history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "Owner user ID (default: $OKRPULSE_USER)")
	limit := fs.Int("limit", 20, "Maximum check-ins to show")
	showDiff := fs.Bool("diff", false, "Print a before/after diff per check-in")

	objectiveID, remaining := splitLeadingArg(args)
	if err := fs.Parse(remaining); err != nil {
		return err
	}
	if objectiveID == "" {
		if rest := fs.Args(); len(rest) > 0 {
			objectiveID = rest[0]
		}
	}
	if objectiveID == "" {
		return fmt.Errorf("objective id is required")
	}
	ownerID, err := resolveUser(*user)
	if err != nil {
		return err
	}

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	obj, err := env.Store.GetObjective(ctx, ownerID, objectiveID)
	if err != nil {
		return err
	}
	if obj == nil {
		return fmt.Errorf("objective not found: %s", objectiveID)
	}

	checkins, err := env.Store.ListCheckIns(ctx, ownerID, objectiveID, *limit)
	if err != nil {
		return err
	}
	if len(checkins) == 0 {
		fmt.Fprintln(os.Stdout, "No check-ins yet")
		return nil
	}

	for _, ci := range checkins {
		label := ""
		if info, ok := metrics.ConfidenceInfo(ci.Confidence); ok {
			label = " (" + info.Label + ")"
		}
		fmt.Fprintf(os.Stdout, "%s  %d%% -> %d%%  confidence %d%s\n",
			ci.CreatedAt.Format("2006-01-02 15:04"),
			ci.ChangeDetails.PreviousProgress, ci.ChangeDetails.NewProgress,
			ci.Confidence, label)
		if ci.Comment != "" {
			fmt.Fprintf(os.Stdout, "    comment: %s\n", ci.Comment)
		}
		if ci.Blockers != "" {
			fmt.Fprintf(os.Stdout, "    blockers: %s\n", ci.Blockers)
		}
		if *showDiff {
			text, err := report.CheckInDiff(obj, ci)
			if err != nil {
				return err
			}
			if text != "" {
				fmt.Fprint(os.Stdout, text)
			}
		}
	}
	return nil
}

func runQuarter(args []string, workspacePath string) error {
	if len(args) > 0 && args[0] != "list" {
		return fmt.Errorf("%s quarter: unknown subcommand %q", appName, args[0])
	}

	now := time.Now().UTC()
	for _, opt := range quarter.Available(now) {
		start, end := quarter.DateRange(opt.Label, now)
		mark := ""
		if opt.Current {
			mark = "  (current)"
		}
		fmt.Fprintf(os.Stdout, "%s  %s - %s%s\n",
			opt.Label, start.Format("2006-01-02"), end.Format("2006-01-02"), mark)
	}
	return nil
}

func runCareer(args []string, workspacePath string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s career: missing subcommand", appName)
	}

	switch args[0] {
	case "show":
		return runCareerShow(args[1:], workspacePath)
	case "record":
		return runCareerRecord(args[1:], workspacePath)
	default:
		return fmt.Errorf("%s career: unknown subcommand %q", appName, args[0])
	}
}

func runCareerShow(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("career show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "User ID (default: $OKRPULSE_USER)")
	org := fs.String("org", "", "Org ID (default: $OKRPULSE_ORG)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	userID, err := resolveUser(*user)
	if err != nil {
		return err
	}
	orgID := resolveOrg(*org)

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	p, err := env.Store.GetCareerProgress(context.Background(), userID, orgID)
	if err != nil {
		return err
	}

	required := env.Config.Limits.CareerRequired
	fmt.Fprintf(os.Stdout, "Qualifying OKRs: %d of %d required\n", p.QualifyingOKRCount, required)
	fmt.Fprintf(os.Stdout, "Total attempted: %d\n", p.TotalOKRsAttempted)
	if p.LevelID != "" {
		fmt.Fprintf(os.Stdout, "Level: %s\n", p.LevelID)
	}
	if env.Engine.Qualifies(p) {
		fmt.Fprintln(os.Stdout, "Qualifies for next level")
	} else {
		fmt.Fprintf(os.Stdout, "Needs %d more qualifying OKRs\n", required-p.QualifyingOKRCount)
	}
	return nil
}

func runCareerRecord(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("career record", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	user := fs.String("user", "", "User ID (default: $OKRPULSE_USER)")
	org := fs.String("org", "", "Org ID (default: $OKRPULSE_ORG)")
	qualifying := fs.Int("qualifying", -1, "Qualifying OKR count")
	attempted := fs.Int("attempted", -1, "Total OKRs attempted")
	level := fs.String("level", "", "Level ID")

	if err := fs.Parse(args); err != nil {
		return err
	}
	userID, err := resolveUser(*user)
	if err != nil {
		return err
	}
	orgID := resolveOrg(*org)

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	ctx := context.Background()
	p, err := env.Store.GetCareerProgress(ctx, userID, orgID)
	if err != nil {
		return err
	}
	p.UserID = userID
	p.OrgID = orgID
	if *qualifying >= 0 {
		p.QualifyingOKRCount = *qualifying
	}
	if *attempted >= 0 {
		p.TotalOKRsAttempted = *attempted
	}
	if *level != "" {
		p.LevelID = *level
	}

	if err := env.Store.UpsertCareerProgress(ctx, p); err != nil {
		return err
	}
	payload := map[string]any{
		"user":       userID,
		"org":        orgID,
		"qualifying": p.QualifyingOKRCount,
		"attempted":  p.TotalOKRsAttempted,
	}
	_ = env.Audit.LogEvent(userID, "career_recorded", payload)

	fmt.Fprintf(os.Stdout, "Recorded career progress: %d qualifying, %d attempted\n",
		p.QualifyingOKRCount, p.TotalOKRsAttempted)
	return nil
}

func runRemind(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("remind", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	notifyFlag := fs.Bool("notify", false, "Send system notifications (also via config notify: true)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	env, err := openEnv(workspacePath)
	if err != nil {
		return err
	}
	defer env.Close()

	r := &remind.Reminder{
		Store:    env.Store,
		Notifier: &notify.Notifier{Enabled: *notifyFlag || env.Config.Notify},
	}
	n, err := r.Run(context.Background(), os.Stdout)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(os.Stdout, "No check-ins due")
	}
	return nil
}

// splitLeadingArg peels off a leading positional argument, leaving the
// flags for the flag set. The argument is also accepted after flags.
func splitLeadingArg(args []string) (string, []string) {
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return args[0], args[1:]
	}
	return "", args
}
