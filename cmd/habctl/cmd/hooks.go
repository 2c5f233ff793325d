package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/navlab-tools/habctl/internal/hooks"
)

var hooksAllFiles bool

// hooksCmd represents the hooks command
var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Run the project's formatting and lint rules",
}

// hooksRunCmd represents the hooks run command
var hooksRunCmd = &cobra.Command{
	Use:   "run [files...]",
	Short: "Run all rules over the given files",
	Long: `Runs every configured rule over the changeset. Rules with no matching
files are skipped. A failing rule fails the command but the remaining
rules still run.`,
	RunE: runHooksRun,
}

// hooksListCmd represents the hooks list command
var hooksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured rules",
	Args:  cobra.NoArgs,
	RunE:  runHooksList,
}

// hooksSyncCmd represents the hooks sync command
var hooksSyncCmd = &cobra.Command{
	Use:   "sync [files...]",
	Short: "Synchronize paired tutorial scripts and notebooks",
	RunE:  runHooksSync,
}

// hooksWatchCmd represents the hooks watch command
var hooksWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run matching rules when files change",
	Args:  cobra.NoArgs,
	RunE:  runHooksWatch,
}

func init() {
	rootCmd.AddCommand(hooksCmd)
	hooksCmd.AddCommand(hooksRunCmd)
	hooksCmd.AddCommand(hooksListCmd)
	hooksCmd.AddCommand(hooksSyncCmd)
	hooksCmd.AddCommand(hooksWatchCmd)

	hooksRunCmd.Flags().BoolVar(&hooksAllFiles, "all-files", false, "run over every file in the tree, not just the given ones")
	hooksSyncCmd.Flags().BoolVar(&hooksAllFiles, "all-files", false, "synchronize every pair, not just the given files")
}

func loadPipeline() (*hooks.Pipeline, error) {
	s := currentSettings()
	path := s.HooksPath
	if path == "" {
		path = hooks.DefaultConfigName
	}

	cfg, err := hooks.LoadConfig(afero.NewOsFs(), path)
	if err != nil {
		return nil, err
	}
	return hooks.NewPipeline(cfg, hooks.WithLogger(newLogger())), nil
}

func changeset(args []string) ([]string, error) {
	if !hooksAllFiles {
		return args, nil
	}

	var files []string
	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if info.IsDir() {
			if strings.HasPrefix(base, ".") && path != "." {
				return filepath.SkipDir
			}
			return nil
		}
		files = append(files, filepath.ToSlash(path))
		return nil
	})
	return files, err
}

func runHooksRun(cmd *cobra.Command, args []string) error {
	pipeline, err := loadPipeline()
	if err != nil {
		return err
	}

	files, err := changeset(args)
	if err != nil {
		return err
	}

	results, failed := pipeline.Run(context.Background(), files)
	renderRuleResults(results)

	if failed {
		return fmt.Errorf("hooks failed")
	}
	return nil
}

func renderRuleResults(results []hooks.RuleResult) {
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()
	skip := color.New(color.FgCyan).SprintFunc()

	for _, res := range results {
		label := res.Name
		dots := strings.Repeat(".", max(1, 60-len(label)))
		switch {
		case res.Skipped:
			fmt.Printf("%s%s%s\n", label, dots, skip("Skipped"))
		case res.Passed:
			fmt.Printf("%s%s%s\n", label, dots, pass("Passed"))
		default:
			fmt.Printf("%s%s%s\n", label, dots, fail("Failed"))
			if len(res.Files) > 0 {
				fmt.Printf("  files: %s\n", strings.Join(res.Files, " "))
			}
			if res.Output != "" {
				fmt.Println(indent(res.Output))
			}
		}
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}

func runHooksList(cmd *cobra.Command, args []string) error {
	pipeline, err := loadPipeline()
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Entry", "Files", "Types")
	for _, rule := range pipeline.Rules() {
		table.Append(rule.ID, rule.Name, rule.Entry, rule.Files, strings.Join(rule.Types, ","))
	}
	if sync := pipeline.SyncRule(); sync != nil {
		table.Append(sync.ID, sync.Name, "(sync chain)", sync.ScriptDir, "python,notebook")
	}
	table.Render()
	return nil
}

func runHooksSync(cmd *cobra.Command, args []string) error {
	pipeline, err := loadPipeline()
	if err != nil {
		return err
	}

	files, err := changeset(args)
	if err != nil {
		return err
	}

	outcomes, err := pipeline.Sync(context.Background(), files)
	for _, o := range outcomes {
		fmt.Printf("synced %s <-> %s\n", o.Script, o.Notebook)
	}
	return err
}

func runHooksWatch(cmd *cobra.Command, args []string) error {
	pipeline, err := loadPipeline()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("watching for changes (ctrl-c to stop)")
	err = pipeline.Watch(ctx, ".", 0, func(results []hooks.RuleResult, failed bool) {
		renderRuleResults(results)
	})
	if err == context.Canceled {
		return nil
	}
	return err
}
