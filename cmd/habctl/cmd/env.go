package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/spf13/cobra"

	"github.com/navlab-tools/habctl/internal/conda"
)

// envCmd represents the env command
var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Inspect the launch environment",
}

// envInfoCmd represents the env info command
var envInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the resolved conda environment and project paths",
	Args:  cobra.NoArgs,
	RunE:  runEnvInfo,
}

// envDoctorCmd represents the env doctor command
var envDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Preflight checks before launching a run",
	Long: `Verifies the conda environment, project layout and entry points, and
reports host resources relevant to training runs.`,
	Args: cobra.NoArgs,
	RunE: runEnvDoctor,
}

func init() {
	rootCmd.AddCommand(envCmd)
	envCmd.AddCommand(envInfoCmd)
	envCmd.AddCommand(envDoctorCmd)
}

func runEnvInfo(cmd *cobra.Command, args []string) error {
	s := currentSettings()

	env, err := conda.Activate(conda.Options{Root: s.CondaRoot, Name: s.CondaEnv, EnvFile: s.EnvFile})
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]string{
			"environment":  env.Name,
			"prefix":       env.Prefix,
			"python":       env.Python(),
			"project_root": s.ProjectRoot,
			"pythonpath":   env.Pythonpath(),
		})
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Setting", "Value")
	table.Append("Environment", env.Name)
	table.Append("Prefix", env.Prefix)
	table.Append("Python", env.Python())
	table.Append("Project root", s.ProjectRoot)
	table.Append("PYTHONPATH", env.Pythonpath())
	table.Render()
	return nil
}

type doctorCheck struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

func runEnvDoctor(cmd *cobra.Command, args []string) error {
	s := currentSettings()

	checks := []doctorCheck{
		checkDir("conda root", s.CondaRoot),
		checkDir("conda environment", condaPrefix(s)),
		checkFile("python interpreter", filepath.Join(condaPrefix(s), "bin", "python")),
		checkDir("project root", s.ProjectRoot),
		checkFile("eval entry point", filepath.Join(s.ProjectRoot, s.EvalEntry)),
		checkFile("dataset entry point", filepath.Join(s.ProjectRoot, s.DatasetEntry)),
	}
	checks = append(checks, hostChecks(s.ProjectRoot)...)

	if IsJSONOutput() {
		if err := json.NewEncoder(os.Stdout).Encode(checks); err != nil {
			return err
		}
	} else {
		renderDoctor(checks)
	}

	for _, c := range checks {
		if !c.OK {
			return fmt.Errorf("preflight failed: %s", c.Name)
		}
	}
	return nil
}

func condaPrefix(s settings) string {
	if s.CondaEnv == "base" {
		return s.CondaRoot
	}
	return filepath.Join(s.CondaRoot, "envs", s.CondaEnv)
}

func checkDir(name, path string) doctorCheck {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return doctorCheck{Name: name, OK: false, Detail: path + " (missing)"}
	}
	return doctorCheck{Name: name, OK: true, Detail: path}
}

func checkFile(name, path string) doctorCheck {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return doctorCheck{Name: name, OK: false, Detail: path + " (missing)"}
	}
	return doctorCheck{Name: name, OK: true, Detail: path}
}

// hostChecks reports resources that commonly starve training runs.
// Informational thresholds, not hard failures, except disk space.
func hostChecks(projectRoot string) []doctorCheck {
	var checks []doctorCheck

	if threads, err := cpu.Counts(true); err == nil {
		checks = append(checks, doctorCheck{
			Name: "cpu threads", OK: true,
			Detail: fmt.Sprintf("%d", threads),
		})
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		ok := vm.Available > 4<<30
		checks = append(checks, doctorCheck{
			Name: "available memory", OK: ok,
			Detail: fmt.Sprintf("%.1f GB free of %.1f GB", float64(vm.Available)/(1<<30), float64(vm.Total)/(1<<30)),
		})
	}

	if du, err := disk.Usage(projectRoot); err == nil {
		ok := du.Free > 10<<30
		checks = append(checks, doctorCheck{
			Name: "disk space", OK: ok,
			Detail: fmt.Sprintf("%.1f GB free on %s", float64(du.Free)/(1<<30), projectRoot),
		})
	}

	return checks
}

func renderDoctor(checks []doctorCheck) {
	pass := color.New(color.FgGreen).SprintFunc()
	fail := color.New(color.FgRed).SprintFunc()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Check", "Status", "Detail")
	for _, c := range checks {
		statusText := pass("OK")
		if !c.OK {
			statusText = fail("FAIL")
		}
		table.Append(c.Name, statusText, c.Detail)
	}
	table.Render()
}
