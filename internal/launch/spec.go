package launch

// SemanticSentinel is the literal flag value that toggles semantic
// scene annotations during dataset generation.
const SemanticSentinel = "semantic"

// Spec describes one external invocation. BuildArgs substitutes the
// spec's fields into a fixed argv template; it performs no validation
// and is deterministic for a given spec value.
type Spec interface {
	Kind() string
	BuildArgs() []string
}

// EvalSpec launches an evaluation run of a trained agent.
type EvalSpec struct {
	Entry     string // e.g. habitat_baselines/run.py
	ExpConfig string // experiment config path
}

func (s EvalSpec) Kind() string { return "eval" }

func (s EvalSpec) BuildArgs() []string {
	return []string{
		s.Entry,
		"--exp-config", s.ExpConfig,
		"--run-type", "eval",
	}
}

// TrainSpec launches a training run. Same entry point as eval, the
// run type switch selects the mode.
type TrainSpec struct {
	Entry     string
	ExpConfig string
}

func (s TrainSpec) Kind() string { return "train" }

func (s TrainSpec) BuildArgs() []string {
	return []string{
		s.Entry,
		"--exp-config", s.ExpConfig,
		"--run-type", "train",
	}
}

// DatasetSpec generates training episodes for a scene/task pair.
// Flag is compared textually against SemanticSentinel; any other
// value builds the command without the semantic switch.
type DatasetSpec struct {
	Entry        string
	Scene        string
	Task         string
	EpisodesPath string
	Flag         string
}

func (s DatasetSpec) Kind() string { return "dataset-generate" }

func (s DatasetSpec) BuildArgs() []string {
	args := []string{
		s.Entry,
		"--episodes", s.EpisodesPath,
		"--mode", "train",
		"--scene", s.Scene,
		"--task", s.Task,
	}
	if s.Flag == SemanticSentinel {
		args = append(args, "--use-semantic")
	}
	return args
}

// ValidateSpec checks generated episodes against a task config.
type ValidateSpec struct {
	Entry        string
	TaskConfig   string
	Scenes       string
	PrevEpisodes string
}

func (s ValidateSpec) Kind() string { return "dataset-validate" }

func (s ValidateSpec) BuildArgs() []string {
	return []string{
		s.Entry,
		"--task-config", s.TaskConfig,
		"--scenes", s.Scenes,
		"--prev_episodes", s.PrevEpisodes,
	}
}

// ReplayParseSpec converts crowdsourced replay data into episodes.
type ReplayParseSpec struct {
	Entry      string
	ReplayPath string
	OutputPath string
}

func (s ReplayParseSpec) Kind() string { return "replay-parse" }

func (s ReplayParseSpec) BuildArgs() []string {
	return []string{
		s.Entry,
		"--replay-path", s.ReplayPath,
		"--output-path", s.OutputPath,
	}
}
