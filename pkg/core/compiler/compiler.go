// Package compiler implements the top-level stage orchestration: it is the
// only place that calls the five compiler stages (S1 Topology Reader
// through S5 Config Emitter) in sequence, plus the S0 bootstrap and S6
// scaffold+validate steps that wrap them. Adapted from the teacher's
// pkg/core/orchestrator, with every suspension point (interruptible sleep,
// emergency-stop channel, goroutine fan-out) removed: spec.md §5 forbids
// concurrency inside the compiler core.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jihwankim/precice-case-generate/pkg/config"
	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/emit"
	"github.com/jihwankim/precice-case-generate/pkg/graph"
	"github.com/jihwankim/precice-case-generate/pkg/planner"
	"github.com/jihwankim/precice-case-generate/pkg/preprocess"
	"github.com/jihwankim/precice-case-generate/pkg/reporting"
	"github.com/jihwankim/precice-case-generate/pkg/scaffold"
	"github.com/jihwankim/precice-case-generate/pkg/topology"
	"github.com/jihwankim/precice-case-generate/pkg/validatorcheck"
)

// Result is the outcome of one Compiler.Run call.
type Result struct {
	OutputDir       string
	Sink            *diagnostics.Sink
	ValidatorRan    bool
	ValidatorResult validatorcheck.Result
}

// Compiler runs the full S0-S6 pipeline once per Run call.
type Compiler struct {
	cfg      *config.Config
	logger   *reporting.Logger
	progress *reporting.ProgressReporter
	sink     *diagnostics.Sink
}

// New creates a Compiler using the given configuration and reporting
// collaborators.
func New(cfg *config.Config, logger *reporting.Logger, progress *reporting.ProgressReporter) *Compiler {
	return &Compiler{
		cfg:      cfg,
		logger:   logger,
		progress: progress,
		sink:     diagnostics.NewSink(),
	}
}

// Run compiles topologyPath into a preCICE case under outputDir. It resets
// the warning sink at entry (spec.md §5's process-wide logging state reset)
// so warnings never leak between invocations, and resets the output
// directory before writing anything to it.
func (c *Compiler) Run(topologyPath, outputDir string) (*Result, error) {
	c.sink.Reset()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic during compilation", "panic", fmt.Sprintf("%v", r))
		}
	}()

	pool := topology.NewUniquifierPool(c.cfg.CaseGen.UniquifierPool)

	t, err := c.stageRead(topologyPath, pool)
	if err != nil {
		return nil, err
	}

	pre := c.stagePreprocess(t)

	g, err := c.stageGraph(pre, pool)
	if err != nil {
		return nil, err
	}

	plan, err := c.stagePlan(g)
	if err != nil {
		return nil, err
	}

	layout, err := c.stageScaffoldReset(outputDir)
	if err != nil {
		return nil, err
	}

	if err := c.stageEmit(g, plan, layout); err != nil {
		return nil, err
	}

	if err := c.stageScaffoldFinish(g, layout); err != nil {
		return nil, err
	}

	result := &Result{OutputDir: layout.GeneratedDir(), Sink: c.sink}

	if c.cfg.Validator.Enabled {
		vr, err := c.stageValidate(layout)
		if err != nil {
			return result, err
		}
		result.ValidatorRan = true
		result.ValidatorResult = vr
	}

	c.progress.ReportSummary(reporting.Summary{
		OutputDir:       result.OutputDir,
		WarningCount:    len(c.sink.Warnings),
		ValidatorRan:    result.ValidatorRan,
		ValidatorPassed: result.ValidatorResult.Passed(),
	})

	return result, nil
}

// stageRead runs S1, the Topology Reader. pool is shrunk in place as data
// names are observed; the same instance is then handed on to S3 as its
// collision-resolution source, per spec.md §9.
func (c *Compiler) stageRead(path string, pool *topology.UniquifierPool) (*topology.Topology, error) {
	c.transition(reporting.StageRead)
	reader := topology.NewReader(pool)

	t, err := reader.ParseFile(path)
	if err != nil {
		c.progress.StageFailed(reporting.StageRead, err)
		return nil, err
	}
	c.progress.StageCompleted(reporting.StageRead)
	return t, nil
}

// stagePreprocess runs S2, the Patch Preprocessor.
func (c *Compiler) stagePreprocess(t *topology.Topology) *preprocess.Result {
	c.transition(reporting.StagePreprocess)
	classifier := preprocess.NewClassifier(c.cfg.CaseGen.ExtensiveVocabulary, c.cfg.CaseGen.IntensiveVocabulary)
	pre := preprocess.NewPreprocessor(classifier).Run(t, c.sink)
	c.progress.StageCompleted(reporting.StagePreprocess)
	return pre
}

// stageGraph runs S3, the Graph Builder. It reuses the same uniquifier pool
// instance the reader already shrank during S1, per spec.md §9.
func (c *Compiler) stageGraph(pre *preprocess.Result, pool *topology.UniquifierPool) (*graph.Graph, error) {
	c.transition(reporting.StageGraph)
	g, err := graph.NewBuilder(pool).Build(pre, c.sink)
	if err != nil {
		c.progress.StageFailed(reporting.StageGraph, err)
		return nil, err
	}
	c.progress.StageCompleted(reporting.StageGraph)
	return g, nil
}

// stagePlan runs S4, the Coupling Planner.
func (c *Compiler) stagePlan(g *graph.Graph) (*planner.CouplingPlan, error) {
	c.transition(reporting.StagePlan)
	plan, err := planner.NewPlanner(c.cfg.CaseGen.ConvergenceLimit).Plan(g)
	if err != nil {
		c.progress.StageFailed(reporting.StagePlan, err)
		return nil, err
	}
	c.progress.StageCompleted(reporting.StagePlan)
	return plan, nil
}

// stageScaffoldReset resets the _generated output directory before anything
// is written into it, logging the removal/recreation to the layout's audit
// trail.
func (c *Compiler) stageScaffoldReset(outputDir string) (*scaffold.Layout, error) {
	layout := scaffold.NewLayout(outputDir)
	if err := layout.Reset(); err != nil {
		return nil, diagnostics.NewEmitterError(err, "failed to reset output directory")
	}
	stageLogger := c.logger.WithStage(reporting.StageScaffold)
	for _, entry := range layout.AuditLog() {
		if entry.Success {
			stageLogger.Debug("scaffold reset", "action", entry.Action, "target", entry.Target)
		} else {
			stageLogger.Warn("scaffold reset", "action", entry.Action, "target", entry.Target, "error", entry.Error)
		}
	}
	return layout, nil
}

// stageEmit runs S5, the Config Emitter, writing precice-config.xml.
func (c *Compiler) stageEmit(g *graph.Graph, plan *planner.CouplingPlan, layout *scaffold.Layout) error {
	c.transition(reporting.StageEmit)

	emitter := emit.NewEmitter(
		c.cfg.CaseGen.LineWrapWidth,
		c.cfg.CaseGen.AttributeWrapThreshold,
		c.cfg.CaseGen.MaxTime,
		c.cfg.CaseGen.TimeWindowSize,
		c.cfg.CaseGen.MaxIterations,
	)

	xml, err := emitter.Emit(g, plan)
	if err != nil {
		c.progress.StageFailed(reporting.StageEmit, err)
		return err
	}

	path := filepath.Join(layout.GeneratedDir(), "precice-config.xml")
	if err := writeFile(path, xml); err != nil {
		wrapped := diagnostics.NewEmitterError(err, "failed to write %q", path)
		c.progress.StageFailed(reporting.StageEmit, wrapped)
		return wrapped
	}

	c.progress.StageCompleted(reporting.StageEmit)
	return nil
}

// stageScaffoldFinish runs S6: per-participant adapter-config.json and
// run.sh, plus the shared clean.sh and README.md.
func (c *Compiler) stageScaffoldFinish(g *graph.Graph, layout *scaffold.Layout) error {
	c.transition(reporting.StageScaffold)

	renderer, err := scaffold.NewRenderer()
	if err != nil {
		wrapped := diagnostics.NewEmitterError(err, "failed to load output templates")
		c.progress.StageFailed(reporting.StageScaffold, wrapped)
		return wrapped
	}

	participants := g.Participants.All()
	var participantDirs []string
	var readmeParticipants []scaffold.ReadmeParticipant

	for i := range participants {
		p := participants[i]
		pid := graph.ParticipantID(i)

		dir, err := layout.EnsureParticipantDir(p.Name, p.SolverName)
		if err != nil {
			wrapped := diagnostics.NewEmitterError(err, "failed to create participant directory for %q", p.Name)
			c.progress.StageFailed(reporting.StageScaffold, wrapped)
			return wrapped
		}

		cfg := scaffold.BuildAdapterConfig(g, pid)
		if err := scaffold.WriteAdapterConfig(filepath.Join(dir, "adapter-config.json"), cfg); err != nil {
			c.progress.StageFailed(reporting.StageScaffold, err)
			return err
		}

		if err := renderer.WriteRunScript(filepath.Join(dir, "run.sh"), scaffold.RunScriptData{
			Participant: p.Name,
			Solver:      p.SolverName,
		}); err != nil {
			wrapped := diagnostics.NewEmitterError(err, "failed to write run.sh for %q", p.Name)
			c.progress.StageFailed(reporting.StageScaffold, wrapped)
			return wrapped
		}

		participantDirs = append(participantDirs, filepath.Base(dir))
		readmeParticipants = append(readmeParticipants, scaffold.ReadmeParticipant{
			Name:   p.Name,
			Solver: p.SolverName,
			Dir:    filepath.Base(dir),
		})
	}

	if err := renderer.WriteCleanScript(filepath.Join(layout.GeneratedDir(), "clean.sh"), scaffold.CleanScriptData{
		Participants: participantDirs,
	}); err != nil {
		wrapped := diagnostics.NewEmitterError(err, "failed to write clean.sh")
		c.progress.StageFailed(reporting.StageScaffold, wrapped)
		return wrapped
	}

	if err := renderer.WriteReadme(filepath.Join(layout.GeneratedDir(), "README.md"), scaffold.ReadmeData{
		CaseName:     filepath.Base(layout.OutputDir),
		Participants: readmeParticipants,
	}); err != nil {
		wrapped := diagnostics.NewEmitterError(err, "failed to write README.md")
		c.progress.StageFailed(reporting.StageScaffold, wrapped)
		return wrapped
	}

	c.progress.StageCompleted(reporting.StageScaffold)
	return nil
}

// stageValidate invokes the external precice-config-check tool against the
// emitted XML. A non-zero result is reported through the sink but never
// fails Run: the validator is advisory (spec.md §6/§7).
func (c *Compiler) stageValidate(layout *scaffold.Layout) (validatorcheck.Result, error) {
	checker := validatorcheck.NewChecker(c.cfg.Validator.BinaryPath)
	configPath := filepath.Join(layout.GeneratedDir(), "precice-config.xml")

	vr, err := checker.Check(configPath)
	if err != nil {
		return vr, err
	}

	if reportErr := validatorcheck.Report(c.cfg.Validator.BinaryPath, vr); reportErr != nil {
		c.sink.Warn("%v", reportErr)
	}

	return vr, nil
}

// transition logs a "stage transition" line tagged with the new stage and
// reports the stage start via the progress reporter.
func (c *Compiler) transition(s reporting.Stage) {
	c.logger.WithStage(s).Info("stage transition")
	c.progress.StageStarted(s)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
