package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jihwankim/precice-case-generate/pkg/core/compiler"
	"github.com/jihwankim/precice-case-generate/pkg/diagnostics"
	"github.com/jihwankim/precice-case-generate/pkg/reporting"
)

// runGenerate implements the single positional-arg command: compile
// args[0] (a topology YAML file) into a preCICE case under --output.
func runGenerate(cmd *cobra.Command, args []string) error {
	topologyPath := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logLevel := reporting.LogLevel(cfg.Framework.LogLevel)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}

	logStore, err := reporting.NewLogStore(cfg.Reporting.LogDir, cfg.Reporting.KeepLastN)
	if err != nil {
		return fmt.Errorf("failed to set up log storage: %w", err)
	}
	logFile, err := logStore.NewLogFile(time.Now().Format("20060102-150405"))
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()

	logger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormatJSON,
		Output: logFile,
	})

	stderrLogger := reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stderr,
	})

	progress := reporting.NewProgressReporter(reporting.FormatText, stderrLogger)

	logger.Info("precice-case-generate starting", "version", version, "topology", topologyPath)

	c := compiler.New(cfg, logger, progress)
	result, err := c.Run(topologyPath, outputDir)
	if err != nil {
		stderrLogger.Error("compilation failed", "error", err)
		return err
	}

	if result.Sink.HasWarnings() {
		fmt.Fprint(os.Stderr, result.Sink.Report())
	}

	if result.ValidatorRan && !result.ValidatorResult.Passed() {
		return diagnostics.NewValidatorFailure(nil, "generated case failed validator check (exit %d)", result.ValidatorResult.ExitCode)
	}

	return nil
}

// exitCode maps a returned error to the process exit code from spec.md §6:
// 0 success, 1 invalid input, 2 emitter/validator error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var diagErr *diagnostics.Error
	if asDiagError(err, &diagErr) {
		switch diagErr.Kind {
		case diagnostics.KindInvalidInput:
			return 1
		case diagnostics.KindEmitterError, diagnostics.KindValidatorFailure:
			return 2
		}
	}
	return 1
}

func asDiagError(err error, target **diagnostics.Error) bool {
	for err != nil {
		if de, ok := err.(*diagnostics.Error); ok {
			*target = de
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
