package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/scott-cotton/cli"
	"go.uber.org/zap"

	"github.com/goliatone/go-assoc"
	"github.com/goliatone/go-assoc/codegen"
	"github.com/goliatone/go-assoc/pkg/zaplog"
)

func main() {
	cli.MainContext(context.Background(), MainCommand())
}

func MainCommand() *cli.Command {
	cfg := &Config{}
	sOpts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommand("assocgen").
		WithSynopsis("assocgen [opts]").
		WithDescription("Generate associated property accessors from //go:build assocgen declaration files or a manifest.").
		WithOpts(sOpts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return run(cfg, cc.Out, args)
		})
}

type Config struct {
	Dir      string `cli:"name=dir desc='directory holding //go:build assocgen files (default: current directory)'"`
	Output   string `cli:"name=o desc='output file for generated code (default: <dir>/assoc_gen.go)'"`
	Manifest string `cli:"name=manifest desc='YAML or JSON manifest to read instead of Go declaration files'"`
	Workers  int    `cli:"name=workers desc='goroutines used to validate declarations'"`
	Check    bool   `cli:"name=check desc='validate declarations without writing output'"`
	NoColor  bool   `cli:"name=no-color desc='disable colored diagnostics'"`
	Verbose  bool   `cli:"name=v desc='log diagnostics and progress through zap'"`
}

func run(cfg *Config, out io.Writer, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", cli.ErrUsage, args)
	}
	if cfg.Dir != "" && cfg.Manifest != "" {
		return fmt.Errorf("%w: cannot specify both -dir and -manifest", cli.ErrUsage)
	}

	logger := zap.NewNop()
	if cfg.Verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		logger = dev
		defer func() { _ = logger.Sync() }()
	}

	pkg, err := load(cfg)
	if err != nil {
		return err
	}
	logger.Debug("loaded declarations",
		zap.String("package", pkg.Name),
		zap.String("dir", pkg.Dir),
		zap.Int("candidates", len(pkg.Candidates)),
	)

	output := cfg.Output
	if output == "" {
		output = filepath.Join(pkg.Dir, codegen.DefaultFilename)
	}

	printer := newPrinter(os.Stderr, useColor(cfg, os.Stderr))
	logged := zaplog.Reporter(logger)
	reporter := assoc.ReporterFunc(func(d assoc.Diagnostic) {
		printer.Report(d)
		logged.Report(d)
	})

	code, err := codegen.Generate(pkg,
		codegen.WithReporter(reporter),
		codegen.WithWorkers(cfg.Workers),
		codegen.WithFilename(output),
	)
	if err != nil {
		var diag *assoc.Diagnostic
		if errors.As(err, &diag) {
			return fmt.Errorf("%d declaration(s) rejected", printer.Count())
		}
		return err
	}

	if cfg.Check {
		fmt.Fprintf(out, "%s: %d properties ok\n", pkg.Name, len(pkg.Candidates))
		return nil
	}
	if err := os.WriteFile(output, code, 0o644); err != nil {
		return fmt.Errorf("failed to write output file %q: %w", output, err)
	}
	logger.Info("generated accessors", zap.String("file", output), zap.Int("properties", len(pkg.Candidates)))
	fmt.Fprintf(out, "wrote %s\n", output)
	return nil
}

func load(cfg *Config) (*codegen.Package, error) {
	if cfg.Manifest != "" {
		return codegen.LoadManifest(cfg.Manifest)
	}
	dir := cfg.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		dir = wd
	}
	return codegen.LoadDir(dir)
}

func useColor(cfg *Config, f *os.File) bool {
	if cfg.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
