package assoc

import (
	"errors"
	"sync"
)

// Input is one annotated declaration together with its configuration.
type Input struct {
	Decl   Declaration
	Config Config
}

// Result is the outcome for one Input. Exactly one of Accessor and Err is set.
type Result struct {
	Accessor *Accessor
	Err      error
}

// ProcessConfig configures Process.
type ProcessConfig struct {
	Workers  int
	Reporter Reporter
}

// ProcessOption mutates a ProcessConfig.
type ProcessOption func(*ProcessConfig)

// WithWorkers fans Process out across n goroutines. n <= 1 runs inline.
// Reporter calls are serialized, so the reporter need not be safe for
// concurrent use, but it runs on worker goroutines.
func WithWorkers(n int) ProcessOption {
	return func(cfg *ProcessConfig) {
		cfg.Workers = n
	}
}

// WithProcessReporter sends each rejection to reporter. Calls never overlap;
// with more than one worker their order is unspecified.
func WithProcessReporter(reporter Reporter) ProcessOption {
	return func(cfg *ProcessConfig) {
		cfg.Reporter = reporter
	}
}

// Process runs Extract, Allocate and Synthesize for every input. Results keep
// input order. A rejected input never affects its siblings; the returned
// error joins every rejection and is nil when all inputs succeed.
func Process(inputs []Input, opts ...ProcessOption) ([]Result, error) {
	cfg := ProcessConfig{Workers: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	var reporter Reporter = NopReporter{}
	if cfg.Reporter != nil {
		reporter = cfg.Reporter
	}

	workers := cfg.Workers
	if workers > len(inputs) {
		workers = len(inputs)
	}
	if workers > 1 {
		reporter = &serialReporter{next: reporter}
	}

	results := make([]Result, len(inputs))
	run := func(i int) {
		results[i] = processOne(inputs[i], reporter)
	}

	if workers <= 1 {
		for i := range inputs {
			run(i)
		}
	} else {
		jobs := make(chan int)
		var wg sync.WaitGroup
		wg.Add(workers)
		for w := 0; w < workers; w++ {
			go func() {
				defer wg.Done()
				for i := range jobs {
					run(i)
				}
			}()
		}
		for i := range inputs {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
	}

	var errs []error
	for _, result := range results {
		if result.Err != nil {
			errs = append(errs, result.Err)
		}
	}
	return results, errors.Join(errs...)
}

func processOne(in Input, reporter Reporter) Result {
	spec, err := Extract(in.Decl, in.Config, WithReporter(reporter))
	if err != nil {
		return Result{Err: err}
	}
	accessor := Synthesize(spec, Allocate(spec))
	return Result{Accessor: &accessor}
}

// serialReporter forwards to next one diagnostic at a time.
type serialReporter struct {
	mu   sync.Mutex
	next Reporter
}

func (r *serialReporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next.Report(d)
}
