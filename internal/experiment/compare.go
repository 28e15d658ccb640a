package experiment

import (
	"context"
	"sync"

	"github.com/san-kum/pdesim/internal/config"
)

// Compare runs cfg once per integrator. Runs are independent and execute
// concurrently; results come back in the order of names.
func Compare(ctx context.Context, cfg *config.Config, names []string) ([]*Result, error) {
	exps := make([]*Experiment, len(names))
	for i, name := range names {
		c := *cfg
		c.Integrator = name
		e, err := New(&c)
		if err != nil {
			return nil, err
		}
		exps[i] = e
	}

	results := make([]*Result, len(exps))
	errs := make([]error, len(exps))

	var wg sync.WaitGroup
	for i, e := range exps {
		wg.Add(1)
		go func(idx int, e *Experiment) {
			defer wg.Done()
			results[idx], errs[idx] = e.Run(ctx)
		}(i, e)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
