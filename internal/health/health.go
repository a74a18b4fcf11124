package health

import (
	"context"
	"time"
)

type CheckFunc func(ctx context.Context) error

type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// ProbeRunner evaluates named dependency checks for the readiness endpoint.
type ProbeRunner struct {
	checks  []namedCheck
	timeout time.Duration
}

type namedCheck struct {
	name  string
	check CheckFunc
}

func NewProbeRunner(timeout time.Duration) *ProbeRunner {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &ProbeRunner{timeout: timeout}
}

func (p *ProbeRunner) Register(name string, check CheckFunc) {
	p.checks = append(p.checks, namedCheck{name: name, check: check})
}

// Ready runs every registered check and reports whether all passed.
func (p *ProbeRunner) Ready(ctx context.Context) (bool, []CheckResult) {
	results := make([]CheckResult, 0, len(p.checks))
	ready := true
	for _, c := range p.checks {
		checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := c.check(checkCtx)
		cancel()
		res := CheckResult{Name: c.name, Healthy: err == nil}
		if err != nil {
			res.Error = err.Error()
			ready = false
		}
		results = append(results, res)
	}
	return ready, results
}
