// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

type namedChecker struct {
	name  string
	check func(ctx context.Context) error
}

func (c *namedChecker) Name() string { return c.name }

func (c *namedChecker) Check(ctx context.Context) CheckResult {
	if err := c.check(ctx); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy}
}

// NewChecker wraps a probe function as a Checker.
func NewChecker(name string, check func(ctx context.Context) error) Checker {
	return &namedChecker{name: name, check: check}
}

// NewWritableDirChecker verifies the directory exists and is writable by
// creating and removing a probe file.
func NewWritableDirChecker(name, dir string) Checker {
	return NewChecker(name, func(_ context.Context) error {
		if dir == "" {
			return fmt.Errorf("directory not configured")
		}
		info, err := os.Stat(dir)
		if err != nil {
			return fmt.Errorf("stat %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		probe := filepath.Join(dir, ".goeda-health")
		if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
			return fmt.Errorf("write probe: %w", err)
		}
		return os.Remove(probe)
	})
}

type degradedChecker struct {
	inner Checker
}

func (c *degradedChecker) Name() string { return c.inner.Name() }

func (c *degradedChecker) Check(ctx context.Context) CheckResult {
	res := c.inner.Check(ctx)
	if res.Status == StatusUnhealthy {
		res.Status = StatusDegraded
	}
	return res
}

// Informational downgrades a checker's failures to degraded so it never
// flips readiness on its own.
func Informational(inner Checker) Checker {
	return &degradedChecker{inner: inner}
}
