// Package startup brings service dependencies up in order with retries and
// tears them down in reverse on shutdown.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

type StartupDependency interface {
	GetName() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type status int

const (
	statusPending status = iota
	statusStarted
	statusStopped
	statusFailed
)

type Startup struct {
	logger       ectologger.Logger
	order        []StartupDependency
	dependencies map[string]StartupDependency
	statuses     map[string]status
	maxAttempts  int
}

func NewStartup(logger ectologger.Logger, maxAttempts int) *Startup {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Startup{
		logger:       logger,
		dependencies: make(map[string]StartupDependency),
		statuses:     make(map[string]status),
		maxAttempts:  maxAttempts,
	}
}

func (s *Startup) AddDependency(dependency StartupDependency) {
	name := dependency.GetName()
	if _, exists := s.dependencies[name]; !exists {
		s.order = append(s.order, dependency)
	}
	s.dependencies[name] = dependency
}

// Start brings every registered dependency up, honoring DependsOn ordering.
// Failed attempts retry with fibonacci backoff up to maxAttempts.
func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Info("Starting service dependencies")

		lastErr = nil
		for _, dependency := range s.order {
			if err := s.startOne(ctx, dependency); err != nil {
				lastErr = err
				break
			}
		}
		if lastErr == nil {
			return nil
		}

		if attempt == s.maxAttempts {
			break
		}

		wait := time.Duration(a) * time.Second
		s.logger.WithError(lastErr).Warnf("Startup attempt %d/%d failed, retrying in %s", attempt, s.maxAttempts, wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Startup) startOne(ctx context.Context, dependency StartupDependency) error {
	name := dependency.GetName()
	if s.statuses[name] == statusStarted {
		return nil
	}

	for _, parent := range dependency.DependsOn() {
		dep, ok := s.dependencies[parent]
		if !ok {
			return fmt.Errorf("dependency %q requires unregistered dependency %q", name, parent)
		}
		if err := s.startOne(ctx, dep); err != nil {
			return err
		}
	}

	s.logger.WithField("dependency", name).Info("Starting dependency")
	s.statuses[name] = statusPending
	if err := dependency.Start(ctx); err != nil {
		s.statuses[name] = statusFailed
		s.logger.WithError(err).WithField("dependency", name).Error("Dependency failed to start")
		return err
	}
	s.statuses[name] = statusStarted
	return nil
}

// Stop tears dependencies down in reverse registration order. Stop errors are
// logged but do not halt the remaining teardown.
func (s *Startup) Stop(ctx context.Context) error {
	var lastErr error
	for i := len(s.order) - 1; i >= 0; i-- {
		dependency := s.order[i]
		name := dependency.GetName()
		if s.statuses[name] != statusStarted {
			continue
		}

		s.logger.WithField("dependency", name).Info("Stopping dependency")
		if err := dependency.Stop(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", name).Error("Dependency failed to stop")
			lastErr = err
			continue
		}
		s.statuses[name] = statusStopped
	}
	return lastErr
}
