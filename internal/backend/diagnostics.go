package backend

import (
	"context"
	"errors"
	"fmt"
)

// Check is one step of a connection test.
type Check struct {
	Name string
	Err  error
}

// OK reports whether the step passed.
func (c Check) OK() bool { return c.Err == nil }

// Report is the outcome of TestConnection, one Check per step in order.
type Report struct {
	Checks []Check
}

// OK reports whether every step passed.
func (r *Report) OK() bool {
	for _, c := range r.Checks {
		if !c.OK() {
			return false
		}
	}
	return true
}

// Errors returns the failures in step order.
func (r *Report) Errors() []error {
	var errs []error
	for _, c := range r.Checks {
		if c.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, c.Err))
		}
	}
	return errs
}

// Err joins every failure, or returns nil.
func (r *Report) Err() error {
	return errors.Join(r.Errors()...)
}

// TestConnection runs every diagnostic step and records each outcome. A
// failing step does not stop the ones after it.
func (b *Backend) TestConnection(ctx context.Context) *Report {
	report := &Report{}
	record := func(name string, fn func() error) {
		report.Checks = append(report.Checks, Check{Name: name, Err: fn()})
	}

	record("create Kubernetes client", func() error {
		_, err := b.conn()
		return err
	})

	record("list cluster namespaces", func() error {
		store, err := b.conn()
		if err != nil {
			return err
		}
		_, err = store.ListNamespaces(ctx)
		return err
	})

	record(fmt.Sprintf("target namespace %s exists", b.namespace), func() error {
		store, err := b.conn()
		if err != nil {
			return err
		}
		return store.GetNamespace(ctx, b.namespace)
	})

	record(fmt.Sprintf("resource %s/%s exists", b.namespace, b.ResourceName()), func() error {
		b.invalidate()
		_, err := b.loadResource(ctx)
		return err
	})

	record("read state entries", func() error {
		_, err := b.Load(ctx)
		return err
	})

	return report
}
