package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/pflag"
)

// enumValue is a string flag restricted to a fixed set of values, rejected
// at parse time instead of deep inside a command.
type enumValue struct {
	value   string
	allowed []string
}

var _ pflag.Value = (*enumValue)(nil)

func newEnumValue(def string, allowed ...string) *enumValue {
	return &enumValue{value: def, allowed: allowed}
}

func (e *enumValue) String() string { return e.value }

func (e *enumValue) Set(s string) error {
	if !slices.Contains(e.allowed, s) {
		return fmt.Errorf("must be one of %s", e.Allowed())
	}
	e.value = s
	return nil
}

func (e *enumValue) Type() string { return "string" }

// Allowed lists the accepted values for help text.
func (e *enumValue) Allowed() string {
	return strings.Join(e.allowed, ", ")
}
