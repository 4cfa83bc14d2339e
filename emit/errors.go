package emit

import "github.com/pkg/errors"

// ErrUnsupported wraps an ir.Stmt/ir.Expr kind name the emitter has no
// lowering for (spec.md §7, error kind 2: "unsupported construct").
type ErrUnsupported struct {
	Kind string
}

func (e *ErrUnsupported) Error() string {
	return "emit: unsupported construct: " + e.Kind
}

func unsupported(kind string) error {
	return errors.WithStack(&ErrUnsupported{Kind: kind})
}

func unsupportedf(format string, args ...interface{}) error {
	return errors.WithStack(&ErrUnsupported{Kind: errors.Errorf(format, args...).Error()})
}
