package keyset

import "errors"

var (
	// ErrInvalidPage is returned when a place does not correspond to the
	// ordering of the paged query, e.g. a bookmark of another query.
	ErrInvalidPage = errors.New("invalid page")

	// ErrBadBookmark is returned by DecodeBookmark for malformed tokens.
	ErrBadBookmark = errors.New("bad bookmark")

	// ErrUnregisteredType is returned when an ordering value has no bookmark
	// representation.
	ErrUnregisteredType = errors.New("unregistered bookmark value type")

	// ErrWrappingOverflow signals a circular expression tree. It is never
	// expected for well-formed input.
	ErrWrappingOverflow = errors.New("maximum element wrapping depth reached, the expression tree is probably circular")

	// ErrNoDirection is returned when reversing an expression without an
	// ASC/DESC marker.
	ErrNoDirection = errors.New("ordering expression carries no direction")

	// ErrUnsupportedPlan is returned for Plan implementations the pager
	// cannot transform.
	ErrUnsupportedPlan = errors.New("unsupported plan")
)

// maxWrappingDepth bounds every walk down a chain of wrapping expressions.
const maxWrappingDepth = 1000
