package alerting

import "errors"

var (
	errInvalidRule       = errors.New("invalid threshold rule")
	errInvalidComparator = errors.New("invalid comparator")
)
