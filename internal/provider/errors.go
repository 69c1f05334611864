package provider

import "errors"

// ErrUnsupported: el proveedor no implementa la operación.
var ErrUnsupported = errors.New("provider: operation not supported")
