package encoding

import "errors"

var ErrNotJSON = errors.New("payload is not valid JSON")
