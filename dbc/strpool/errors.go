package strpool

import "errors"

// ErrPoolFull is returned when a string block would exceed 4 GiB.
var ErrPoolFull = errors.New("strpool: string block exceeds u32 offsets")
