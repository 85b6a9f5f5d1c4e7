package format

import "errors"

var (
	// ErrSignatureMismatch indicates the table did not start with WDBC.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrRecordLayout indicates record_size cannot hold field_count words.
	ErrRecordLayout = errors.New("format: record size smaller than field count")
	// ErrRecordLength indicates a record whose word count differs from field_count.
	ErrRecordLength = errors.New("format: record length mismatch")
	// ErrTooLarge indicates a count or size that does not fit the u32 header fields.
	ErrTooLarge = errors.New("format: value exceeds u32 range")
)
