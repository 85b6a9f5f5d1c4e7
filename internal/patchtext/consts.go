package patchtext

// Input encodings accepted by Options.InputEncoding.
const (
	EncodingUTF8        = "UTF-8"
	EncodingUTF16LE     = "UTF-16LE"
	EncodingUTF16BE     = "UTF-16BE"
	EncodingWindows1252 = "WINDOWS-1252"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

const (
	// sectionSuffix ends an unindented line that opens a new table section.
	sectionSuffix = ".dbc:"

	// Keys of the {dbc, changes} document shape.
	fieldDBC     = "dbc"
	fieldChanges = "changes"

	// Keys of a change entry.
	fieldType      = "type"
	fieldKey       = "key"
	fieldKeyColumn = "key_column"
	fieldUpdates   = "updates"
	fieldValues    = "values"

	// YAML core schema tags.
	tagStr   = "!!str"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagBool  = "!!bool"
	tagNull  = "!!null"
)
