package store

import "errors"

// Error kinds returned by the storage substrate and revision layer, per
// the error taxonomy in the spec's "Address/store" group.
var (
	ErrBadAddress                = errors.New("bad_address")
	ErrHeaderCorrupt             = errors.New("header_corrupt")
	ErrHeaderVersionMismatch     = errors.New("header_version_mismatch")
	ErrUnknownRevision           = errors.New("unknown_revision")
	ErrIndexNotLatestRevision    = errors.New("index_not_latest_revision")
	ErrIndexCorrupt              = errors.New("index_corrupt")
	ErrShortRead                 = errors.New("did_not_read_number_of_bytes_requested")
	ErrUUIDParse                 = errors.New("uuid_parse_error")
	ErrBadMessagePartNumber      = errors.New("bad_message_part_number")
)
