package db

import "errors"

// ErrTransactionClosed is returned by any Transaction method called after
// Commit or Rollback has already run.
var ErrTransactionClosed = errors.New("db: transaction already closed")
