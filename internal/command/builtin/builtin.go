// Package builtin registers every cvc command with the command tree.
package builtin

import (
	_ "github.com/keshon/cvc/internal/command/add"
	_ "github.com/keshon/cvc/internal/command/export"
	_ "github.com/keshon/cvc/internal/command/help"
	_ "github.com/keshon/cvc/internal/command/importcmd"
	_ "github.com/keshon/cvc/internal/command/initcmd"
	_ "github.com/keshon/cvc/internal/command/list"
	_ "github.com/keshon/cvc/internal/command/log"
	_ "github.com/keshon/cvc/internal/command/reconcile"
	_ "github.com/keshon/cvc/internal/command/status"
	_ "github.com/keshon/cvc/internal/command/tag"
	_ "github.com/keshon/cvc/internal/command/untrack"
	_ "github.com/keshon/cvc/internal/command/verify"
)
