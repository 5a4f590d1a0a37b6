// Package netconfig resolves the textual network settings of the access
// point into a validated NetworkIdentity.
//
// Resolution happens once at startup, before any long-running task is
// spawned, and is the only place where a bad setting aborts the daemon.
// Errors are *FieldError values that name the offending field:
//
//	id, err := netconfig.Resolve("192.168.1.2/24", "192.168.1.2", nil)
//	if err != nil {
//	    var fe *netconfig.FieldError
//	    if errors.As(err, &fe) {
//	        fmt.Println("bad", fe.Field)
//	    }
//	}
package netconfig
