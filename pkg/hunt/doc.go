// Package hunt finds exported JavaScript and TypeScript symbols that no other
// file references.
//
// A hunt runs in two passes over independently chosen file lists. The
// registration pass records every exported component, hook, function and
// type in a Registry keyed by name. The usage pass looks for references to
// those names in other files through four detectors: import bindings, JSX
// tags, plain identifiers and type references. Whatever is left unmarked is
// reported as dead.
//
// Matching is by name only. There is no scope analysis, no module path
// resolution and no tracking through re-exports, so a same-named identifier
// anywhere else keeps an export alive.
//
// Usage:
//
//	h, err := hunt.New(hunt.AllCategorySet(), hunt.WithWorkers(8))
//	if err != nil {
//	    return err
//	}
//
//	res, err := h.Hunt(ctx, registerFiles, usageFiles)
//	if err != nil {
//	    return err
//	}
//
//	for _, e := range res.Report.Entries {
//	    fmt.Printf("%s %s %s:%d\n", e.Category, e.Name, e.File, e.Line)
//	}
package hunt
