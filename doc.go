// Package mdlive incrementally renders Markdown arriving in small, frequent
// bursts (a generative text stream, typically) into a live HTML tree.
//
// The package is built for streaming: every input burst schedules a cheap
// full re-parse, and a shallow positional reconciler patches the persistent
// tree so that already materialized expensive sub-renders (diagrams) are
// preserved by content fingerprint instead of being torn down and redrawn.
// Syntactically incomplete fenced blocks render as escaped streaming
// previews until their closing marker actually arrives in the source.
//
// Core properties:
//   - Placeholder protection for code and math spans, with zero token leaks
//   - Fence completeness detected against the full accumulated source
//   - Coalescing pass throttle plus debounced sub-render cadence
//   - Fingerprint-preserving shallow reconciliation
//   - Per-node failure containment for diagram materialization
//
// Example:
//
//	r := mdlive.New(mdlive.WithDiagramEngine(engine))
//	defer r.Close()
//	for chunk := range stream {
//		if err := r.Append(chunk); err != nil {
//			log.Fatal(err)
//		}
//	}
//	r.Flush()
//	fmt.Println(r.HTML())
//
// The structural parser, sanitizer, math typesetter, diagram engine and
// syntax highlighter are pluggable collaborators; usable degrade-gracefully
// defaults are built in for all but the diagram engine.
package mdlive
