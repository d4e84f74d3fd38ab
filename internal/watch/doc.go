// Package watch drives timer-based reloads of the active logging document.
//
// A Watcher arms itself against the *logconfig.Document installed in a
// lifecycle.Instance. File system events for that document's file (via
// fsnotify) are debounced and turned into ReloadOnTimer calls carrying the
// exact snapshot the watcher was armed against, so a reload that races with
// a manual SetConfiguration is discarded by the instance as stale.
//
// The watcher re-arms whenever the instance reports a configuration change
// and disarms when nothing is installed or the document has auto_reload
// turned off. An optional interval triggers reloads even without file
// events. Reloads from one watcher never overlap, and each is bounded by a
// timeout after which the watcher stops waiting.
package watch
