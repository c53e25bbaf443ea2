// Package domain contains the core types of the file scanner: digests, scan
// results and their verdicts, per-engine verdicts and scan events. They carry
// no infrastructure concerns so they can be shared by every package.
package domain
