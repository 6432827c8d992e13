// Package core holds the domain logic for turning street-addressing CSV
// exports into field lists.
//
// It is independent of any transport: the web server, the CLI and the tests
// all drive the same functions.
//
// # Flow
//
//  1. [ParseDataset] decodes one semicolon-delimited upload into a [Dataset],
//     checking that every expected input column is present.
//  2. [Normalize] coerces the block, face and sequence identifiers to integers,
//     sorts by (block, face, sequence), projects the nine output columns and
//     rewrites the species column into an initialism. The result is a [Table].
//
// Rendering the table as a spreadsheet and packing the archive live in the
// sheet and archive packages.
//
// # Error Handling
//
// Failures are typed ([TypeError], [SchemaError], [FormatError]) so callers
// can inspect them with errors.As. [MapError] converts any of them into a
// user-facing message with a support code:
//
//   - VAL001-VAL004: identifier and header validation
//   - FILE001-FILE006: upload problems (size, CSV syntax, binary content, empty, count)
//   - SHEET001, ARC001: spreadsheet and archive generation
//   - BATCH001-BATCH003, RATE001: batch admission and request limits
package core
