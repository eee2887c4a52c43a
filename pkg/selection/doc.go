// Package selection turns a selector into a subset of a handle's record
// identifiers.
//
// A Selector is one of three variants:
//
//   - All: every identifier, in original order.
//   - Indices: positions into the handle's item context. Positions outside
//     the record are dropped one by one; result order follows the input.
//   - Criteria: a filter over item context (states, types, title terms and
//     globs, tag substrings, days-inactive bounds).
//
// Selectors usually arrive as JSON written by a model, so Parse and FromValue
// never fail: anything unrecognized becomes the Invalid variant, which
// resolves to "not found" exactly like a missing handle. Resolution never
// synthesizes identifiers; every result is a literal subset of the stored list.
package selection
