// Package keyset provides keyset ("seek") pagination for SQL queries executed
// through GORM.
//
// Overview
//
// Instead of LIMIT/OFFSET, every page is restricted with a single row value
// comparison against a bookmark: the ordering key values of the row just
// before the page. For a query ordered by (status ASC, id DESC) and a
// bookmark (s, i) the page condition is
//
//	(status, ?) > (?, id)   -- bound to (i, s)
//
// which is "strictly after (s, i)" in the composite sort order.
//
// Key concepts
//   - Plan: an immutable query plan (Select or Union) built from Expr nodes.
//     Every builder method returns a new plan.
//   - OrderingKey: one normalized ORDER BY term with its direction.
//   - ResolvedKey: how the value of an ordering key is read back from a
//     result row (DirectKey, AttributeKey or AppendedKey). Keys that cannot
//     be read from the projection get a synthetic column appended to the
//     query.
//   - Pager: orchestrates parsing, transformation, execution with one
//     lookahead row and marker extraction; produces a Page.
//   - Bookmark: a Place plus direction, serialized to an opaque token.
//
// Limitations
//
// Rows whose ordering key is NULL are silently skipped by the row value
// comparison; a warning is logged when ordering by a nullable column.
// NULLS FIRST / NULLS LAST modifiers are ignored with a warning.
package keyset
