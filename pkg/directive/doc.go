// Package directive parses include/exclude directive strings such as
//
//	author,comments.author:limit[5|asc],comments.likes
//
// into a nested Tree of requested keys and a per-path Options table.
//
// # Grammar
//
//   - Directives are separated by ','. Empty directives are ignored.
//   - '.' separates path components: "comments.author" is {comments: {author}}.
//   - ':' starts an option clause on the last component of a path.
//     Clauses chain with ':' ("limit[5]:sort[asc]").
//   - An option is "name" or "name[arg1|arg2]".
//
// # Public API surface
//
//   - Parse, ParseSet, Set
//   - Tree, Node: Has, Get, Keys, Paths, Merge, String
//   - Options, PathOptions: Has, HasOption, Get, GetOption, Merge
//   - HasPath, HasOption, GetOptions, GetOption (function forms of the lookups)
//   - NewContext, FromContext
//   - Cache, NewCache
//
// Parsing never fails. Malformed input degrades to the closest leaf or to nothing.
// Returned values are freshly allocated and must be treated as read-only.
package directive
