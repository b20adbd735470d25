// Package xpath parses the restricted XPath subset accepted by the
// xpointer() scheme. It supports location paths made of element steps with
// child and descendant axes, name and wildcard tests, positional and
// attribute predicates, id() as the first step, and unions. Anything that
// would select attributes, text or computed values is rejected.
package xpath
