// Package include implements the recursive inclusion engine. A Filter sits
// between an event producer and a consumer, replaces include directives with
// the resources they reference and processes the spliced content with a
// child Filter bound to the included document.
package include
