// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: The "downloaded N, errors M" line, with an optional
//     detailed block for terminals
//   - JSONWriter / FullJSONWriter: Structured JSON for tool integration
//   - MarkdownWriter: GitHub Flavored Markdown with tables and a pie chart
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably and composed for multi-format output.
package report
