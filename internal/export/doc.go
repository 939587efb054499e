// Package export persists report tables as CSV and reads them back.
//
// Files are written with a header row followed by one record per revenue.
// Writing always truncates: a new report fully replaces the previous file.
package export
