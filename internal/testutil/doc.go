// Package testutil contains helper builders and shared suites used across
// tests to reduce boilerplate when constructing fixtures (tasks, calendar
// events), stepping clocks and exercising history backends. They are not
// intended for production usage.
package testutil
