// Package dashboard is the people table: its column metadata, the users
// API client, the gender options source, and the live session that ties
// them to a table controller.
package dashboard
