// Package migrations registers the database migrations. Importing it for
// side effects is enough; each file calls migration.Register from init().
package migrations
