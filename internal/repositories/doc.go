// Package repositories implements the durable stores of the admin console.
//
//   - [SessionRepository] : SQLite sessions table, one record per Auth Store key
//   - [PGSessionRepository] : the same contract on PostgreSQL through a pgx pool
//   - [ActivityRepository] : audit trail of dashboard mutations, implements [models.Repository]
//
// Both session repositories satisfy auth.Persister.
package repositories
