/*
Package session serialises access to persisted plot sessions.

Every read-modify-write of a session runs under a per-session lock held in
process memory and, when configured, a distributed lock shared by replicas.
*/
package session
