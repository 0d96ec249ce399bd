// Package permission holds the static role → permission-slug and role →
// dashboard tables consumed by route guards and page-level checks.
//
// Lookups are synchronous, allocation-free, and side-effect-free; they are
// safe to call on every render. The table is populated during initialization
// and frozen for the process lifetime.
//
// Role checks are strict equality only: admin does not implicitly inherit
// corporate or client capabilities. Capability overlap is expressed by
// granting the same slug to several roles.
package permission
